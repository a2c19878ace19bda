// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

package smp

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeRFC3339
	var err error
	encMode, err = opts.EncMode()
	if err != nil {
		panic(err)
	}
}

// EncodeCBOR marshals a request body to its CBOR map form.
// A struct with no fields, or with only unset omitempty fields, encodes
// as the empty map.
func EncodeCBOR(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("smp: encode payload: %w", err)
	}
	return data, nil
}

// DecodeCBOR unmarshals a CBOR response body into the given schema type.
func DecodeCBOR[T any](data []byte) (T, error) {
	var v T
	if err := cbor.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("smp: decode payload: %w", err)
	}
	return v, nil
}
