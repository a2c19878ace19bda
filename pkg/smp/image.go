// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

package smp

// ImageStateEntry describes one firmware slot in an image state response.
type ImageStateEntry struct {
	Image     int    `cbor:"image"`
	Slot      int    `cbor:"slot"`
	Version   string `cbor:"version"`
	Hash      []byte `cbor:"hash"`
	Bootable  bool   `cbor:"bootable"`
	Pending   bool   `cbor:"pending"`
	Confirmed bool   `cbor:"confirmed"`
	Active    bool   `cbor:"active"`
	Permanent bool   `cbor:"permanent"`
}

// ImageStateResponse lists the device's firmware slots.
type ImageStateResponse struct {
	Images      []ImageStateEntry `cbor:"images"`
	SplitStatus int               `cbor:"splitStatus,omitempty"`
}

// ImageStateWriteRequest marks an image for test or confirms it.
// A nil hash with Confirm set confirms the currently running image.
type ImageStateWriteRequest struct {
	Hash    []byte `cbor:"hash,omitempty"`
	Confirm bool   `cbor:"confirm"`
}

// ImageUploadRequest carries one chunk of a firmware upload. Len, SHA,
// Image and Upgrade are sent in the first chunk only.
type ImageUploadRequest struct {
	Image   uint32  `cbor:"image,omitempty"`
	Off     uint64  `cbor:"off"`
	Data    []byte  `cbor:"data"`
	Len     *uint64 `cbor:"len,omitempty"`
	SHA     []byte  `cbor:"sha,omitempty"`
	Upgrade bool    `cbor:"upgrade,omitempty"`
}

// UploadResponse acknowledges an upload chunk with the next expected
// offset. Match reports whether an identical image was already present.
type UploadResponse struct {
	Off   uint64 `cbor:"off"`
	Match *bool  `cbor:"match,omitempty"`
}

// ImageEraseRequest erases a firmware slot. A nil slot erases the
// default (inactive) slot.
type ImageEraseRequest struct {
	Slot *uint32 `cbor:"slot,omitempty"`
}

// SlotInfoSlot describes one slot in a slot info response.
type SlotInfoSlot struct {
	Slot          int     `cbor:"slot"`
	Size          uint64  `cbor:"size"`
	UploadImageID *uint32 `cbor:"upload_image_id,omitempty"`
}

// SlotInfoImage groups the slots belonging to one image number.
type SlotInfoImage struct {
	Image        int            `cbor:"image"`
	Slots        []SlotInfoSlot `cbor:"slots"`
	MaxImageSize *uint64        `cbor:"max_image_size,omitempty"`
}

// SlotInfoResponse lists slot geometry per image.
type SlotInfoResponse struct {
	Images []SlotInfoImage `cbor:"images"`
}
