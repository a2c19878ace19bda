// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marten Veiten

package mcumgr

import (
	"encoding/hex"
	"fmt"

	"github.com/mveiten/gomcumgr/pkg/mcuboot"
)

// FirmwareUpdate runs the standard update flow: parse the image, upload
// it, mark its hash for test, and reboot the device. The device boots
// the new image once; confirming it is left to the application (or to
// an explicit ImageConfirm) so a broken image reverts on the next boot.
func (c *Client) FirmwareUpdate(data []byte, progress ProgressFunc) error {
	img, err := mcuboot.Parse(data)
	if err != nil {
		return fmt.Errorf("not a valid firmware image: %w", err)
	}
	hash, err := img.Hash()
	if err != nil {
		return err
	}

	c.log.WithFields(map[string]any{
		"version": img.VersionWithHash(),
		"size":    len(data),
	}).Info("uploading firmware image")

	state, err := c.ImageState()
	if err != nil {
		return err
	}
	if entry := matchesHash(state, hash); entry != nil && entry.Active {
		return fmt.Errorf("image %s is already running", img.VersionWithHash())
	}

	if err := c.ImageUpload(0, data, false, progress); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	c.log.WithField("hash", hex.EncodeToString(hash)).Info("marking image for test")
	if _, err := c.ImageTest(hash); err != nil {
		return fmt.Errorf("marking image for test failed: %w", err)
	}

	c.log.Info("rebooting device")
	if err := c.Reset(false); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	return nil
}
