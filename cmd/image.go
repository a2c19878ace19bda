// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marten Veiten

package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mveiten/gomcumgr/pkg/mcuboot"
	"github.com/mveiten/gomcumgr/pkg/smp"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Firmware image management: state, upload, erase",
}

func printImageState(state smp.ImageStateResponse) error {
	s := newSection("")
	for _, img := range state.Images {
		sub := s.sub(fmt.Sprintf("image %d slot %d", img.Image, img.Slot))
		sub.add("version", img.Version)
		sub.add("hash", hex.EncodeToString(img.Hash))
		flags := ""
		for _, f := range []struct {
			name string
			set  bool
		}{
			{"bootable", img.Bootable},
			{"pending", img.Pending},
			{"confirmed", img.Confirmed},
			{"active", img.Active},
			{"permanent", img.Permanent},
		} {
			if f.set {
				if flags != "" {
					flags += ","
				}
				flags += f.name
			}
		}
		sub.add("flags", flags)
	}
	return s.print()
}

var imageStateCmd = &cobra.Command{
	Use:   "state",
	Short: "List firmware slots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		state, err := client.ImageState()
		if err != nil {
			return err
		}
		return printImageState(state)
	},
}

var imageTestCmd = &cobra.Command{
	Use:   "test HASH",
	Short: "Mark the image with the given hash to run on next boot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := hex.DecodeString(args[0])
		if err != nil {
			return fmt.Errorf("invalid hash %q: %w", args[0], err)
		}

		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		state, err := client.ImageTest(hash)
		if err != nil {
			return err
		}
		return printImageState(state)
	},
}

var imageConfirmCmd = &cobra.Command{
	Use:   "confirm [HASH]",
	Short: "Make an image permanent (the running one if no hash given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var hash []byte
		if len(args) == 1 {
			var err error
			hash, err = hex.DecodeString(args[0])
			if err != nil {
				return fmt.Errorf("invalid hash %q: %w", args[0], err)
			}
		}

		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		state, err := client.ImageConfirm(hash)
		if err != nil {
			return err
		}
		return printImageState(state)
	},
}

var (
	imageUploadImage   uint32
	imageUploadUpgrade bool
)

var imageUploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload a firmware image ('-' reads stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _, err := readInputFile(args[0])
		if err != nil {
			return err
		}
		img, err := mcuboot.Parse(data)
		if err != nil {
			return fmt.Errorf("%s is not a valid firmware image: %w", args[0], err)
		}
		log.WithField("version", img.VersionWithHash()).Info("parsed firmware image")

		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		progress, finish := newProgress(args[0])
		defer finish()
		return client.ImageUpload(imageUploadImage, data, imageUploadUpgrade, progress)
	},
}

var imageEraseSlot int32

var imageEraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase a firmware slot (the inactive one by default)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		var slot *uint32
		if imageEraseSlot >= 0 {
			s := uint32(imageEraseSlot)
			slot = &s
		}
		return client.ImageErase(slot)
	},
}

var imageSlotInfoCmd = &cobra.Command{
	Use:   "slot-info",
	Short: "Show slot geometry per image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		info, err := client.SlotInfo()
		if err != nil {
			return err
		}

		s := newSection("")
		for _, img := range info.Images {
			sub := s.sub(fmt.Sprintf("image %d", img.Image))
			for _, slot := range img.Slots {
				slotSec := sub.sub(fmt.Sprintf("slot %d", slot.Slot))
				slotSec.add("size", slot.Size)
				if slot.UploadImageID != nil {
					slotSec.add("upload image id", *slot.UploadImageID)
				}
			}
			if img.MaxImageSize != nil {
				sub.add("max image size", *img.MaxImageSize)
			}
		}
		return s.print()
	},
}

func init() {
	imageUploadCmd.Flags().Uint32Var(&imageUploadImage, "image", 0, "Image number to upload to")
	imageUploadCmd.Flags().BoolVar(&imageUploadUpgrade, "upgrade", false, "Only accept images newer than the running one")
	imageEraseCmd.Flags().Int32Var(&imageEraseSlot, "slot", -1, "Slot number to erase")

	imageCmd.AddCommand(imageStateCmd)
	imageCmd.AddCommand(imageTestCmd)
	imageCmd.AddCommand(imageConfirmCmd)
	imageCmd.AddCommand(imageUploadCmd)
	imageCmd.AddCommand(imageEraseCmd)
	imageCmd.AddCommand(imageSlotInfoCmd)
	rootCmd.AddCommand(imageCmd)
}
