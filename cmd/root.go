// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marten Veiten

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mveiten/gomcumgr/pkg/mcumgr"
)

var (
	// Serial connection flags
	portName    string
	baudRate    int
	usbSelector string

	// WebSocket connection flags
	wsURL         string
	wsNoSSLVerify bool

	// Protocol flags
	frameSize     int
	autoFrameSize bool
	timeoutMS     int
	smpVersion    uint8

	// Output flags
	quiet      bool
	verbose    int
	jsonOutput bool

	configFile string

	log = logrus.New()
)

// fileConfig provides flag defaults from a YAML file.
type fileConfig struct {
	Port      string `yaml:"port"`
	Baud      int    `yaml:"baud"`
	USB       string `yaml:"usb"`
	URL       string `yaml:"url"`
	FrameSize int    `yaml:"frame_size"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

var rootCmd = &cobra.Command{
	Use:   "gomcumgr",
	Short: "MCUmgr device management over serial",
	Long: `gomcumgr - manage MCUmgr-enabled devices over a serial console.

Talks the SMP protocol framed for the device console: firmware updates,
file transfer, shell access, device info and reboot.

Connection modes:
  Serial:    --port /dev/ttyACM0 [--baud 115200]
  USB:       --usb VID:PID[:index]   (see 'gomcumgr list')
  WebSocket: --url ws://host/path    (serial-over-network gateways)`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetOutput(os.Stderr)
		switch {
		case verbose >= 2:
			log.SetLevel(logrus.TraceLevel)
		case verbose == 1:
			log.SetLevel(logrus.DebugLevel)
		case quiet:
			log.SetLevel(logrus.ErrorLevel)
		default:
			log.SetLevel(logrus.InfoLevel)
		}
		return applyConfigFile(cmd)
	},
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")
	rootCmd.PersistentFlags().StringVarP(&usbSelector, "usb", "U", "", "USB serial device as VID:PID[:index]")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Protocol flags
	rootCmd.PersistentFlags().IntVar(&frameSize, "frame-size", mcumgr.DefaultFrameSize, "Maximum SMP frame size in bytes")
	rootCmd.PersistentFlags().BoolVar(&autoFrameSize, "auto-frame-size", false, "Adopt the device's buffer size as frame size")
	rootCmd.PersistentFlags().IntVar(&timeoutMS, "timeout", 2000, "Per-request timeout in milliseconds")
	rootCmd.PersistentFlags().Uint8Var(&smpVersion, "smp-version", 1, "SMP protocol version to send (0-1)")

	// Output flags
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "No progress output, errors only")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "Verbose logging (repeat for trace)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Structured output as JSON")

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file with flag defaults")
}

// applyConfigFile fills flag values from the config file for flags the
// user did not set on the command line.
func applyConfigFile(cmd *cobra.Command) error {
	if configFile == "" {
		return nil
	}
	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("config file %s: %w", configFile, err)
	}

	flags := cmd.Flags()
	if cfg.Port != "" && !flags.Changed("port") {
		portName = cfg.Port
	}
	if cfg.Baud != 0 && !flags.Changed("baud") {
		baudRate = cfg.Baud
	}
	if cfg.USB != "" && !flags.Changed("usb") {
		usbSelector = cfg.USB
	}
	if cfg.URL != "" && !flags.Changed("url") {
		wsURL = cfg.URL
	}
	if cfg.FrameSize != 0 && !flags.Changed("frame-size") {
		frameSize = cfg.FrameSize
	}
	if cfg.TimeoutMS != 0 && !flags.Changed("timeout") {
		timeoutMS = cfg.TimeoutMS
	}
	return nil
}

// openClient connects to the device per the connection flags and
// applies the protocol flags.
func openClient() (*mcumgr.Client, error) {
	var (
		client *mcumgr.Client
		err    error
	)
	switch {
	case wsURL != "":
		client, err = mcumgr.NewWebSocketClient(wsURL, wsNoSSLVerify, log)
	case usbSelector != "":
		client, err = mcumgr.NewUSBSerialClient(usbSelector, baudRate, log)
	case portName != "":
		client, err = mcumgr.NewSerialClient(portName, baudRate, log)
	default:
		return nil, fmt.Errorf("one of --port, --usb or --url must be specified")
	}
	if err != nil {
		return nil, err
	}

	client.SetTimeout(time.Duration(timeoutMS) * time.Millisecond)
	if err := client.SetVersion(smpVersion); err != nil {
		client.Close()
		return nil, err
	}
	if err := client.SetFrameSize(frameSize); err != nil {
		client.Close()
		return nil, err
	}
	if autoFrameSize {
		size, err := client.UseAutoFrameSize()
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("querying device buffer size: %w", err)
		}
		log.WithField("frame_size", size).Debug("adopted device frame size")
	}
	return client, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
