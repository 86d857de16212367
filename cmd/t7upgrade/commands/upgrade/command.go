// Package upgrade implements the "upgrade" verb of the t7upgrade CLI.
package upgrade

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sampottinger/ljswitchboard/cmd/t7upgrade/commands"
	"github.com/sampottinger/ljswitchboard/device"
	"github.com/sampottinger/ljswitchboard/device/event"
	"github.com/sampottinger/ljswitchboard/firmware"
	"github.com/sampottinger/ljswitchboard/firmware/faketransport"
)

var _ commands.Command = (*Command)(nil)

// Command flashes a new image to a single T7-family device and waits for
// it to come back up.
//
// There is no USB/Ethernet transport backend in this build: a real
// deployment supplies one by constructing its own firmware.Enumerator and
// calling device.New/UpgradeFirmware directly (see package device). This
// CLI's --dry-run mode exercises the identical pipeline against an
// in-memory simulated device, useful for validating an image file and
// watching progress reporting before touching hardware.
type Command struct {
	ImagePath          string        `description:"path or http(s) URL of the firmware image" required:"true" short:"f" long:"image"`
	Serial             string        `description:"serial number of the target device" required:"true" short:"s" long:"serial"`
	Connection         string        `description:"connection type: usb, ethernet, or any" default:"any" long:"connection"`
	DryRun             bool          `description:"run the pipeline against a simulated device instead of hardware" long:"dry-run"`
	VerifyImage        bool          `description:"byte-compare flash contents back against the image after writing" long:"verify"`
	EnumerationTimeout time.Duration `description:"how long to wait for the device to reappear after reboot" default:"60s" long:"enum-timeout"`
}

// ShortDescription implements commands.Command.
func (cmd *Command) ShortDescription() string {
	return "flash a new firmware image to a T7-family device"
}

// LongDescription implements commands.Command.
func (cmd *Command) LongDescription() string {
	return "Loads an image, validates it against the target device family, erases and " +
		"reprograms flash, reboots the device, and confirms the new firmware version."
}

// Execute implements flags.Commander.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("t7upgrade upgrade: unexpected extra arguments: %v", args)
	}
	if !cmd.DryRun {
		return fmt.Errorf("t7upgrade upgrade: no hardware transport backend is registered in this build; pass --dry-run, or call firmware.UpdateFirmware directly with your own firmware.Enumerator")
	}

	connType := connectionFromFlag(cmd.Connection)

	ctx := context.Background()
	opts := firmware.NewOptions(
		firmware.WithVerifyImage(cmd.VerifyImage),
		firmware.WithEnumerationTimeout(cmd.EnumerationTimeout),
	)
	bundle, err := firmware.Load(ctx, cmd.ImagePath, opts)
	if err != nil {
		return fmt.Errorf("t7upgrade upgrade: %w", err)
	}

	simDevice := faketransport.NewDevice(cmd.Serial, 0, 0x4C4A0001, 0x4C4A0002, 0x4C4A0003, 0x4C4A0004)
	enum := faketransport.NewEnumerator(simDevice)
	go simulateReboot(simDevice, float32(bundle.FirmwareVersion))

	wrapped := device.New(simDevice, cmd.Serial, connType, enum)
	wrapped.SetOnEvent(func(e event.Event, meta interface{}) {
		switch e {
		case event.EventStatusChanged:
			status, _ := meta.(*event.Status)
			if status != nil && status.Text != "" {
				fmt.Fprintf(os.Stderr, "[%5.1f%%] %s\n", status.Percent, status.Text)
			}
		case event.EventUpgradeSucceeded:
			fmt.Fprintln(os.Stderr, "upgrade succeeded")
		case event.EventUpgradeFailed:
			fmt.Fprintf(os.Stderr, "upgrade failed: %v\n", meta)
		}
	})

	return wrapped.UpgradeFirmware(ctx, cmd.ImagePath,
		firmware.WithVerifyImage(cmd.VerifyImage),
		firmware.WithEnumerationTimeout(cmd.EnumerationTimeout),
	)
}

// simulateReboot stands in for real bootloader firmware: once the pipeline
// requests a reboot, it briefly "disconnects" the simulated device and
// brings it back reporting the newly flashed version, so --dry-run
// exercises the full pipeline including re-enumeration and confirmVersion.
func simulateReboot(simDevice *faketransport.Device, newVersion float32) {
	for !simDevice.RebootRequested() {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	simDevice.Reboot(newVersion)
}

func connectionFromFlag(s string) firmware.ConnectionType {
	switch s {
	case "usb":
		return firmware.ConnectionUSB
	case "ethernet":
		return firmware.ConnectionEthernet
	default:
		return firmware.ConnectionAny
	}
}
