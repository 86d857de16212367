package firmware

import (
	"context"
	"time"

	"github.com/sampottinger/ljswitchboard/internal/metrics"
	"github.com/sampottinger/ljswitchboard/internal/util/logging"
)

// Checkpoints, in percent, emitted at the start of each pipeline stage.
const (
	checkpointLoaded    = 10
	checkpointErased    = 30
	checkpointWritten   = 85
	checkpointRebooted  = 90
	checkpointConfirmed = 100
)

// UpdateFirmware runs the full upgrade pipeline against an already-open
// device: load and validate the image, erase and reprogram both flash
// regions, reboot the device, wait for it to re-enumerate, and confirm the
// new firmware version. On success it returns the new Transport handle
// obtained after re-enumeration; the caller is responsible for closing it.
//
// device/serial/connType describe the currently open connection; enum is
// used only after the reboot, to find and reopen the same physical device.
func UpdateFirmware(
	ctx context.Context,
	device Transport,
	serial string,
	connType ConnectionType,
	enum Enumerator,
	source string,
	sink ProgressSink,
	opts ...Option,
) (result Transport, err error) {
	if sink == nil {
		sink = NopProgressSink{}
	}
	o := NewOptions(opts...)
	log := logging.WithGroup("pipeline").WithField("serial", serial)

	start := time.Now()
	outcome := "success"
	defer func() {
		metrics.UpgradeDuration.Observe(time.Since(start).Seconds())
		metrics.UpgradeAttempts.WithLabelValues(outcome).Inc()
	}()

	fail := func(stage string, e error) (Transport, error) {
		outcome = "failure"
		log.WithField("stage", stage).WithError(e).Error("upgrade failed")
		sink.DisplayStatusText("Upgrade failed: "+e.Error(), true)
		sink.Update(0, true)
		return nil, e
	}

	sink.DisplayStatusText("Loading image…", false)
	bundle, err := Load(ctx, source, o)
	if err != nil {
		return fail("load", err)
	}
	bundle.Device = device
	bundle.Serial = serial
	bundle.ConnectionType = connType

	sink.DisplayStatusText("Checking compatibility…", false)
	if _, err := Check(bundle); err != nil {
		return fail("compat", err)
	}
	sink.Update(checkpointLoaded, false)

	if err := checkCancelled(ctx); err != nil {
		return fail("erase", err)
	}
	sink.DisplayStatusText("Erasing flash…", false)
	eraseMid := float64(checkpointLoaded) + float64(checkpointErased-checkpointLoaded)/2
	if err := eraseImageInfo(ctx, bundle, newRangeSink(sink, checkpointLoaded, eraseMid)); err != nil {
		return fail("erase-image-info", err)
	}
	if err := eraseImage(ctx, bundle, newRangeSink(sink, eraseMid, checkpointErased)); err != nil {
		return fail("erase-image", err)
	}
	if o.VerifyImage {
		if err := checkErase(ctx, bundle, o.BlockSize); err != nil {
			return fail("verify-erase", err)
		}
	}
	sink.Update(checkpointErased, false)

	if err := checkCancelled(ctx); err != nil {
		return fail("write", err)
	}
	sink.DisplayStatusText("Writing image…", false)
	writeMid := float64(checkpointErased) + float64(checkpointWritten-checkpointErased)*9/10
	if err := writeImage(ctx, bundle, o.BlockSize, newRangeSink(sink, checkpointErased, writeMid)); err != nil {
		return fail("write-image", err)
	}
	if err := writeImageInfo(ctx, bundle, encodeHeader(bundle.Header), o.BlockSize, newRangeSink(sink, writeMid, checkpointWritten)); err != nil {
		return fail("write-image-info", err)
	}

	if o.VerifyImage {
		sink.DisplayStatusText("Verifying write…", false)
		if err := checkImage(ctx, bundle, o.BlockSize); err != nil {
			return fail("verify", err)
		}
	}
	sink.Update(checkpointWritten, false)

	sink.DisplayStatusText("Rebooting device…", false)
	requestReboot(ctx, bundle)
	closeDevice(bundle)
	sink.Update(checkpointRebooted, false)

	sink.DisplayStatusText("Waiting for device to reconnect…", false)
	newDevice, err := waitForReenumeration(ctx, bundle, enum, o)
	if err != nil {
		return fail("reenumerate", err)
	}
	bundle.Device = newDevice

	sink.DisplayStatusText("Confirming version…", false)
	if err := confirmVersion(ctx, bundle.Device, bundle.FirmwareVersion); err != nil {
		return fail("confirm-version", err)
	}

	sink.Update(checkpointConfirmed, true)
	sink.DisplayStatusText("Upgrade complete", true)
	log.Debug("upgrade complete")
	return bundle.Device, nil
}

func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ErrCancelled
	default:
		return nil
	}
}

