package firmware

import (
	"context"
	"time"

	"github.com/sampottinger/ljswitchboard/internal/util/logging"
)

// requestReboot writes the upgrade-request value to the device's upgrade
// request register, asking the bootloader to reboot into the freshly
// flashed image. A transport error here is non-fatal: the device may drop
// the connection mid-acknowledgement, which looks identical to a
// successful reboot from the host's side.
func requestReboot(ctx context.Context, bundle *Bundle) {
	log := logging.WithGroup("reboot").WithField("serial", bundle.Serial)
	if _, err := bundle.Device.RWMany(ctx, []RegisterOp{
		{Address: regUpgradeRequest, Direction: DirectionWrite, Value: upgradeRequestValue},
	}); err != nil {
		log.WithError(err).Debug("reboot request returned an error, proceeding anyway")
	}
}

// closeDevice releases the current transport handle. Best-effort: the
// device is about to disappear from the bus on its own, so a close error
// is logged and swallowed rather than propagated.
func closeDevice(bundle *Bundle) {
	log := logging.WithGroup("reboot").WithField("serial", bundle.Serial)
	if err := bundle.Device.Close(); err != nil {
		log.WithError(err).Debug("close returned an error, proceeding anyway")
	}
	bundle.Device = nil
}

// waitForReenumeration sleeps for opts.BootDelay to give the bootloader
// time to reboot into the new image, then polls the enumerator every
// opts.PollInterval for a device matching bundle.Serial, bounded by
// opts.EnumerationTimeout. On a serial match it attempts to Open the
// device; a failed open is treated as "not ready yet" and polling
// continues rather than failing the whole upgrade.
func waitForReenumeration(ctx context.Context, bundle *Bundle, enum Enumerator, opts Options) (Transport, error) {
	log := logging.WithGroup("reboot").WithField("serial", bundle.Serial)

	select {
	case <-time.After(opts.BootDelay):
	case <-ctx.Done():
		return nil, ErrCancelled
	}

	deadline := time.Now().Add(opts.EnumerationTimeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ErrCancelled
		default:
		}

		if time.Now().After(deadline) {
			return nil, &EnumerationTimeoutError{Serial: bundle.Serial, Waited: opts.EnumerationTimeout.String()}
		}

		serials, err := enum.ListSerials(ctx, FamilyT7, bundle.ConnectionType)
		if err != nil {
			log.WithError(err).Debug("enumeration poll failed, retrying")
		} else {
			for _, s := range serials {
				if s != bundle.Serial {
					continue
				}
				device, openErr := enum.Open(ctx, FamilyT7, bundle.ConnectionType, bundle.Serial)
				if openErr != nil {
					log.WithError(openErr).Debug("device enumerated but open failed, retrying")
					break
				}
				log.Debug("device re-enumerated")
				return device, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ErrCancelled
		case <-ticker.C:
		}
	}
}
