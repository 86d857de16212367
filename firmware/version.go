package firmware

import (
	"context"
	"math"

	"github.com/sampottinger/ljswitchboard/internal/util/logging"
)

// versionTolerance is the maximum allowed difference between the declared
// firmware version and the value the device reports after reboot, to
// absorb float32 truncation noise.
const versionTolerance = 1e-4

// confirmVersion reads the post-reboot device's firmware version register
// and compares it against expected (the pipeline passes the bundle's
// FirmwareVersion). Values are encoded the
// same way as the header's ContainedVersion field: a big-endian IEEE-754
// float32.
func confirmVersion(ctx context.Context, device Transport, expected float64) error {
	raw, err := device.ReadRegister(ctx, regFirmwareVersion)
	if err != nil {
		return err
	}
	got := truncate4(float64(math.Float32frombits(raw)))

	log := logging.WithGroup("version")
	log.WithField("expected", expected).WithField("got", got).Debug("post-upgrade version check")

	if math.Abs(got-expected) > versionTolerance {
		return &VersionMismatchError{Expected: expected, Got: got}
	}
	return nil
}
