package firmware_test

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sampottinger/ljswitchboard/firmware"
	"github.com/sampottinger/ljswitchboard/firmware/faketransport"
)

// recordingSink collects every Update/DisplayStatusText call so tests can
// assert on monotonicity and the final state.
type recordingSink struct {
	percents []float64
	texts    []string
	doneSeen bool
}

func (s *recordingSink) Update(percent float64, done bool) {
	s.percents = append(s.percents, percent)
	if done {
		s.doneSeen = true
	}
}

func (s *recordingSink) DisplayStatusText(text string, done bool) {
	s.texts = append(s.texts, text)
}

// writeImageFile writes a fixture image (header + payload) to a temp file
// named so versionFromFilename/Check agree on version "declaredVersion",
// and returns its path.
func writeImageFile(t *testing.T, declaredVersion int, headerVersion float32, headerCode, intendedDevice uint32, payload []byte) string {
	t.Helper()
	raw := rawTestHeader(headerCode, intendedDevice, headerVersion, 1.0)
	raw = append(raw, payload...)

	name := fmt.Sprintf("firmware_%d_test.bin", declaredVersion)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func newSimDevice(serial string, initialVersion float32) *faketransport.Device {
	return faketransport.NewDevice(serial, initialVersion, 0x4C4A0001, 0x4C4A0002, 0x4C4A0003, 0x4C4A0004)
}

func TestUpdateFirmwareHappyPath(t *testing.T) {
	payload := make([]byte, 4*64)
	for i := range payload {
		payload[i] = byte(i)
	}
	path := writeImageFile(t, 10203, 1.0203, 0x00A17001, 7, payload)

	simDevice := newSimDevice("470012345", 1.0000)
	enum := faketransport.NewEnumerator(simDevice)

	go func() {
		for !simDevice.RebootRequested() {
			time.Sleep(time.Millisecond)
		}
		time.Sleep(5 * time.Millisecond)
		simDevice.Reboot(1.0203)
	}()

	sink := &recordingSink{}
	newTransport, err := firmware.UpdateFirmware(
		context.Background(), simDevice, "470012345", firmware.ConnectionUSB, enum,
		path, sink,
		firmware.WithVerifyImage(true),
		firmware.WithBootDelay(time.Millisecond),
		firmware.WithPollInterval(time.Millisecond),
		firmware.WithEnumerationTimeout(time.Second),
	)
	require.NoError(t, err)
	require.NotNil(t, newTransport)
	assert.True(t, sink.doneSeen)
	assert.Equal(t, float64(100), sink.percents[len(sink.percents)-1])
}

func TestUpdateFirmwareRejectsFilenameVersionDisagreement(t *testing.T) {
	payload := make([]byte, 16)
	// filename says 1.0203 but header says 1.0999
	path := writeImageFile(t, 10203, 1.0999, 0x00A17001, 7, payload)

	simDevice := newSimDevice("470000001", 1.0000)
	enum := faketransport.NewEnumerator(simDevice)

	_, err := firmware.UpdateFirmware(context.Background(), simDevice, "470000001", firmware.ConnectionUSB, enum, path, nil)
	assert.ErrorIs(t, err, firmware.ErrVersionDisagreement)
}

func TestUpdateFirmwareRejectsWrongDeviceFamily(t *testing.T) {
	payload := make([]byte, 16)
	path := writeImageFile(t, 10000, 1.0, 0x00A17001, 99, payload) // unknown IntendedDevice

	simDevice := newSimDevice("470000002", 1.0000)
	enum := faketransport.NewEnumerator(simDevice)

	sink := &recordingSink{}
	_, err := firmware.UpdateFirmware(context.Background(), simDevice, "470000002", firmware.ConnectionUSB, enum, path, sink)
	var incompat *firmware.IncompatibleError
	require.ErrorAs(t, err, &incompat)
	assert.ErrorIs(t, err, firmware.ErrIncompatibleDevice)

	// Compatibility never passed, so the "loaded" checkpoint must never have
	// fired: progress should only ever have dropped to 0 on failure, not
	// regressed from a checkpoint already reached.
	for _, p := range sink.percents {
		assert.Zero(t, p)
	}
}

func TestUpdateFirmwareRejectsTruncatedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firmware_10000_test.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 10), 0o600))

	simDevice := newSimDevice("470000003", 1.0000)
	enum := faketransport.NewEnumerator(simDevice)

	_, err := firmware.UpdateFirmware(context.Background(), simDevice, "470000003", firmware.ConnectionUSB, enum, path, nil)
	assert.ErrorIs(t, err, firmware.ErrInvalidImage)
}

func TestUpdateFirmwareFailsOnReenumerationTimeout(t *testing.T) {
	payload := make([]byte, 16)
	path := writeImageFile(t, 10000, 1.0000, 0x00A17001, 7, payload)

	simDevice := newSimDevice("470000004", 1.0000)
	enum := faketransport.NewEnumerator(simDevice)
	// No background reboot goroutine: the device never comes back.

	_, err := firmware.UpdateFirmware(
		context.Background(), simDevice, "470000004", firmware.ConnectionUSB, enum, path, nil,
		firmware.WithBootDelay(time.Millisecond),
		firmware.WithPollInterval(time.Millisecond),
		firmware.WithEnumerationTimeout(20*time.Millisecond),
	)
	var timeoutErr *firmware.EnumerationTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}

func TestUpdateFirmwareFailsOnMidWriteChunkFailure(t *testing.T) {
	payload := make([]byte, 4*64)
	path := writeImageFile(t, 10000, 1.0000, 0x00A17001, 7, payload)

	simDevice := newSimDevice("470000005", 1.0000)
	enum := faketransport.NewEnumerator(simDevice)
	// The 8 image-info pages and 512 image pages are erased first, one
	// RWMany each; with a 4-word block the 64-word payload is then written
	// in 16 chunks, and the third of them (chunk index 2) fails.
	device := &failOnCall{Transport: simDevice, failAt: 8 + 512 + 3}

	_, err := firmware.UpdateFirmware(context.Background(), device, "470000005", firmware.ConnectionUSB, enum, path, nil,
		firmware.WithBlockSize(4))
	var fioErr *firmware.FlashIoError
	require.ErrorAs(t, err, &fioErr)
	assert.Equal(t, "writeImage", fioErr.Stage)
	assert.Equal(t, 2, fioErr.Chunk)
}

// failOnCall passes every call through to Transport except the failAt-th
// RWMany call (1-based), which fails with a simulated transport error.
type failOnCall struct {
	firmware.Transport
	calls, failAt int
}

func (f *failOnCall) RWMany(ctx context.Context, ops []firmware.RegisterOp) ([]uint32, error) {
	f.calls++
	if f.calls == f.failAt {
		return nil, assertAnError{}
	}
	return f.Transport.RWMany(ctx, ops)
}

type assertAnError struct{}

func (assertAnError) Error() string { return "simulated transport failure" }

func rawTestHeader(headerCode, intendedDevice uint32, contained, required float32) []byte {
	buf := make([]byte, 128)
	putBE32(buf, 0, headerCode)
	putBE32(buf, 4, intendedDevice)
	putBE32(buf, 8, floatBits(contained))
	putBE32(buf, 12, floatBits(required))
	putBE32(buf, 24, 0) // LengthOfImage, unused by the test harness
	return buf
}

func putBE32(buf []byte, offset int, v uint32) {
	buf[offset] = byte(v >> 24)
	buf[offset+1] = byte(v >> 16)
	buf[offset+2] = byte(v >> 8)
	buf[offset+3] = byte(v)
}

func floatBits(f float32) uint32 {
	return math.Float32bits(f)
}
