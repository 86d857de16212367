package firmware

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkCountingDevice wraps a real Transport and counts how many RWMany
// calls were made, so tests can assert on chunking behaviour.
type chunkCountingDevice struct {
	Transport
	calls int
}

func (d *chunkCountingDevice) RWMany(ctx context.Context, ops []RegisterOp) ([]uint32, error) {
	d.calls++
	return d.Transport.RWMany(ctx, ops)
}

func newFakeFlashDevice() *fakeFlashTransport {
	return &fakeFlashTransport{data: make(map[uint32]uint32)}
}

// fakeFlashTransport is a minimal standalone Transport double for flashio
// tests that don't need a full simulated device (see package
// faketransport for the complete one used by pipeline tests).
type fakeFlashTransport struct {
	data    map[uint32]uint32
	pointer uint32
}

func (f *fakeFlashTransport) WriteRegister(ctx context.Context, addr, value uint32) error {
	_, err := f.RWMany(ctx, []RegisterOp{{Address: addr, Direction: DirectionWrite, Value: value}})
	return err
}

func (f *fakeFlashTransport) ReadRegister(ctx context.Context, addr uint32) (uint32, error) {
	results, err := f.RWMany(ctx, []RegisterOp{{Address: addr, Direction: DirectionRead}})
	if err != nil {
		return 0, err
	}
	return results[0], nil
}

func (f *fakeFlashTransport) RWMany(ctx context.Context, ops []RegisterOp) ([]uint32, error) {
	var results []uint32
	for _, op := range ops {
		switch op.Address {
		case regFlashPointer:
			if op.Direction == DirectionWrite {
				f.pointer = op.Value
			}
		case regFlashKey:
			// no-op: this double does not enforce permission keys
		case regFlashData:
			if op.Direction == DirectionWrite {
				f.data[f.pointer] = op.Value
				f.pointer += 4
			} else {
				results = append(results, f.data[f.pointer])
				f.pointer += 4
			}
		}
	}
	return results, nil
}

func (f *fakeFlashTransport) Close() error { return nil }

func TestFlashOpWriteThenReadRoundTrips(t *testing.T) {
	device := &chunkCountingDevice{Transport: newFakeFlashDevice()}

	payload := make([]byte, 4*37) // 37 words, not a multiple of blockSize
	rand.New(rand.NewSource(1)).Read(payload)

	err := flashOp(context.Background(), device, flashOpParams{
		stage:        "test-write",
		region:       "image",
		startAddress: 0,
		length:       37,
		blockSize:    8,
		pointerReg:   regFlashPointer,
		dataReg:      regFlashData,
		direction:    DirectionWrite,
		data:         payload,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, device.calls) // 4 full chunks of 8 + 1 remainder chunk of 5

	device.calls = 0
	readBuf := make([]byte, 4*37)
	err = flashOp(context.Background(), device, flashOpParams{
		stage:        "test-read",
		region:       "image",
		startAddress: 0,
		length:       37,
		blockSize:    8,
		pointerReg:   regFlashPointer,
		dataReg:      regFlashData,
		direction:    DirectionRead,
		data:         readBuf,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, device.calls)
	assert.True(t, bytes.Equal(payload, readBuf))
}

func TestFlashOpExactMultipleOfBlockSize(t *testing.T) {
	device := &chunkCountingDevice{Transport: newFakeFlashDevice()}
	payload := make([]byte, 4*16)

	err := flashOp(context.Background(), device, flashOpParams{
		stage:        "test",
		region:       "image",
		startAddress: 0,
		length:       16,
		blockSize:    8,
		pointerReg:   regFlashPointer,
		dataReg:      regFlashData,
		direction:    DirectionWrite,
		data:         payload,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, device.calls)
}

func TestFlashOpRejectsZeroBlockSize(t *testing.T) {
	device := newFakeFlashDevice()
	err := flashOp(context.Background(), device, flashOpParams{
		length:    4,
		blockSize: 0,
		direction: DirectionRead,
	})
	require.Error(t, err)
	var fioErr *FlashIoError
	require.ErrorAs(t, err, &fioErr)
}

func TestFlashOpRejectsShortWriteBuffer(t *testing.T) {
	device := newFakeFlashDevice()
	err := flashOp(context.Background(), device, flashOpParams{
		length:    10,
		blockSize: 4,
		direction: DirectionWrite,
		data:      make([]byte, 4), // far too short
	})
	require.Error(t, err)
}

func TestFlashOpPropagatesTransportError(t *testing.T) {
	device := &erroringTransport{}
	err := flashOp(context.Background(), device, flashOpParams{
		length:    4,
		blockSize: 4,
		direction: DirectionRead,
	})
	var fioErr *FlashIoError
	require.ErrorAs(t, err, &fioErr)
	assert.Equal(t, 0, fioErr.Chunk)
}

type erroringTransport struct{}

func (erroringTransport) WriteRegister(ctx context.Context, addr, value uint32) error { return nil }
func (erroringTransport) ReadRegister(ctx context.Context, addr uint32) (uint32, error) {
	return 0, nil
}
func (erroringTransport) RWMany(ctx context.Context, ops []RegisterOp) ([]uint32, error) {
	return nil, assert.AnError
}
func (erroringTransport) Close() error { return nil }
