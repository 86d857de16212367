package firmware

import (
	"bytes"
	"context"
	"encoding/binary"
)

// eraseSentinel is the 32-bit value every word of erased flash reads back.
const eraseSentinel uint32 = 0xFFFFFFFF

// checkErase reads back every word of both regions and requires each one to
// equal eraseSentinel. This is the full-region readback the spec's erase
// verification calls for, not a per-page sample: a sparse check (e.g. one
// word per page) would pass a device that silently failed to erase anything
// but the sampled word, which defeats the point of the check.
func checkErase(ctx context.Context, bundle *Bundle, blockSize uint32) error {
	if err := checkRegionErased(ctx, bundle.Device, imageRegion, blockSize); err != nil {
		return err
	}
	return checkRegionErased(ctx, bundle.Device, imageInfoRegion, blockSize)
}

func checkRegionErased(ctx context.Context, device Transport, region regionDescriptor, blockSize uint32) error {
	buf := make([]byte, region.lengthWords*4)
	if err := flashOp(ctx, device, flashOpParams{
		stage:        "verify-erase-" + region.name,
		region:       region.name,
		startAddress: region.baseAddress,
		length:       region.lengthWords,
		blockSize:    blockSize,
		pointerReg:   region.pointerReg,
		dataReg:      region.dataReg,
		direction:    DirectionRead,
		data:         buf,
	}); err != nil {
		return err
	}

	be := binary.BigEndian
	for i := 0; i+4 <= len(buf); i += 4 {
		if word := be.Uint32(buf[i : i+4]); word != eraseSentinel {
			return &EraseIncompleteError{Region: region.name, Offset: i / 4, Got: word}
		}
	}
	return nil
}

// checkImage reads back the image region and compares it byte-for-byte to
// bundle.Image. Optional, gated by Options.VerifyImage.
func checkImage(ctx context.Context, bundle *Bundle, blockSize uint32) error {
	lengthWords := uint32(len(bundle.Image)) / 4
	readBack, err := readImage(ctx, bundle, lengthWords, blockSize)
	if err != nil {
		return err
	}
	if !bytes.Equal(readBack, bundle.Image) {
		for i := range readBack {
			if readBack[i] != bundle.Image[i] {
				return &WriteMismatchError{Offset: i}
			}
		}
	}
	return nil
}
