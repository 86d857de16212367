package firmware

import "context"

// writeImage bulk-writes bundle.Image to the image region via flashOp,
// reporting fractional progress through progress.
func writeImage(ctx context.Context, bundle *Bundle, blockSize uint32, progress *rangeSink) error {
	key := imageRegion.writeKey
	return flashOp(ctx, bundle.Device, flashOpParams{
		stage:        "writeImage",
		region:       imageRegion.name,
		startAddress: imageRegion.baseAddress,
		length:       uint32(len(bundle.Image)) / 4,
		blockSize:    blockSize,
		pointerReg:   imageRegion.pointerReg,
		dataReg:      imageRegion.dataReg,
		direction:    DirectionWrite,
		key:          &key,
		keyReg:       regFlashKey,
		data:         bundle.Image,
		progress:     progress,
	})
}

// writeImageInfo bulk-writes the bundle's 128-byte header to the
// image-info region via flashOp.
func writeImageInfo(ctx context.Context, bundle *Bundle, headerBytes []byte, blockSize uint32, progress *rangeSink) error {
	key := imageInfoRegion.writeKey
	return flashOp(ctx, bundle.Device, flashOpParams{
		stage:        "writeImageInfo",
		region:       imageInfoRegion.name,
		startAddress: imageInfoRegion.baseAddress,
		length:       uint32(len(headerBytes)) / 4,
		blockSize:    blockSize,
		pointerReg:   imageInfoRegion.pointerReg,
		dataReg:      imageInfoRegion.dataReg,
		direction:    DirectionWrite,
		key:          &key,
		keyReg:       regFlashKey,
		data:         headerBytes,
		progress:     progress,
	})
}

// readImage bulk-reads lengthWords words starting at the image region's
// base address, for use by checkImage verification.
func readImage(ctx context.Context, bundle *Bundle, lengthWords uint32, blockSize uint32) ([]byte, error) {
	buf := make([]byte, lengthWords*4)
	err := flashOp(ctx, bundle.Device, flashOpParams{
		stage:        "readImage",
		region:       imageRegion.name,
		startAddress: imageRegion.baseAddress,
		length:       lengthWords,
		blockSize:    blockSize,
		pointerReg:   imageRegion.pointerReg,
		dataReg:      imageRegion.dataReg,
		direction:    DirectionRead,
		data:         buf,
	})
	return buf, err
}

// readImageInfo bulk-reads lengthWords words starting at the image-info
// region's base address. checkErase does not use it: it reads both regions
// through checkRegionErased.
func readImageInfo(ctx context.Context, bundle *Bundle, lengthWords uint32, blockSize uint32) ([]byte, error) {
	buf := make([]byte, lengthWords*4)
	err := flashOp(ctx, bundle.Device, flashOpParams{
		stage:        "readImageInfo",
		region:       imageInfoRegion.name,
		startAddress: imageInfoRegion.baseAddress,
		length:       lengthWords,
		blockSize:    blockSize,
		pointerReg:   imageInfoRegion.pointerReg,
		dataReg:      imageInfoRegion.dataReg,
		direction:    DirectionRead,
		data:         buf,
	})
	return buf, err
}
