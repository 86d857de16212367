package firmware

import (
	"context"

	"github.com/sampottinger/ljswitchboard/internal/util/logging"
)

// erasePages erases every page of region in sequence, writing (key, page
// address) to the region's erase register for each one. Erase is its own
// register protocol rather than flashOp: each page erase is a pair of
// writes, not a streaming block of words.
func erasePages(ctx context.Context, device Transport, region regionDescriptor, progress *rangeSink) error {
	log := logging.WithGroup("erase").WithField("region", region.name)
	for page := 0; page < region.pageCount; page++ {
		select {
		case <-ctx.Done():
			return ErrCancelled
		default:
		}

		pageAddress := region.baseAddress + uint32(page)*region.pageWords*4
		ops := []RegisterOp{
			{Address: regFlashKey, Direction: DirectionWrite, Value: region.eraseKey},
			{Address: region.eraseReg, Direction: DirectionWrite, Value: pageAddress},
		}
		if _, err := device.RWMany(ctx, ops); err != nil {
			return &FlashIoError{Stage: "erase" + region.name, Chunk: page, Cause: err}
		}
		if progress != nil {
			progress.reportFraction(float64(page+1) / float64(region.pageCount))
		}
	}
	log.Debug("region erase complete")
	return nil
}

// eraseImage erases every page of the image region.
func eraseImage(ctx context.Context, bundle *Bundle, progress *rangeSink) error {
	return erasePages(ctx, bundle.Device, imageRegion, progress)
}

// eraseImageInfo erases every page of the image-info region.
func eraseImageInfo(ctx context.Context, bundle *Bundle, progress *rangeSink) error {
	return erasePages(ctx, bundle.Device, imageInfoRegion, progress)
}
