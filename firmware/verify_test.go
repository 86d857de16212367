package firmware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sampottinger/ljswitchboard/firmware/faketransport"
)

func TestCheckEraseAcceptsFreshlyErasedRegions(t *testing.T) {
	simDevice := faketransport.NewDevice("s1", 1.0, 0x1, 0x2, 0x3, 0x4)
	bundle := &Bundle{Device: simDevice}

	err := checkErase(context.Background(), bundle, 256)
	require.NoError(t, err)
}

func TestCheckEraseDetectsUnerasedPage(t *testing.T) {
	simDevice := faketransport.NewDevice("s2", 1.0, 0x1, 0x2, 0x3, 0x4)
	// write a non-sentinel word into the first page of the image region
	_, err := simDevice.RWMany(context.Background(), []RegisterOp{
		{Address: regFlashPointer, Direction: DirectionWrite, Value: 0},
		{Address: regFlashData, Direction: DirectionWrite, Value: 0x12345678},
	})
	require.NoError(t, err)

	bundle := &Bundle{Device: simDevice}
	err = checkErase(context.Background(), bundle, 256)
	var eraseErr *EraseIncompleteError
	require.ErrorAs(t, err, &eraseErr)
	assert.Equal(t, "image", eraseErr.Region)
}

// TestCheckRegionErasedReadsEveryWordNotJustPageStarts exercises
// checkRegionErased directly against a small region so a word that is
// neither the first word of its page nor the first page of the region can
// be corrupted without reading millions of sentinel words first. This
// guards against a sampling implementation that only inspects the first
// word of each page.
func TestCheckRegionErasedReadsEveryWordNotJustPageStarts(t *testing.T) {
	simDevice := faketransport.NewDevice("s2b", 1.0, 0x1, 0x2, 0x3, 0x4)
	region := regionDescriptor{
		name:        "image",
		baseAddress: imageRegion.baseAddress,
		pageCount:   2,
		pageWords:   4,
		pointerReg:  regFlashPointer,
		dataReg:     regFlashData,
		lengthWords: 8,
	}

	// corrupt word index 5: page 1, word offset 1 within the page - not the
	// first word of any page.
	_, err := simDevice.RWMany(context.Background(), []RegisterOp{
		{Address: regFlashPointer, Direction: DirectionWrite, Value: region.baseAddress + 5*4},
		{Address: regFlashData, Direction: DirectionWrite, Value: 0xCAFEBABE},
	})
	require.NoError(t, err)

	err = checkRegionErased(context.Background(), simDevice, region, 4)
	var eraseErr *EraseIncompleteError
	require.ErrorAs(t, err, &eraseErr)
	assert.Equal(t, 5, eraseErr.Offset)
	assert.Equal(t, uint32(0xCAFEBABE), eraseErr.Got)
}

func TestCheckImageAcceptsMatchingWrite(t *testing.T) {
	simDevice := faketransport.NewDevice("s3", 1.0, 0x1, 0x2, 0x3, 0x4)
	bundle := &Bundle{Device: simDevice, Image: []byte{1, 2, 3, 4, 5, 6, 7, 8}}

	require.NoError(t, writeImage(context.Background(), bundle, 4, nil))
	assert.NoError(t, checkImage(context.Background(), bundle, 4))
}

func TestCheckImageDetectsMismatch(t *testing.T) {
	simDevice := faketransport.NewDevice("s4", 1.0, 0x1, 0x2, 0x3, 0x4)
	bundle := &Bundle{Device: simDevice, Image: []byte{1, 2, 3, 4, 5, 6, 7, 8}}

	require.NoError(t, writeImage(context.Background(), bundle, 4, nil))
	bundle.Image = []byte{1, 2, 3, 4, 9, 9, 9, 9} // diverges from what was written

	err := checkImage(context.Background(), bundle, 4)
	var mismatch *WriteMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 4, mismatch.Offset)
}
