package firmware

import (
	"fmt"

	"github.com/sampottinger/ljswitchboard/internal/util/errp"
)

// Sentinel errors for the pre-device stages. Use errors.Is against these.
var (
	// ErrInvalidImage is returned when the image file is too short to
	// contain a header.
	ErrInvalidImage = errp.New("firmware: invalid image file")

	// ErrParse is returned when a header field could not be decoded.
	ErrParse = errp.New("firmware: failed to parse image header")

	// ErrFetch is returned when fetching the image over HTTP(S) failed or
	// returned a non-2xx response.
	ErrFetch = errp.New("firmware: failed to fetch image")

	// ErrVersionDisagreement is returned when the filename-derived version
	// and the header's ContainedVersion disagree by more than 1e-3. Load
	// fails fast rather than letting the two sources of truth diverge
	// silently into the write stage.
	ErrVersionDisagreement = errp.New("firmware: filename version does not match header version")
)

// Sentinel causes for Incompatible, used with errors.Is against the Err
// field of an *IncompatibleError.
var (
	ErrIncompatibleMagic   = errp.New("firmware: header magic does not match device family")
	ErrIncompatibleDevice  = errp.New("firmware: intended device is not in the allowed set")
	ErrIncompatibleVersion = errp.New("firmware: contained version does not match declared version")
)

// IncompatibleError reports which compatibility predicate failed.
type IncompatibleError struct {
	Reason string
	Err    error
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("firmware: incompatible (%s): %v", e.Reason, e.Err)
}

// Unwrap allows errors.Is/errors.As to reach the underlying sentinel.
func (e *IncompatibleError) Unwrap() error { return e.Err }

// FlashIoError reports a failed chunk during a flashOp read or write.
type FlashIoError struct {
	Stage string // e.g. "writeImage", "readImageInfo"
	Chunk int    // zero-based chunk index
	Cause error
}

func (e *FlashIoError) Error() string {
	return fmt.Sprintf("firmware: flash I/O failed during %s at chunk %d: %v", e.Stage, e.Chunk, e.Cause)
}

func (e *FlashIoError) Unwrap() error { return e.Cause }

// EraseIncompleteError reports that a region did not read back as erased.
type EraseIncompleteError struct {
	Region string
	Offset int // word offset of the first non-erased word
	Got    uint32
}

func (e *EraseIncompleteError) Error() string {
	return fmt.Sprintf("firmware: erase incomplete in %s region at word offset %d: got 0x%08x, want 0xffffffff",
		e.Region, e.Offset, e.Got)
}

// WriteMismatchError reports the first byte offset where a post-write
// readback diverges from the source image.
type WriteMismatchError struct {
	Offset int
}

func (e *WriteMismatchError) Error() string {
	return fmt.Sprintf("firmware: write verification mismatch at byte offset %d", e.Offset)
}

// EnumerationTimeoutError reports that the device did not reappear on the
// bus before the configured deadline.
type EnumerationTimeoutError struct {
	Serial string
	Waited string
}

func (e *EnumerationTimeoutError) Error() string {
	return fmt.Sprintf("firmware: timed out after %s waiting for device %s to re-enumerate", e.Waited, e.Serial)
}

// VersionMismatchError reports that the post-reboot device's reported
// firmware version differs from the bundle's declared version.
type VersionMismatchError struct {
	Expected float64
	Got      float64
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("firmware: version mismatch after upgrade: expected %.4f, got %.4f", e.Expected, e.Got)
}

// ErrCancelled is returned when the caller's context is cancelled between
// cooperative checkpoints.
var ErrCancelled = errp.New("firmware: upgrade cancelled")

// Internal flashOp failure causes, wrapped inside FlashIoError.Cause.
var (
	errZeroBlockSize  = errp.New("firmware: block size must be non-zero")
	errNotWordAligned = errp.New("firmware: write buffer is not a multiple of 4 bytes")
	errBufferTooShort = errp.New("firmware: write buffer shorter than requested length")
	errShortRead      = errp.New("firmware: transport returned fewer words than requested")
)
