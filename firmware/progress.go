package firmware

// ProgressSink receives progress updates from a single upgrade. percent is
// monotonically non-decreasing across one upgrade and reaches exactly 100
// on success. Implementations must not perform slow work in either
// callback: the pipeline invokes them synchronously and treats them as
// non-blocking.
type ProgressSink interface {
	// Update reports overall progress, in percent, and whether the
	// upgrade has finished (successfully or not).
	Update(percent float64, done bool)

	// DisplayStatusText reports a human-readable label for the current
	// stage (e.g. "Erasing image…", "Waiting for device…").
	DisplayStatusText(text string, done bool)
}

// NopProgressSink discards all progress updates. Useful for callers that
// don't care about progress or for tests that only assert on the returned
// error.
type NopProgressSink struct{}

// Update implements ProgressSink.
func (NopProgressSink) Update(float64, bool) {}

// DisplayStatusText implements ProgressSink.
func (NopProgressSink) DisplayStatusText(string, bool) {}

// rangeSink scopes a ProgressSink to a sub-range [min, max] of the global
// 0-100 progress scale, so a long-running step (writeImage, writeImageInfo)
// can report its own internal 0..total counter without knowing where it
// sits in the overall pipeline. Carried as an explicit value rather than
// process-wide mutable state, so nothing needs locking in single-pipeline
// use.
type rangeSink struct {
	sink     ProgressSink
	min, max float64
}

// newRangeSink returns a rangeSink that linearly maps a fraction in [0, 1]
// onto [min, max] of the parent sink's scale.
func newRangeSink(sink ProgressSink, min, max float64) *rangeSink {
	return &rangeSink{sink: sink, min: min, max: max}
}

// reportFraction reports progress as a fraction (0..1) of this step's
// sub-range, mapped onto the parent sink's global scale.
func (r *rangeSink) reportFraction(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	percent := r.min + fraction*(r.max-r.min)
	r.sink.Update(percent, false)
}

// checkpoint reports the sub-range's own minimum, used to emit a fixed
// checkpoint immediately on entry to a step.
func (r *rangeSink) checkpoint() {
	r.sink.Update(r.min, false)
}
