package logging

import "strings"

// ProgressSampler throttles progress logging to stage changes and percentage
// bucket crossings.
type ProgressSampler struct {
	bucketSize float64
	lastStage  string
	lastBucket int
}

// NewProgressSampler constructs a sampler with the given bucket width in
// percent. Non-positive widths fall back to 5%.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event should be emitted. A negative
// percent means the total is not yet known.
func (s *ProgressSampler) ShouldLog(percent float64, stage string) bool {
	if s == nil {
		return true
	}
	stage = strings.TrimSpace(stage)
	emit := false
	if stage != "" && stage != s.lastStage {
		s.lastStage = stage
		s.lastBucket = -1
		emit = true
	}
	if percent < 0 {
		return emit
	}
	if percent > 100 {
		percent = 100
	}
	if bucket := int(percent / s.bucketSize); bucket > s.lastBucket {
		s.lastBucket = bucket
		emit = true
	}
	return emit
}

// ShouldLogCount is ShouldLog for "done of total" counters such as finalized
// paragraphs. A zero total reports an unknown percentage.
func (s *ProgressSampler) ShouldLogCount(done, total int, stage string) bool {
	if total <= 0 {
		return s.ShouldLog(-1, stage)
	}
	return s.ShouldLog(float64(done)*100/float64(total), stage)
}

// Reset clears the sampler state before a new task starts.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastStage = ""
	s.lastBucket = -1
}
