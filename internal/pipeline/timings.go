package pipeline

import "time"

// Timings records wall-clock duration per stage.
type Timings struct {
	Transcription time.Duration `json:"transcription"`
	Formatting    time.Duration `json:"formatting"`
	Retry         time.Duration `json:"retry"`
	Structure     time.Duration `json:"structure"`
	Total         time.Duration `json:"total"`
}

// Seconds flattens the timings into stage name to seconds, the shape stored
// on queue tasks and printed by the CLI.
func (t Timings) Seconds() map[string]float64 {
	return map[string]float64{
		"transcription": t.Transcription.Seconds(),
		"formatting":    t.Formatting.Seconds(),
		"retry":         t.Retry.Seconds(),
		"structure":     t.Structure.Seconds(),
		"total":         t.Total.Seconds(),
	}
}

type stopwatch struct {
	now func() time.Time
}

func (s stopwatch) start() func() time.Duration {
	began := s.now()
	return func() time.Duration { return s.now().Sub(began) }
}
