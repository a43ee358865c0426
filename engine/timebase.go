package engine

// Tempo bounds in BPM. Out-of-range tempos are clamped, never rejected.
const (
	MinTempo = 30.0
	MaxTempo = 300.0
)

// ClampTempo clamps a BPM value into the supported range
func ClampTempo(bpm float64) float64 {
	if bpm < MinTempo {
		return MinTempo
	}
	if bpm > MaxTempo {
		return MaxTempo
	}
	return bpm
}

// SecondsPerStep converts tempo and grid subdivision into the duration of one
// step. Subdivision counts steps per 4/4 bar, so 16 means sixteenth-note
// steps (4 steps per quarter note).
func SecondsPerStep(tempo float64, subdivision int) float64 {
	return 60.0 / tempo / (float64(subdivision) / 4.0)
}
