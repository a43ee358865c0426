package engine

import (
	"math"
	"testing"
)

func TestSecondsPerStep(t *testing.T) {
	cases := []struct {
		tempo       float64
		subdivision int
		want        float64
	}{
		{120, 16, 0.125}, // sixteenths at 120bpm
		{120, 4, 0.5},    // quarter notes
		{60, 16, 0.25},
		{240, 16, 0.0625},
		{30, 16, 0.5},
		{300, 32, 0.025},
	}
	for _, tc := range cases {
		got := SecondsPerStep(tc.tempo, tc.subdivision)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("SecondsPerStep(%v, %d) = %v, want %v", tc.tempo, tc.subdivision, got, tc.want)
		}
	}
}

func TestSecondsPerStepDecreasesWithTempo(t *testing.T) {
	prev := math.Inf(1)
	for bpm := MinTempo; bpm <= MaxTempo; bpm += 10 {
		spp := SecondsPerStep(bpm, 16)
		if spp <= 0 {
			t.Fatalf("non-positive step duration at %v bpm", bpm)
		}
		if spp >= prev {
			t.Fatalf("step duration not strictly decreasing at %v bpm: %v >= %v", bpm, spp, prev)
		}
		prev = spp
	}
}

func TestClampTempo(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, MinTempo},
		{-40, MinTempo},
		{29.999, MinTempo},
		{30, 30},
		{120, 120},
		{300, 300},
		{300.001, MaxTempo},
		{100000, MaxTempo},
	}
	for _, tc := range cases {
		if got := ClampTempo(tc.in); got != tc.want {
			t.Errorf("ClampTempo(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
