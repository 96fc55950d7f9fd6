package audio

import (
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
)

func TestVolumeConversion(t *testing.T) {
	tests := []struct {
		vol  float64
		want float64
	}{
		{1.0, 0},
		{0.5, -1},
		{0.25, -2},
		{0.0, -10},
	}

	for _, tt := range tests {
		if got := volumeToExp(tt.vol); got != tt.want {
			t.Errorf("volumeToExp(%f) = %f, want %f", tt.vol, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
		{0, 0, 1, 0},
		{1, 0, 1, 1},
	}

	for _, tt := range tests {
		if got := clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("clamp(%f, %f, %f) = %f, want %f", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestRenderLength(t *testing.T) {
	sr := beep.SampleRate(8000)
	cue := Cue{{Freq: 440, Duration: 100 * time.Millisecond}, {Freq: 220, Duration: 50 * time.Millisecond}}

	s, err := Render(sr, cue)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	buf := make([][2]float64, 256)
	total := 0
	for {
		n, ok := s.Stream(buf)
		total += n
		if !ok {
			break
		}
	}
	if want := cue.Length(sr); total != want {
		t.Errorf("streamed %d samples, want %d", total, want)
	}
	if total != 1200 {
		t.Errorf("streamed %d samples, want 1200", total)
	}
}

func TestRenderRejectsBadFrequency(t *testing.T) {
	// Above Nyquist for 8 kHz.
	if _, err := Render(8000, Cue{{Freq: 6000, Duration: time.Millisecond}}); err == nil {
		t.Error("expected error for frequency above Nyquist")
	}
}

func TestPlayBeforeInit(t *testing.T) {
	m := New()
	if m.IsInitialized() {
		t.Fatal("new manager should not be initialized")
	}
	if err := m.Play(CuePlaced); err != nil {
		t.Errorf("Play before Init = %v, want nil", err)
	}
	m.SetMasterVolume(3)
	if m.MasterVolume() != 1 {
		t.Errorf("volume not clamped: %f", m.MasterVolume())
	}
}
