// Package audio plays short synthesized cue tones for spawner events.
package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/speaker"
)

// DefaultSampleRate is the default sample rate for audio playback.
const DefaultSampleRate = beep.SampleRate(44100)

// Note is one sine tone.
type Note struct {
	Freq     float64 // Hz
	Duration time.Duration
}

// Cue is a short sequence of notes.
type Cue []Note

// Stock cues.
var (
	CueAccepted = Cue{{Freq: 660, Duration: 60 * time.Millisecond}}
	CuePlaced   = Cue{{Freq: 880, Duration: 90 * time.Millisecond}, {Freq: 1320, Duration: 120 * time.Millisecond}}
	CueFailed   = Cue{{Freq: 330, Duration: 120 * time.Millisecond}, {Freq: 220, Duration: 220 * time.Millisecond}}
)

// Manager owns the speaker and mixes cues so they can overlap.
type Manager struct {
	mu sync.RWMutex

	initialized bool
	sampleRate  beep.SampleRate

	// Volume settings (0.0 to 1.0)
	masterVolume float64
	muted        bool

	mixer *beep.Mixer
}

// New creates a new audio manager.
func New() *Manager {
	return &Manager{
		masterVolume: 1.0,
		sampleRate:   DefaultSampleRate,
		mixer:        &beep.Mixer{},
	}
}

// Init opens the speaker. Calling it twice is harmless.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	if err := speaker.Init(m.sampleRate, m.sampleRate.N(time.Second/30)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(m.mixer)

	m.initialized = true
	return nil
}

// Close shuts down the audio system.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	m.initialized = false
}

// IsInitialized returns whether the audio system is initialized.
func (m *Manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// SetMasterVolume sets the master volume (0.0 to 1.0).
func (m *Manager) SetMasterVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masterVolume = clamp(vol, 0, 1)
}

// MasterVolume returns the master volume.
func (m *Manager) MasterVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.masterVolume
}

// SetMuted silences every later cue.
func (m *Manager) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
}

// Play queues cue on the mixer. It is a no-op before Init or while muted.
func (m *Manager) Play(cue Cue) error {
	m.mu.RLock()
	initialized := m.initialized
	vol := m.masterVolume
	muted := m.muted
	m.mu.RUnlock()

	if !initialized || muted || vol <= 0 {
		return nil
	}

	s, err := Render(m.sampleRate, cue)
	if err != nil {
		return err
	}
	speaker.Lock()
	m.mixer.Add(&effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   volumeToExp(vol),
	})
	speaker.Unlock()
	return nil
}

// Render builds the finite streamer for cue at sr.
func Render(sr beep.SampleRate, cue Cue) (beep.Streamer, error) {
	parts := make([]beep.Streamer, 0, len(cue))
	for _, n := range cue {
		tone, err := generators.SineTone(sr, n.Freq)
		if err != nil {
			return nil, fmt.Errorf("tone %.0f Hz: %w", n.Freq, err)
		}
		parts = append(parts, beep.Take(sr.N(n.Duration), tone))
	}
	return beep.Seq(parts...), nil
}

// Length returns the number of samples cue lasts at sr.
func (c Cue) Length(sr beep.SampleRate) int {
	n := 0
	for _, note := range c {
		n += sr.N(note.Duration)
	}
	return n
}

// volumeToExp converts a 0-1 linear volume into the exponent effects.Volume
// expects with Base 2: 1 maps to 0, 0.5 to -1, 0.25 to -2.
func volumeToExp(vol float64) float64 {
	if vol <= 0 {
		return -10
	}
	return math.Log2(vol)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
