package game

import (
	"strings"
	"sync"

	"github.com/Faultbox/orbitforge/internal/acquire"
	"github.com/Faultbox/orbitforge/internal/engine/audio"
	"github.com/Faultbox/orbitforge/internal/spawner"
)

// StatusBox holds the latest status text. SetStatus may be called from
// any goroutine; the frame loop polls Snapshot.
type StatusBox struct {
	mu      sync.Mutex
	text    string
	version uint64
}

// SetStatus implements acquire.StatusSink.
func (s *StatusBox) SetStatus(text string) {
	s.mu.Lock()
	s.text = text
	s.version++
	s.mu.Unlock()
}

// Snapshot returns the current text and a counter that changes on every
// SetStatus, including repeats of the same text.
func (s *StatusBox) Snapshot() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text, s.version
}

// Title renders the window title from the status and the prompt line.
func Title(name, status, prompt string) string {
	var b strings.Builder
	b.WriteString(name)
	if s := strings.Join(strings.Fields(status), " "); s != "" {
		b.WriteString(" | ")
		b.WriteString(s)
	}
	b.WriteString(" | > ")
	b.WriteString(prompt)
	b.WriteString("_")
	return b.String()
}

// cueFor picks the audio cue for a status text.
func cueFor(status string) (audio.Cue, bool) {
	switch {
	case status == acquire.StatusLoaded:
		return audio.CuePlaced, true
	case strings.HasPrefix(status, spawner.StatusProcessing):
		return audio.CueAccepted, true
	case status == acquire.StatusGenerateError,
		status == acquire.StatusSaveError,
		status == acquire.StatusLoadError,
		status == acquire.StatusInvalidPrompt,
		status == acquire.StatusThrottled,
		status == spawner.StatusBusy,
		status == spawner.StatusNotConnected:
		return audio.CueFailed, true
	}
	return nil, false
}
