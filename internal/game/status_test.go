package game

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/orbitforge/internal/acquire"
	"github.com/Faultbox/orbitforge/internal/engine/audio"
	"github.com/Faultbox/orbitforge/internal/spawner"
)

func TestStatusBoxVersionBumpsOnRepeat(t *testing.T) {
	var s StatusBox
	_, v0 := s.Snapshot()

	s.SetStatus("a")
	text, v1 := s.Snapshot()
	assert.Equal(t, "a", text)
	assert.Greater(t, v1, v0)

	s.SetStatus("a")
	_, v2 := s.Snapshot()
	assert.Greater(t, v2, v1)
}

func TestStatusBoxConcurrent(t *testing.T) {
	var s StatusBox
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.SetStatus("x")
			}
		}()
	}
	wg.Wait()
	_, v := s.Snapshot()
	assert.Equal(t, uint64(800), v)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "OrbitForge | Model Loaded Successfully! | > kite_",
		Title("OrbitForge", acquire.StatusLoaded, "kite"))
	assert.Equal(t, "OrbitForge | > _", Title("OrbitForge", "", ""))
}

func TestCueFor(t *testing.T) {
	cases := []struct {
		status string
		cue    audio.Cue
		ok     bool
	}{
		{acquire.StatusLoaded, audio.CuePlaced, true},
		{spawner.StatusProcessing + "kite", audio.CueAccepted, true},
		{acquire.StatusGenerateError, audio.CueFailed, true},
		{spawner.StatusBusy, audio.CueFailed, true},
		{acquire.StatusSending, nil, false},
		{"Hello" + spawner.StatusReadySuffix, nil, false},
	}
	for _, c := range cases {
		cue, ok := cueFor(c.status)
		assert.Equal(t, c.ok, ok, c.status)
		assert.Equal(t, c.cue, cue, c.status)
	}
}

type fakeSubmitter struct {
	got []string
	err error
}

func (f *fakeSubmitter) Submit(p string) error {
	f.got = append(f.got, p)
	return f.err
}

func TestPromptClearsOnlyWhenAccepted(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("busy")}
	p := NewPrompt(sub)

	p.Type("red kit")
	p.Backspace()
	p.Type("te")
	require.Error(t, p.Enter())
	assert.Equal(t, "red kite", p.Text())

	sub.err = nil
	require.NoError(t, p.Enter())
	assert.Empty(t, p.Text())
	assert.Equal(t, []string{"red kite", "red kite"}, sub.got)
}
