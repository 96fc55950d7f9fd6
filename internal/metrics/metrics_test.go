package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveStage(t *testing.T) {
	c := New()
	c.ObserveStage(StageGenerate, time.Second, nil)
	c.ObserveStage(StageGenerate, time.Second, errors.New("boom"))
	c.ObserveStage(StageGenerate, time.Second, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.stageTotal.WithLabelValues(StageGenerate, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.stageTotal.WithLabelValues(StageGenerate, "error")))
}

func TestCounters(t *testing.T) {
	c := New()
	c.AddBytes(100)
	c.AddBytes(-5)
	c.Submission(OutcomeBusy)
	c.Placed()

	assert.Equal(t, 100.0, testutil.ToFloat64(c.bytesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.submissions.WithLabelValues(OutcomeBusy)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.placements))
}

func TestSetObjectsResets(t *testing.T) {
	c := New()
	c.SetObjects(map[string]int{"waiting": 1, "orbiting": 2})
	c.SetObjects(map[string]int{"orbiting": 3})

	assert.Equal(t, 1, testutil.CollectAndCount(c.objects))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.objects.WithLabelValues("orbiting")))
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveStage(StageImport, time.Millisecond, nil)
		c.AddBytes(1)
		c.Submission(OutcomeAccepted)
		c.Placed()
		c.SetObjects(map[string]int{"waiting": 1})
	})
	assert.Nil(t, c.Registry())
}

func TestHandler(t *testing.T) {
	c := New()
	c.Placed()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "orbitforge_placements_total 1"))
}
