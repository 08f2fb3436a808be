package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Alerts(StageLoaded, 5)
	r.Alerts(StageRetracted, 2)
	r.Skipped("unavailable")
	r.Matches(3)
	r.ObslogRequest("ok")
	r.ObserveDuration(1500 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "textfile", "samesky.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `samesky_alerts_total{stage="loaded"} 5`)
	assert.Contains(t, text, `samesky_alerts_total{stage="retracted"} 2`)
	assert.Contains(t, text, `samesky_alerts_skipped_total{reason="unavailable"} 1`)
	assert.Contains(t, text, "samesky_matches_total 3")
	assert.Contains(t, text, `samesky_obslog_requests_total{status="ok"} 1`)
	assert.Contains(t, text, "samesky_run_duration_seconds 1.5")
}

func TestPushSendsToJob(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRecorder()
	r.Matches(1)
	require.NoError(t, r.Push(context.Background(), srv.URL, "frb-nightly"))
	assert.Equal(t, http.MethodPut, method)
	assert.True(t, strings.HasSuffix(path, "/metrics/job/frb-nightly"), path)
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.Alerts(StageLoaded, 1)
	r.Skipped("malformed")
	r.Matches(1)
	r.ObslogRequest("ok")
	r.ObserveDuration(time.Second)
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
	assert.NoError(t, r.Push(context.Background(), "http://127.0.0.1:1", "job"))
}
