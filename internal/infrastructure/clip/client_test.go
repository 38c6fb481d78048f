package clip

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	loads    atomic.Int32
	scores   atomic.Int32
	fail     atomic.Int32 // сколько ответов score вернуть с 503
	notReady bool
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/load", func(w http.ResponseWriter, r *http.Request) {
		f.loads.Add(1)
		var req loadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(loadResponse{Ready: !f.notReady, Model: req.Model})
	})
	mux.HandleFunc("/v1/score", func(w http.ResponseWriter, r *http.Request) {
		f.scores.Add(1)
		if f.fail.Load() > 0 {
			f.fail.Add(-1)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var req scoreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_, err := base64.StdEncoding.DecodeString(req.Image)
		require.NoError(t, err)

		logits := make([]float64, len(req.Labels))
		for i := range logits {
			logits[i] = float64(len(req.Labels) - i)
		}
		_ = json.NewEncoder(w).Encode(scoreResponse{Logits: logits})
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeBackend) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	c := NewClient(ClientOpts{BaseURL: srv.URL, Timeout: 5 * time.Second, RetryCount: 2})
	c.httpClient.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)
	return c
}

func TestClient_ScoreInitializesLazily(t *testing.T) {
	f := &fakeBackend{}
	c := newTestClient(t, f)
	require.False(t, c.Ready())

	img := image.NewGray(image.Rect(0, 0, 8, 8))
	logits, err := c.Score(context.Background(), img, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, []float64{3, 2, 1}, logits)
	require.True(t, c.Ready())

	_, err = c.Score(context.Background(), img, []string{"a", "b"})
	require.NoError(t, err)
	require.EqualValues(t, 1, f.loads.Load())
	require.EqualValues(t, 2, f.scores.Load())
}

func TestClient_InitNotReady(t *testing.T) {
	f := &fakeBackend{notReady: true}
	c := newTestClient(t, f)
	require.ErrorIs(t, c.Init(context.Background()), ErrNotReady)
	require.False(t, c.Ready())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	f := &fakeBackend{}
	f.fail.Store(2)
	c := newTestClient(t, f)

	_, err := c.Score(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)), []string{"x", "y"})
	require.NoError(t, err)
	require.EqualValues(t, 3, f.scores.Load())
}

func TestClient_GivesUpAfterRetries(t *testing.T) {
	f := &fakeBackend{}
	f.fail.Store(10)
	c := newTestClient(t, f)

	_, err := c.Score(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)), []string{"x", "y"})
	require.Error(t, err)
	require.EqualValues(t, 3, f.scores.Load())
}
