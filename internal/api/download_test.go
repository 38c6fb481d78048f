package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloader_DownloadFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/file/photo-1.jpg", r.URL.Path)
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("123"))
	}))
	defer ts.Close()

	d := NewDownloader(time.Second, 0)
	data, err := d.DownloadFile(context.Background(), func(fileID string) (string, error) {
		return ts.URL + "/file/" + fileID + ".jpg", nil
	}, "photo-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("123"), data)
}

func TestDownloader_URLResolutionError(t *testing.T) {
	d := NewDownloader(time.Second, 0)
	_, err := d.DownloadFile(context.Background(), func(string) (string, error) {
		return "", errors.New("no such file")
	}, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get file URL")
}

func TestDownloader_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	d := NewDownloader(time.Second, 2)
	data, err := d.Download(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDownloader_RejectsLargeAndMissingFiles(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(make([]byte, 64))
	}))
	defer ts.Close()

	d := NewDownloader(time.Second, 0)
	d.maxSize = 16

	_, err := d.Download(context.Background(), ts.URL+"/big")
	require.ErrorContains(t, err, "file too large")

	_, err = d.Download(context.Background(), ts.URL+"/missing")
	require.ErrorContains(t, err, "status 404")
}
