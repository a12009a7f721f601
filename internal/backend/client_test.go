package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"agni/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBackend(url string) config.BackendConfig {
	cfg := config.DefaultConfig().Backend
	cfg.BaseURL = url
	cfg.Timeout = 5 * time.Second
	cfg.HealthRetry = config.RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	return cfg
}

func TestChat_SendsMessageAndDecodesReply(t *testing.T) {
	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"response":"Paris.","enhanced_query":"capital of France","status":"success","extra":1}`)
	}))
	defer srv.Close()

	c := New(testBackend(srv.URL))
	resp, err := c.Chat(context.Background(), "What is the capital?")
	require.NoError(t, err)

	assert.Equal(t, "What is the capital?", got.Message)
	assert.Equal(t, "Paris.", resp.Response)
	assert.Equal(t, "capital of France", resp.EnhancedQuery)
	assert.Equal(t, "success", resp.Status)
}

func TestChat_EmptyMessageNeverHitsNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := New(testBackend(srv.URL))
	_, err := c.Chat(context.Background(), "   \n\t")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, calls.Load())
}

func TestChat_MissingResponseField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success"}`)
	}))
	defer srv.Close()

	_, err := New(testBackend(srv.URL)).Chat(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrMissingResponse)
}

func TestChat_EmptyResponseStringIsValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"response":""}`)
	}))
	defer srv.Close()

	resp, err := New(testBackend(srv.URL)).Chat(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "", resp.Response)
	assert.Empty(t, resp.EnhancedQuery)
}

func TestChat_Non2xxIsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(testBackend(srv.URL)).Chat(context.Background(), "hi")
	require.Error(t, err)

	var herr *HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusInternalServerError, herr.StatusCode)
	assert.Contains(t, herr.Body, "boom")
	assert.Equal(t, 500, StatusCode(err))
	assert.False(t, IsNetworkError(err))
}

func TestChat_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	}))
	defer srv.Close()

	_, err := New(testBackend(srv.URL)).Chat(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode chat response")
}

func TestChat_UnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(testBackend(url)).Chat(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
	assert.Zero(t, StatusCode(err))
}

func TestChat_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testBackend(srv.URL)).Chat(ctx, "hi")
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
}

func TestIngest_OnePartPerFileUnderConfiguredField(t *testing.T) {
	type part struct {
		field, name, contentType, body string
	}
	var parts []part

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/ingest", r.URL.Path)
		mr, err := r.MultipartReader()
		require.NoError(t, err)
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			body, _ := io.ReadAll(p)
			parts = append(parts, part{p.FormName(), p.FileName(), p.Header.Get("Content-Type"), string(body)})
		}
		_, _ = io.WriteString(w, `{"status":"success","filename":"a.pdf","chunks_processed":4}`)
	}))
	defer srv.Close()

	files := []File{
		{Name: "a.pdf", Content: []byte("%PDF-1.4"), ContentType: "application/pdf"},
		{Name: "notes.txt", Content: []byte("hello")},
	}
	resp, err := New(testBackend(srv.URL)).Ingest(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 4, resp.ChunksProcessed)

	require.Len(t, parts, 2)
	assert.Equal(t, part{"files", "a.pdf", "application/pdf", "%PDF-1.4"}, parts[0])
	assert.Equal(t, part{"files", "notes.txt", "application/octet-stream", "hello"}, parts[1])
}

func TestIngest_AlternateContract(t *testing.T) {
	var field, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		for k := range r.MultipartForm.File {
			field = k
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := testBackend(srv.URL)
	cfg.IngestPath = "/upload"
	cfg.UploadField = "file"

	_, err := New(cfg).Ingest(context.Background(), []File{{Name: "x.txt", Content: []byte("x")}})
	require.NoError(t, err)
	assert.Equal(t, "/upload", path)
	assert.Equal(t, "file", field)
}

func TestIngest_NonJSONSuccessBodyIsStillSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	resp, err := New(testBackend(srv.URL)).Ingest(context.Background(), []File{{Name: "x.txt"}})
	require.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestIngest_NoFiles(t *testing.T) {
	_, err := New(testBackend("http://127.0.0.1:1")).Ingest(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestIngest_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnsupportedMediaType)
	}))
	defer srv.Close()

	_, err := New(testBackend(srv.URL)).Ingest(context.Background(), []File{{Name: "x.txt"}})
	assert.Equal(t, http.StatusUnsupportedMediaType, StatusCode(err))
}

func TestHealth_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"status":"healthy","system":"Agni RAG"}`)
	}))
	defer srv.Close()

	hr, err := New(testBackend(srv.URL)).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", hr.Status)
	assert.Equal(t, "Agni RAG", hr.System)
	assert.EqualValues(t, 3, calls.Load())
}

func TestHealth_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(testBackend(srv.URL)).Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestHealth_GivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(testBackend(srv.URL)).Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
	assert.EqualValues(t, 3, calls.Load())
}

func TestChatAndIngestAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(testBackend(srv.URL))
	_, err := c.Chat(context.Background(), "hi")
	require.Error(t, err)
	_, err = c.Ingest(context.Background(), []File{{Name: "a.txt"}})
	require.Error(t, err)
	assert.EqualValues(t, 2, calls.Load())
}
