package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pocgg/arthivescrape/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingServer serves "body" for every path except the ones mapped to
// another status in statuses. It records the number of requests per path.
func countingServer(t *testing.T, statuses map[string]int) (*httptest.Server, map[string]*atomic.Int32) {
	hits := map[string]*atomic.Int32{}
	for p := range statuses {
		hits[p] = &atomic.Int32{}
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n, ok := hits[r.URL.Path]; ok {
			n.Add(1)
		}
		if code := statuses[r.URL.Path]; code != 0 && code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		w.Write([]byte("body"))
	}))
	t.Cleanup(server.Close)

	return server, hits
}

func quietOptions() BatchOptions {
	opts := DefaultBatchOptions()
	opts.Report = func(int, Stats) {}
	return opts
}

func TestBatchEmptyInput(t *testing.T) {
	b := NewBatch(NewStore(t.TempDir()), http.DefaultClient, quietOptions())

	st, err := b.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Equal(t, Stats{}, st)
}

func TestBatchSkipMissingAndSuccess(t *testing.T) {
	server, hits := countingServer(t, map[string]int{
		"/res/a/1.jpg": http.StatusOK,
		"/res/b/1.jpg": http.StatusNotFound,
		"/res/c/1.jpg": http.StatusOK,
	})

	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, s.SaveFile("res/a/1.jpg", []byte("existing")))

	urls := []string{
		server.URL + "/res/a/1.jpg",
		server.URL + "/res/b/1.jpg",
		server.URL + "/res/c/1.jpg",
	}

	st, err := NewBatch(s, server.Client(), quietOptions()).Run(context.Background(), urls)
	require.NoError(t, err)
	assert.Equal(t, Stats{Attempted: 3, Succeeded: 2, Failed: 1}, st)

	assert.EqualValues(t, 0, hits["/res/a/1.jpg"].Load())
	assert.EqualValues(t, 1, hits["/res/b/1.jpg"].Load())
	assert.EqualValues(t, 1, hits["/res/c/1.jpg"].Load())

	b, err := os.ReadFile(filepath.Join(dir, "res", "a", "1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "existing", string(b), "existing file must not be overwritten")

	b, err = os.ReadFile(filepath.Join(dir, "res", "c", "1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "body", string(b))

	assert.False(t, fileutil.FileExists(s.FullPath("res/b/1.jpg")))
}

func TestBatchTimeoutsExhaustAttempts(t *testing.T) {
	var slowHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow.jpg" {
			slowHits.Add(1)
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	opts := quietOptions()
	opts.Timeout = 50 * time.Millisecond
	b := NewBatch(NewStore(t.TempDir()), server.Client(), opts)

	st, err := b.Run(context.Background(), []string{
		server.URL + "/slow.jpg",
		server.URL + "/fast.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, Stats{Attempted: 2, Succeeded: 1, Failed: 1}, st)
	assert.EqualValues(t, 3, slowHits.Load())
}

func TestBatchStoppedBeforeStart(t *testing.T) {
	server, hits := countingServer(t, map[string]int{"/x.jpg": http.StatusOK})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st, err := NewBatch(NewStore(t.TempDir()), server.Client(), quietOptions()).
		Run(ctx, []string{server.URL + "/x.jpg"})
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
	assert.EqualValues(t, 0, hits["/x.jpg"].Load())
}

func TestBatchStopBetweenRequests(t *testing.T) {
	server, hits := countingServer(t, map[string]int{
		"/1.jpg": http.StatusOK,
		"/2.jpg": http.StatusOK,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := quietOptions()
	opts.Report = func(total int, st Stats) {
		// Stop while the first request is about to be issued.
		if st.Attempted == 0 {
			cancel()
		}
	}

	st, err := NewBatch(NewStore(t.TempDir()), server.Client(), opts).
		Run(ctx, []string{server.URL + "/1.jpg", server.URL + "/2.jpg"})
	require.NoError(t, err)
	assert.Equal(t, Stats{Attempted: 1, Succeeded: 1}, st)
	assert.EqualValues(t, 1, hits["/1.jpg"].Load())
	assert.EqualValues(t, 0, hits["/2.jpg"].Load())
}

func TestBatchWriteFailureIsFatal(t *testing.T) {
	server, _ := countingServer(t, nil)

	// A regular file where the destination directory should be.
	dest := filepath.Join(t.TempDir(), "dest")
	require.NoError(t, os.WriteFile(dest, nil, 0644))

	st, err := NewBatch(NewStore(dest), server.Client(), quietOptions()).
		Run(context.Background(), []string{server.URL + "/a/1.jpg", server.URL + "/a/2.jpg"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyInput)
	assert.Equal(t, 1, st.Attempted)
	assert.Equal(t, 0, st.Succeeded)
}

func TestBatchProgressReports(t *testing.T) {
	server, _ := countingServer(t, nil)

	var reports []Stats
	opts := quietOptions()
	opts.Report = func(total int, st Stats) {
		assert.Equal(t, 2, total)
		reports = append(reports, st)
	}

	_, err := NewBatch(NewStore(t.TempDir()), server.Client(), opts).
		Run(context.Background(), []string{server.URL + "/1.jpg", server.URL + "/2.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []Stats{{}, {Attempted: 1, Succeeded: 1}}, reports)
}

func TestBatchStopWhileRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var slowHits, otherHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/slow.jpg" {
			otherHits.Add(1)
			w.Write([]byte("ok"))
			return
		}
		slowHits.Add(1)
		cancel()
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	opts := quietOptions()
	opts.Timeout = 50 * time.Millisecond

	st, err := NewBatch(NewStore(t.TempDir()), server.Client(), opts).
		Run(ctx, []string{server.URL + "/slow.jpg", server.URL + "/next.jpg"})
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
	assert.EqualValues(t, 1, slowHits.Load())
	assert.EqualValues(t, 0, otherHits.Load())
}
