package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pocgg/arthivescrape/progress"
	log "github.com/sirupsen/logrus"
)

// BatchOptions configures a Batch.
type BatchOptions struct {
	// Attempts is the number of tries per url before giving up. Only timed
	// out tries are retried. Default: 3
	Attempts int

	// Timeout bounds each individual try. Default: 30s
	Timeout time.Duration

	// Header is sent with every request.
	Header http.Header

	// Report is called before each url is processed. Default: logs the
	// progress line at info level.
	Report func(total int, st Stats)
}

// DefaultBatchOptions returns the options used by the command line tool.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		Attempts: 3,
		Timeout:  30 * time.Second,
	}
}

// Batch downloads a list of urls into a Store one at a time.
type Batch struct {
	s    *Store
	hc   *http.Client
	opts BatchOptions
}

func NewBatch(s *Store, hc *http.Client, opts BatchOptions) *Batch {
	def := DefaultBatchOptions()
	if opts.Attempts <= 0 {
		opts.Attempts = def.Attempts
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.Report == nil {
		opts.Report = logProgress
	}

	return &Batch{
		s:    s,
		hc:   hc,
		opts: opts,
	}
}

// Run downloads each url in order. Urls whose destination file already exists
// are counted as succeeded without any request. A url that fails to download
// is counted and logged, and the run moves on. Run stops early, without
// error, once ctx is done: ctx is checked before each url and between retries
// of a timed out url; requests already in flight are allowed to finish.
// A failure to write a downloaded file aborts the run.
func (b *Batch) Run(ctx context.Context, urls []string) (Stats, error) {
	if len(urls) == 0 {
		return Stats{}, fmt.Errorf("%w: no urls to download", ErrEmptyInput)
	}

	c := &Counters{}

	stopped := func() (Stats, error) {
		st := c.Snapshot()
		log.Infof("download stopped: processed=%d/%d", st.Attempted, len(urls))
		return st, nil
	}

	for _, u := range urls {
		if ctx.Err() != nil {
			return stopped()
		}

		b.opts.Report(len(urls), c.Snapshot())

		err := b.downloadOne(ctx, c, u)
		if errors.Is(err, ErrStopped) {
			return stopped()
		}
		if err != nil {
			return c.Snapshot(), err
		}
	}

	st := c.Snapshot()
	log.Infof("download finished: total=%d succeeded=%d failed=%d", len(urls), st.Succeeded, st.Failed)
	return st, nil
}

// downloadOne processes a single url, updating c. It only returns an error if
// the run cannot continue: ErrStopped if a stop arrived between retries, in
// which case the url is left uncounted, or a local write failure.
func (b *Batch) downloadOne(ctx context.Context, c *Counters, u string) error {
	desc, err := b.s.EvaluateURL(u)
	if err != nil {
		log.WithError(err).Errorf("failed to convert url to filename: url=%s", u)
		c.failed.Add(1)
		c.attempted.Add(1)
		return nil
	}

	if desc.IsLocal {
		c.succeeded.Add(1)
		c.attempted.Add(1)
		return nil
	}

	var body []byte
	err = Retry(ctx, b.opts.Attempts, b.opts.Timeout, func(ctx context.Context) error {
		var err error
		body, err = Get(ctx, b.hc, u, b.opts.Header)
		return err
	})
	if errors.Is(err, ErrStopped) {
		log.Infof("stopped while retrying: url=%s", u)
		return err
	}

	// Every outcome from here on counts as one attempted url.
	defer c.attempted.Add(1)

	if err != nil {
		if errors.Is(err, ErrAttemptsExhausted) {
			log.Errorf("no response from server after %d attempts: url=%s", b.opts.Attempts, u)
		} else {
			log.WithError(err).Warnf("download failed: url=%s", u)
		}
		c.failed.Add(1)
		return nil
	}

	err = b.s.SaveFile(desc.Filename, body)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", desc.Filename, err)
	}

	c.succeeded.Add(1)
	return nil
}

func logProgress(total int, st Stats) {
	log.Info(progress.Render(total, st.Attempted, st.Succeeded, st.Failed))
}
