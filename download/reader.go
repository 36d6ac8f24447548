package download

import (
	"context"
	"io"
)

// contextReader is an io.Reader whose reads give up once its context is done.
// A read that is abandoned this way keeps running in its own goroutine until
// the underlying reader returns.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func NewContextReader(ctx context.Context, r io.Reader) io.Reader {
	return &contextReader{
		ctx: ctx,
		r:   r,
	}
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	type result struct {
		n   int
		err error
	}

	// Read into a private buffer so an orphaned read never touches p after
	// we return.
	buf := make([]byte, len(p))
	resultChan := make(chan result, 1)

	go func() {
		n, err := cr.r.Read(buf)
		resultChan <- result{n, err}
	}()

	select {
	case <-cr.ctx.Done():
		return 0, cr.ctx.Err()
	case res := <-resultChan:
		copy(p, buf[:res.n])
		return res.n, res.err
	}
}
