// Package control runs a batch job alongside an operator stop listener.
package control

import (
	"bufio"
	"context"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Controller owns the stop signal of a single run. Once stopped, a Controller
// stays stopped.
type Controller struct {
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// New returns a Controller whose stop signal also fires when parent is done.
func New(parent context.Context) *Controller {
	ctx, cancel := context.WithCancel(parent)
	return &Controller{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Stop asks the run to stop at its next checkpoint.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		log.Info("stop requested; finishing current unit of work")
		c.cancel()
	})
}

// Run calls pipeline with the controller's context while listening on in for
// a stop command: any line of input stops the run. Run returns once pipeline
// has returned.
func (c *Controller) Run(in io.Reader, pipeline func(ctx context.Context) error) error {
	done := make(chan struct{})
	g := &errgroup.Group{}

	g.Go(func() error {
		defer close(done)
		return pipeline(c.ctx)
	})

	g.Go(func() error {
		c.listen(in, done)
		return nil
	})

	return g.Wait()
}

// listen stops the run when a line arrives on in. It returns once that
// happens or done is closed, whichever is first.
func (c *Controller) listen(in io.Reader, done <-chan struct{}) {
	lineChan := make(chan struct{}, 1)

	// The scanner blocks on in with no way to interrupt it; it is orphaned if
	// the pipeline finishes first.
	go func() {
		sc := bufio.NewScanner(in)
		if sc.Scan() {
			lineChan <- struct{}{}
		}
	}()

	select {
	case <-done:
	case <-lineChan:
		c.Stop()
	}
}
