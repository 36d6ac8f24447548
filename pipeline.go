package main

import (
	"context"
	"io"
	"net/http"

	"github.com/pocgg/arthivescrape/arthive"
	"github.com/pocgg/arthivescrape/control"
	"github.com/pocgg/arthivescrape/download"
	"github.com/pocgg/arthivescrape/web"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// run executes one pipeline run, stoppable by a line on in or by ctx. If
// cfg.Serve is set, the destination directory is also served until ctx is
// done.
func run(ctx context.Context, cfg *Config, in io.Reader) error {
	g, gctx := errgroup.WithContext(ctx)
	ctl := control.New(gctx)
	hc := &http.Client{}

	g.Go(func() error {
		return ctl.Run(in, func(ctx context.Context) error {
			_, err := runPipeline(ctx, cfg, hc)
			return err
		})
	})

	if cfg.Serve != "" {
		g.Go(func() error {
			return web.NewServer(cfg.Serve, cfg.DestDir).ListenAndServe(gctx)
		})
	}

	return g.Wait()
}

// runPipeline fetches the catalogue, expands it into image urls and downloads
// them. Each stage is skipped once ctx is done.
func runPipeline(ctx context.Context, cfg *Config, hc *http.Client) (download.Stats, error) {
	records, err := arthive.Fetch(ctx, hc, cfg.Endpoint, cfg.Timeout)
	if err != nil {
		return download.Stats{}, err
	}

	if ctx.Err() != nil {
		log.Info("run stopped before expansion")
		return download.Stats{}, nil
	}

	urls, err := arthive.Expand(cfg.BaseURL, records, cfg.Keys)
	if err != nil {
		return download.Stats{}, err
	}
	log.Infof("built download requests: count=%d", len(urls))

	b := download.NewBatch(download.NewStore(cfg.DestDir), hc, download.BatchOptions{
		Attempts: cfg.Attempts,
		Timeout:  cfg.Timeout,
	})

	return b.Run(ctx, urls)
}
