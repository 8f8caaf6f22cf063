// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command asyncmsg serves an event-based message board: GET
// /async/nextMessage suspends until a message is posted, POST
// /async/nextMessage suspends until the message is queued.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"code.hybscloud.com/suspend"
	"code.hybscloud.com/suspend/internal/board"
	"code.hybscloud.com/suspend/internal/config"
	"code.hybscloud.com/suspend/internal/httpx"
	"code.hybscloud.com/suspend/internal/logging"
	"code.hybscloud.com/suspend/internal/metrics"
)

func main() {
	cfg := config.Default()
	cfg.AddFlags(pflag.CommandLine)
	pflag.Parse()

	if err := cfg.Complete(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logging.New(cfg.LogVerbosity, cfg.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, log); err != nil {
		log.Error(err, "asyncmsg exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logr.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	messages := suspend.NewChannel[string](cfg.Capacity)
	m.ObserveQueue("messages", messages.Len, messages.Cap)

	var (
		dispatch suspend.Dispatcher = suspend.GoDispatcher{Log: log.WithName("task")}
		pool     *suspend.Pool
	)
	if cfg.Workers > 0 {
		pool = suspend.NewPool(
			suspend.WithWorkers(cfg.Workers),
			suspend.WithQueueDepth(cfg.QueueDepth),
			suspend.WithPoolLogger(log.WithName("pool")),
		)
		dispatch = pool
	}

	opts := []httpx.Option{httpx.WithLogger(log.WithName("http")), httpx.WithTracker(m)}
	if cfg.PostRate > 0 {
		opts = append(opts, httpx.WithPostLimit(rate.Limit(cfg.PostRate), cfg.PostBurst))
	}
	srv := httpx.New(board.New(messages, dispatch, log.WithName("board")), cfg.Timeout, opts...)

	api := &http.Server{Addr: cfg.Addr, Handler: srv}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srv.Start()
		return nil
	})
	g.Go(func() error {
		log.Info("serving messages", "addr", cfg.Addr, "capacity", cfg.Capacity, "workers", cfg.Workers)
		return serve(api)
	})
	g.Go(func() error {
		if cfg.MetricsAddr == "" {
			return nil
		}
		log.Info("serving metrics", "addr", cfg.MetricsAddr)
		return serve(metricsSrv)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(cfg, log, srv, pool, api, metricsSrv)
	})
	return g.Wait()
}

func serve(s *http.Server) error {
	if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// shutdown aborts pending requests so their handlers return, then stops the
// listeners and the worker pool.
func shutdown(cfg *config.Config, log logr.Logger, srv *httpx.Server, pool *suspend.Pool, servers ...*http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	n := srv.CancelAll()
	log.Info("shutting down", "cancelled", n)

	var err error
	for _, s := range servers {
		err = multierr.Append(err, s.Shutdown(ctx))
	}
	srv.Stop()
	if pool != nil {
		err = multierr.Append(err, pool.Close(ctx))
	}
	return err
}
