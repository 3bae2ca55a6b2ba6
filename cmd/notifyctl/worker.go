package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifykit/pkg/api"
	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/queue"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Perform deferred deliveries from the queue",
	Long: "Runs a queue worker over QUEUE_BACKEND that performs deferred deliveries with " +
		"the manifest's stand-in handlers. With --listen it also serves metrics, the inbox " +
		"and a notify endpoint over HTTP.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("file")
		listen, _ := cmd.Flags().GetString("listen")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := newRuntime(ctx, path)
		if err != nil {
			return err
		}
		defer rt.Close()

		if rt.backend.storage == nil && listen == "" {
			return errors.New("the inline backend has no queue to drain; set QUEUE_BACKEND or pass --listen")
		}

		var runners []func() error
		if rt.backend.storage != nil {
			w, err := newWorker(rt)
			if err != nil {
				return err
			}
			runners = append(runners, w.Run(ctx))
		}
		if listen != "" {
			cfg := rt.cfg.HTTP
			cfg.Addr = listen
			h := api.NewRouter(
				api.WithDeliveries(rt.classes),
				api.WithInbox(rt.inbox),
				api.WithMetrics(rt.metrics),
				api.WithReadiness(rt.backend.checks...),
				api.WithLogger(rt.log),
			)
			runners = append(runners, func() error { return api.Serve(ctx, cfg, h, rt.log) })
		}
		return runAll(stop, runners...)
	},
}

func newWorker(rt *runtime) (*queue.Worker, error) {
	handler, err := job.NewTaskHandler(rt.jobs)
	if err != nil {
		return nil, err
	}
	opts := append(rt.cfg.Queue.WorkerOptions(), queue.WithWorkerLogger(rt.log))
	w, err := queue.NewWorker(rt.backend.storage, opts...)
	if err != nil {
		return nil, err
	}
	if err := w.RegisterHandler(handler); err != nil {
		return nil, err
	}
	return w, nil
}

// runAll runs fns concurrently. The first failure cancels the rest through
// cancel; all errors are joined.
func runAll(cancel context.CancelFunc, fns ...func() error) error {
	errCh := make(chan error, len(fns))
	for _, fn := range fns {
		go func() {
			err := fn()
			if err != nil {
				cancel()
			}
			errCh <- err
		}()
	}

	var errs []error
	for range fns {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
