// Package job describes deferred deliveries as serializable descriptors and
// connects them to a queue backend.
//
// A Job names the handler (mailer or notifier) by string, never by reference,
// so the process that executes it may differ from the one that enqueued it:
//
//	j := job.Job{
//		Handler: "app.EventsMailer",
//		Action:  "canceled",
//		Params:  job.Params{"profile_id": 42},
//		Args:    job.NewArgs(eventID, job.Kwargs{"reason": "weather"}),
//	}
//
// # Enqueueing
//
// Handlers hand jobs to an Enqueuer. QueueAdapter stores them through the
// queue package; Inline performs them right away through a Registry, which is
// handy in development:
//
//	storage := queue.NewMemoryStorage()
//	enq, _ := queue.NewEnqueuer(storage)
//	adapter, _ := job.NewQueueAdapter(enq)
//
// # Performing
//
// On the worker side a Registry maps handler names to Performers and
// NewTaskHandler turns it into a queue.Handler:
//
//	reg := job.NewRegistry(eventsMailer, eventsNotifier)
//	worker, _ := queue.NewWorker(storage, queue.WithQueues(job.DefaultQueue))
//	handler, _ := job.NewTaskHandler(reg)
//	_ = worker.RegisterHandler(handler)
//
// # Arguments
//
// Positional and keyword arguments travel as JSON. Values come back as their
// JSON shapes (numbers as float64, objects as map[string]any), so actions
// performed from the queue should read them with Args accessors that tolerate
// that, or decode them with Args.Decode.
package job
