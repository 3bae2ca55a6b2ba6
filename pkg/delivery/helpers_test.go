package delivery_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/mailer"
	"github.com/dmitrymomot/notifykit/pkg/notifier"
)

type captureEnqueuer struct {
	mu   sync.Mutex
	jobs []job.Job
	opts []job.EnqueueOptions
	err  error
}

func (c *captureEnqueuer) Enqueue(_ context.Context, j job.Job, opts ...job.EnqueueOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.jobs = append(c.jobs, j)
	c.opts = append(c.opts, job.ApplyEnqueueOptions(opts...))
	return nil
}

func (c *captureEnqueuer) Jobs() []job.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]job.Job(nil), c.jobs...)
}

type fixture struct {
	base    *delivery.Class
	catalog *delivery.Catalog

	mailer   *mailer.Mailer
	notifier *notifier.Notifier
	mailJobs *captureEnqueuer
	pushJobs *captureEnqueuer

	mu     sync.Mutex
	emails []email.SendEmailParams
	pushes []notifier.Payload
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newFixture builds a tree with "mailer" and "notifier" lines on the root and
// EventsMailer/EventsNotifier in the catalog. EventsMailer handles canceled
// and reminded; EventsNotifier handles canceled.
func newFixture(t *testing.T, opts ...delivery.BaseOption) *fixture {
	t.Helper()

	f := &fixture{mailJobs: &captureEnqueuer{}, pushJobs: &captureEnqueuer{}}

	f.mailer = mailer.New("EventsMailer",
		mailer.WithLogger(quietLogger()),
		mailer.WithAsyncAdapter(f.mailJobs),
		mailer.WithSender(email.SenderFunc(func(_ context.Context, p email.SendEmailParams) error {
			f.mu.Lock()
			f.emails = append(f.emails, p)
			f.mu.Unlock()
			return nil
		})),
	)
	mailAction := func(_ context.Context, m *mailer.Instance, args job.Args) (*mailer.Message, error) {
		event, _ := args.At(0)
		to := m.Params().String("email")
		if to == "" {
			to = "user@example.com"
		}
		return &mailer.Message{
			To:      to,
			Subject: fmt.Sprintf("%s: %v", m.NotificationName(), event),
			Text:    "details",
		}, nil
	}
	f.mailer.Action("canceled", mailAction).Action("reminded", mailAction)

	f.notifier = notifier.New("EventsNotifier",
		notifier.WithLogger(quietLogger()),
		notifier.WithAsyncAdapter(f.pushJobs),
		notifier.WithDriver(notifier.DriverFunc(func(_ context.Context, p notifier.Payload) error {
			f.mu.Lock()
			f.pushes = append(f.pushes, p)
			f.mu.Unlock()
			return nil
		})),
	)
	f.notifier.Action("canceled", func(_ context.Context, n *notifier.Instance, args job.Args) (*notifier.Notification, error) {
		event, _ := args.At(0)
		return n.Notification(notifier.Payload{"body": fmt.Sprintf("canceled: %v", event)})
	})

	f.catalog = delivery.NewCatalog(f.mailer, f.notifier)
	f.base = delivery.NewBase(append([]delivery.BaseOption{
		delivery.WithCatalog(f.catalog),
		delivery.WithLogger(quietLogger()),
	}, opts...)...)
	require.NoError(t, f.base.RegisterLine("mailer", delivery.MailerLine))
	require.NoError(t, f.base.RegisterLine("notifier", delivery.NotifierLine))
	return f
}

func (f *fixture) Emails() []email.SendEmailParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]email.SendEmailParams(nil), f.emails...)
}

func (f *fixture) Pushes() []notifier.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notifier.Payload(nil), f.pushes...)
}

// namedHandler is a handler no built-in kind accepts.
type namedHandler string

func (h namedHandler) Name() string { return string(h) }
