package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/inbox"
	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/mailer"
	"github.com/dmitrymomot/notifykit/pkg/metrics"
	"github.com/dmitrymomot/notifykit/pkg/notifier"
)

const standInRecipient = "dev@example.com"

// runtime is a delivery tree built from a manifest, with stand-in handlers
// in place of application code. Stand-in mailers send through the configured
// email provider; stand-in notifiers write to an in-memory inbox.
type runtime struct {
	cfg      appConfig
	log      *slog.Logger
	manifest *delivery.Manifest
	catalog  *delivery.Catalog
	base     *delivery.Class
	classes  map[string]*delivery.Class
	inbox    *inbox.Inbox
	metrics  *prometheus.Registry
	backend  *backend
	jobs     *job.Registry
}

type standInDeps struct {
	sender   email.EmailSender
	inbox    *inbox.Inbox
	log      *slog.Logger
	notifier notifier.Config
}

func newRuntime(ctx context.Context, manifestPath string) (*runtime, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	m, err := delivery.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	sender, err := email.NewSender(cfg.Email, cfg.SMTP)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:      cfg,
		log:      log,
		manifest: m,
		metrics:  prometheus.NewRegistry(),
		inbox: inbox.New(inbox.NewMemoryStorage(),
			inbox.WithLogger(log),
			inbox.WithListener(logListener(log)),
		),
	}

	rt.catalog = delivery.NewCatalog(standIns(m.Handlers, standInDeps{
		sender:   sender,
		inbox:    rt.inbox,
		log:      log,
		notifier: cfg.Notifier,
	})...)
	rt.jobs = rt.catalog.JobRegistry()

	if rt.backend, err = openBackend(ctx, cfg); err != nil {
		return nil, err
	}
	enq, err := rt.backend.enqueuer(rt.jobs, cfg.Job, log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	for _, name := range rt.catalog.Names() {
		h, _ := rt.catalog.Lookup(name)
		switch h := h.(type) {
		case *mailer.Mailer:
			h.SetAsyncAdapter(enq)
		case *notifier.Notifier:
			h.SetAsyncAdapter(enq)
		}
	}

	obs, err := metrics.NewObserver(rt.metrics)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.base = delivery.NewBase(
		delivery.WithCatalog(rt.catalog),
		delivery.WithConfig(cfg.Delivery),
		delivery.WithLogger(log),
		delivery.WithObserver(obs),
	)
	if rt.classes, err = m.Build(rt.base); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// Class returns the manifest class called name.
func (rt *runtime) Class(name string) (*delivery.Class, error) {
	c, ok := rt.classes[name]
	if !ok {
		return nil, fmt.Errorf("delivery %q is not declared in the manifest", name)
	}
	return c, nil
}

func (rt *runtime) Close() {
	if rt.backend != nil {
		rt.backend.Close()
	}
}

func standIns(specs []delivery.HandlerSpec, d standInDeps) []delivery.Handler {
	out := make([]delivery.Handler, 0, len(specs))
	for _, spec := range specs {
		switch spec.Kind {
		case delivery.MailerLine.Name():
			m := mailer.New(spec.Name,
				mailer.WithSender(d.sender),
				mailer.WithLogger(d.log),
				mailer.WithDefaults(mailer.Defaults{Tag: spec.Name}),
			)
			for _, a := range spec.Actions {
				m.Action(a, standInMail)
			}
			out = append(out, m)
		case delivery.NotifierLine.Name():
			n := notifier.New(spec.Name,
				notifier.WithDriver(d.inbox),
				notifier.WithConfig(d.notifier),
				notifier.WithLogger(d.log),
			)
			for _, a := range spec.Actions {
				n.Action(a, standInNotification)
			}
			out = append(out, n)
		}
	}
	return out
}

func standInMail(_ context.Context, m *mailer.Instance, args job.Args) (*mailer.Message, error) {
	to := m.Params().String("to")
	if to == "" {
		to = standInRecipient
	}
	return &mailer.Message{
		To:      to,
		Subject: fmt.Sprintf("%s#%s", m.Mailer().Name(), m.NotificationName()),
		Text:    describeCall(m.Params(), args),
	}, nil
}

func standInNotification(_ context.Context, n *notifier.Instance, args job.Args) (*notifier.Notification, error) {
	to := n.Params().String("to")
	if to == "" {
		to = standInRecipient
	}
	return n.Notification(notifier.Payload{
		inbox.KeyRecipient: to,
		inbox.KeyTitle:     fmt.Sprintf("%s#%s", n.Notifier().Name(), n.NotificationName()),
		inbox.KeyBody:      describeCall(n.Params(), args),
	})
}

func describeCall(params job.Params, args job.Args) string {
	var b strings.Builder
	fmt.Fprintf(&b, "args: %v\n", args.Positional)

	keys := make([]string, 0, len(args.Keywords))
	for k := range args.Keywords {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, args.Keywords[k])
	}

	keys = keys[:0]
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "param %s: %v\n", k, params[k])
	}
	return b.String()
}

func logListener(log *slog.Logger) inbox.Listener {
	return inbox.ListenerFunc(func(ctx context.Context, item inbox.Item) error {
		log.LogAttrs(ctx, slog.LevelInfo, "inbox item stored",
			logger.Component("inbox"),
			slog.String("recipient", item.Recipient),
			slog.String("title", item.Title),
		)
		return nil
	})
}
