package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notifier"
)

// Listener is told about items after they are stored, for real-time
// fan-out such as SSE or websockets. Listener errors are logged only.
type Listener interface {
	Published(ctx context.Context, item Item) error
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ctx context.Context, item Item) error

// Published calls f.
func (f ListenerFunc) Published(ctx context.Context, item Item) error { return f(ctx, item) }

// Option configures an Inbox.
type Option func(*Inbox)

// WithListener adds a real-time listener.
func WithListener(l Listener) Option {
	return func(in *Inbox) {
		if l != nil {
			in.listeners = append(in.listeners, l)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(in *Inbox) {
		if l != nil {
			in.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(in *Inbox) {
		if now != nil {
			in.now = now
		}
	}
}

// Inbox stores in-app notifications and serves them back to their
// recipients. It is a notifier.Driver, so a notifier line can deliver to it.
type Inbox struct {
	storage   Storage
	listeners []Listener
	logger    *slog.Logger
	now       func() time.Time
}

var _ notifier.Driver = (*Inbox)(nil)

// New creates an Inbox over storage. A nil storage uses a MemoryStorage.
func New(storage Storage, opts ...Option) *Inbox {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	in := &Inbox{storage: storage, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Deliver implements notifier.Driver.
func (in *Inbox) Deliver(ctx context.Context, payload notifier.Payload) error {
	item, err := ItemFromPayload(payload, in.now())
	if err != nil {
		return err
	}
	_, err = in.Send(ctx, item)
	return err
}

// Send stores item, filling ID and CreatedAt when empty, then notifies the
// listeners.
func (in *Inbox) Send(ctx context.Context, item Item) (Item, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = in.now()
	}
	if item.Type == "" {
		item.Type = TypeInfo
	}
	if err := in.storage.Create(ctx, item); err != nil {
		return Item{}, fmt.Errorf("inbox: store item: %w", err)
	}

	for _, l := range in.listeners {
		if err := l.Published(ctx, item); err != nil {
			in.logger.LogAttrs(ctx, slog.LevelWarn, "inbox listener failed, item is stored",
				logger.Component("inbox"),
				slog.String("item_id", item.ID),
				slog.String("recipient", item.Recipient),
				logger.Error(err),
			)
		}
	}
	return item, nil
}

func (in *Inbox) Get(ctx context.Context, recipient, id string) (*Item, error) {
	return in.storage.Get(ctx, recipient, id)
}

func (in *Inbox) List(ctx context.Context, recipient string, opts ListOptions) ([]Item, error) {
	return in.storage.List(ctx, recipient, opts)
}

func (in *Inbox) MarkRead(ctx context.Context, recipient string, ids ...string) error {
	return in.storage.MarkRead(ctx, recipient, ids...)
}

// MarkAllRead marks every unread item of recipient as read.
func (in *Inbox) MarkAllRead(ctx context.Context, recipient string) error {
	items, err := in.storage.List(ctx, recipient, ListOptions{OnlyUnread: true})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return in.storage.MarkRead(ctx, recipient, ids...)
}

func (in *Inbox) Delete(ctx context.Context, recipient string, ids ...string) error {
	return in.storage.Delete(ctx, recipient, ids...)
}

func (in *Inbox) CountUnread(ctx context.Context, recipient string) (int, error) {
	return in.storage.CountUnread(ctx, recipient)
}

// Storage returns the underlying storage.
func (in *Inbox) Storage() Storage { return in.storage }
