package delivery_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
	"github.com/dmitrymomot/notifykit/pkg/notifier"
)

const manifestYAML = `
lines:
  - id: mailer
    kind: mailer
  - id: push
    kind: notifier
    pattern: "{delivery_namespace}{delivery_name}Pusher"
handlers:
  - name: EventsMailer
    kind: mailer
    actions: [canceled]
deliveries:
  - name: ApplicationDelivery
    abstract: true
  - name: EventsDelivery
    parent: ApplicationDelivery
    delivers: [canceled, reminded]
    lines:
      - id: sms
        kind: notifier
        suffix: SMS
  - name: admin.EventsDelivery
    parent: EventsDelivery
    unregister: [sms]
    handlers:
      mailer: CustomMailer
`

func TestParseManifest(t *testing.T) {
	t.Parallel()

	m, err := delivery.ParseManifest(strings.NewReader(manifestYAML))
	require.NoError(t, err)

	require.Len(t, m.Lines, 2)
	assert.Equal(t, "{delivery_namespace}{delivery_name}Pusher", m.Lines[1].Pattern)
	require.Len(t, m.Handlers, 1)
	assert.Equal(t, []string{"canceled"}, m.Handlers[0].Actions)
	require.Len(t, m.Deliveries, 3)
	assert.True(t, m.Deliveries[0].Abstract)
	assert.Equal(t, map[string]string{"mailer": "CustomMailer"}, m.Deliveries[2].Handlers)
	require.NoError(t, m.Validate())
}

func TestParseManifest_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := delivery.ParseManifest(strings.NewReader("deliveries:\n  - name: X\n    colour: red\n"))
	assert.ErrorIs(t, err, delivery.ErrInvalidManifest)
}

func TestParseManifest_Empty(t *testing.T) {
	t.Parallel()

	m, err := delivery.ParseManifest(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, m.Deliveries)
}

func TestManifest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		m    delivery.Manifest
		err  error
	}{
		{
			name: "unknown kind",
			m:    delivery.Manifest{Lines: []delivery.LineSpec{{ID: "fax", Kind: "fax"}}},
			err:  delivery.ErrUnknownKind,
		},
		{
			name: "line without id",
			m:    delivery.Manifest{Lines: []delivery.LineSpec{{Kind: "mailer"}}},
			err:  delivery.ErrInvalidManifest,
		},
		{
			name: "parent declared later",
			m: delivery.Manifest{Deliveries: []delivery.ClassSpec{
				{Name: "EventsDelivery", Parent: "ApplicationDelivery"},
				{Name: "ApplicationDelivery"},
			}},
			err: delivery.ErrInvalidManifest,
		},
		{
			name: "duplicate delivery",
			m:    delivery.Manifest{Deliveries: []delivery.ClassSpec{{Name: "A"}, {Name: "A"}}},
			err:  delivery.ErrInvalidManifest,
		},
		{
			name: "handler kind",
			m:    delivery.Manifest{Handlers: []delivery.HandlerSpec{{Name: "X", Kind: "pigeon"}}},
			err:  delivery.ErrUnknownKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, tt.m.Validate(), tt.err)
		})
	}
}

func TestManifest_Build(t *testing.T) {
	t.Parallel()

	m, err := delivery.ParseManifest(strings.NewReader(manifestYAML))
	require.NoError(t, err)

	f := newFixture(t)
	base := delivery.NewBase(delivery.WithCatalog(f.catalog), delivery.WithLogger(quietLogger()))
	pusher := notifier.New("EventsPusher")
	sms := notifier.New("EventsSMS")
	f.catalog.Register(pusher, sms)

	classes, err := m.Build(base)
	require.NoError(t, err)
	require.Len(t, classes, 3)

	app := classes["ApplicationDelivery"]
	events := classes["EventsDelivery"]
	admin := classes["admin.EventsDelivery"]

	assert.True(t, app.IsAbstract())
	assert.Same(t, app, events.Parent())
	assert.Equal(t, []string{"canceled", "reminded"}, events.Actions())
	assert.Equal(t, []string{"mailer", "push", "sms"}, events.LineIDs())
	assert.Equal(t, []string{"mailer", "push"}, admin.LineIDs())

	assert.Nil(t, app.HandlerFor("mailer"))
	assert.Same(t, f.mailer, events.HandlerFor("mailer"))
	assert.Same(t, pusher, events.HandlerFor("push"))
	assert.Same(t, sms, events.HandlerFor("sms"))
	assert.Nil(t, admin.HandlerFor("mailer"), "CustomMailer is not in the catalog")
	assert.Same(t, pusher, admin.HandlerFor("push"), "admin.EventsPusher is missing, parent's handler is used")
}

func TestManifest_BuildUnknownHandlerLine(t *testing.T) {
	t.Parallel()

	m := delivery.Manifest{Deliveries: []delivery.ClassSpec{
		{Name: "EventsDelivery", Handlers: map[string]string{"fax": "FaxSender"}},
	}}
	_, err := m.Build(delivery.NewBase())
	assert.ErrorIs(t, err, delivery.ErrLineNotFound)
}

func TestLoadManifest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deliveries.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifestYAML), 0o600))

	m, err := delivery.LoadManifest(path)
	require.NoError(t, err)
	assert.Len(t, m.Deliveries, 3)

	_, err = delivery.LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
