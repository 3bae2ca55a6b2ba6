package delivery

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest declares a delivery tree in YAML:
//
//	lines:
//	  - id: mailer
//	    kind: mailer
//	  - id: push
//	    kind: notifier
//	    pattern: "{delivery_namespace}{delivery_name}Pusher"
//	handlers:
//	  - name: EventsMailer
//	    kind: mailer
//	    actions: [canceled]
//	deliveries:
//	  - name: ApplicationDelivery
//	    abstract: true
//	  - name: EventsDelivery
//	    parent: ApplicationDelivery
//	    delivers: [canceled]
//
// Handlers are informational for the delivery package; tools such as
// notifyctl use them to build stand-in handler classes.
type Manifest struct {
	Lines      []LineSpec    `yaml:"lines"`
	Handlers   []HandlerSpec `yaml:"handlers"`
	Deliveries []ClassSpec   `yaml:"deliveries"`
}

// LineSpec declares a line.
type LineSpec struct {
	ID      string `yaml:"id"`
	Kind    string `yaml:"kind"`
	Suffix  string `yaml:"suffix,omitempty"`
	Pattern string `yaml:"pattern,omitempty"`
	Handler string `yaml:"handler,omitempty"`
}

// HandlerSpec names a handler class and its actions.
type HandlerSpec struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Actions []string `yaml:"actions"`
}

// ClassSpec declares a delivery class. An empty Parent means the root.
type ClassSpec struct {
	Name       string            `yaml:"name"`
	Parent     string            `yaml:"parent,omitempty"`
	Abstract   bool              `yaml:"abstract,omitempty"`
	Delivers   []string          `yaml:"delivers,omitempty"`
	Lines      []LineSpec        `yaml:"lines,omitempty"`
	Unregister []string          `yaml:"unregister,omitempty"`
	Handlers   map[string]string `yaml:"handlers,omitempty"`
}

// ParseManifest decodes a manifest. Unknown fields are rejected; references
// and kinds are checked by Validate and Build.
func ParseManifest(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return &m, nil
}

// LoadManifest reads and decodes the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("delivery: open manifest: %w", err)
	}
	defer f.Close()
	return ParseManifest(f)
}

// Validate checks names, references and kinds against the built-in kinds
// and extra.
func (m *Manifest) Validate(extra ...Kind) error {
	kinds := kindIndex(extra)
	var errs []error

	checkLines := func(owner string, lines []LineSpec) {
		for _, l := range lines {
			if l.ID == "" {
				errs = append(errs, fmt.Errorf("%w: %s: line without id", ErrInvalidManifest, owner))
			}
			if _, ok := kinds[l.Kind]; !ok {
				errs = append(errs, fmt.Errorf("%w: %s: line %q: %q", ErrUnknownKind, owner, l.ID, l.Kind))
			}
		}
	}
	checkLines("root", m.Lines)

	for _, h := range m.Handlers {
		if h.Name == "" {
			errs = append(errs, fmt.Errorf("%w: handler without name", ErrInvalidManifest))
		}
		if _, ok := kinds[h.Kind]; !ok {
			errs = append(errs, fmt.Errorf("%w: handler %q: %q", ErrUnknownKind, h.Name, h.Kind))
		}
	}

	seen := make(map[string]bool, len(m.Deliveries))
	for _, d := range m.Deliveries {
		switch {
		case d.Name == "":
			errs = append(errs, fmt.Errorf("%w: delivery without name", ErrInvalidManifest))
		case seen[d.Name]:
			errs = append(errs, fmt.Errorf("%w: delivery %q declared twice", ErrInvalidManifest, d.Name))
		case d.Parent != "" && !seen[d.Parent]:
			errs = append(errs, fmt.Errorf("%w: delivery %q: parent %q must be declared first", ErrInvalidManifest, d.Name, d.Parent))
		}
		seen[d.Name] = true
		checkLines(d.Name, d.Lines)
	}
	return errors.Join(errs...)
}

// Build registers the manifest lines on base and creates its classes, in
// declaration order. extra adds custom kinds, matched by Kind.Name.
func (m *Manifest) Build(base *Class, extra ...Kind) (map[string]*Class, error) {
	if err := m.Validate(extra...); err != nil {
		return nil, err
	}
	kinds := kindIndex(extra)

	for _, l := range m.Lines {
		if err := registerSpec(base, l, kinds); err != nil {
			return nil, err
		}
	}

	classes := make(map[string]*Class, len(m.Deliveries))
	for _, d := range m.Deliveries {
		parent := base
		if d.Parent != "" {
			parent = classes[d.Parent]
		}

		var opts []ClassOption
		if d.Abstract {
			opts = append(opts, Abstract())
		}
		c := parent.Subclass(d.Name, opts...)
		c.Delivers(d.Delivers...)

		for _, l := range d.Lines {
			if err := registerSpec(c, l, kinds); err != nil {
				return nil, err
			}
		}
		for _, id := range d.Unregister {
			c.UnregisterLine(id)
		}
		for id, name := range d.Handlers {
			if err := c.SetHandlerName(id, name); err != nil {
				return nil, fmt.Errorf("delivery %q: %w", d.Name, err)
			}
		}
		classes[d.Name] = c
	}
	return classes, nil
}

func registerSpec(c *Class, l LineSpec, kinds map[string]Kind) error {
	var opts []LineOption
	if l.Suffix != "" {
		opts = append(opts, WithSuffix(l.Suffix))
	}
	if l.Pattern != "" {
		opts = append(opts, WithResolverPattern(l.Pattern))
	}
	if l.Handler != "" {
		opts = append(opts, WithHandlerName(l.Handler))
	}
	return c.RegisterLine(l.ID, kinds[l.Kind], opts...)
}

func kindIndex(extra []Kind) map[string]Kind {
	idx := map[string]Kind{
		MailerLine.Name():   MailerLine,
		NotifierLine.Name(): NotifierLine,
	}
	for _, k := range extra {
		if k != nil {
			idx[k.Name()] = k
		}
	}
	return idx
}
