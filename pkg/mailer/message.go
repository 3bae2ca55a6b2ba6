package mailer

import (
	"context"
	"maps"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/notifykit/pkg/email"
)

// Message is the email an action builds.
type Message struct {
	To       string
	Subject  string
	HTML     string
	Text     string
	ReplyTo  string
	Tag      string
	Metadata map[string]string
}

// Render renders c into the HTML body.
func (m *Message) Render(ctx context.Context, c templ.Component) error {
	html, err := email.Render(ctx, c)
	if err != nil {
		return err
	}
	m.HTML = html
	return nil
}

// SendParams converts the message into email sender parameters.
func (m *Message) SendParams() email.SendEmailParams {
	return email.SendEmailParams{
		SendTo:   m.To,
		Subject:  m.Subject,
		BodyHTML: m.HTML,
		BodyText: m.Text,
		ReplyTo:  m.ReplyTo,
		Tag:      m.Tag,
		Metadata: maps.Clone(m.Metadata),
	}
}

// Defaults are applied to every message a mailer builds. Fields set on the
// message win.
type Defaults struct {
	ReplyTo  string
	Tag      string
	Metadata map[string]string
}

func (d Defaults) merge(over Defaults) Defaults {
	out := Defaults{ReplyTo: d.ReplyTo, Tag: d.Tag, Metadata: maps.Clone(d.Metadata)}
	if over.ReplyTo != "" {
		out.ReplyTo = over.ReplyTo
	}
	if over.Tag != "" {
		out.Tag = over.Tag
	}
	if len(over.Metadata) > 0 {
		if out.Metadata == nil {
			out.Metadata = make(map[string]string, len(over.Metadata))
		}
		maps.Copy(out.Metadata, over.Metadata)
	}
	return out
}

func (d Defaults) apply(m *Message) {
	if m.ReplyTo == "" {
		m.ReplyTo = d.ReplyTo
	}
	if m.Tag == "" {
		m.Tag = d.Tag
	}
	for k, v := range d.Metadata {
		if m.Metadata == nil {
			m.Metadata = make(map[string]string, len(d.Metadata))
		}
		if _, ok := m.Metadata[k]; !ok {
			m.Metadata[k] = v
		}
	}
}
