package inbox

import (
	"fmt"
	"maps"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notifier"
)

// Type is the item severity shown by the UI.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// Payload keys read by ItemFromPayload.
const (
	KeyRecipient = "to"
	KeyTitle     = "title"
	KeyBody      = "body"
	KeyType      = "type"
	KeyData      = "data"
	KeyTTL       = "ttl"
)

// Item is one in-app notification.
type Item struct {
	ID        string         `json:"id"`
	Recipient string         `json:"recipient"`
	Type      Type           `json:"type"`
	Title     string         `json:"title,omitempty"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data,omitempty"`
	Read      bool           `json:"read"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

// IsExpired reports whether the item is past its expiry at now.
func (i *Item) IsExpired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}

// MarkAsRead flags the item as read at now.
func (i *Item) MarkAsRead(now time.Time) {
	i.Read = true
	i.ReadAt = &now
}

// ItemFromPayload maps a notifier payload to an item. KeyRecipient and
// KeyBody are required; KeyTTL accepts a time.Duration, its JSON
// number form in nanoseconds, or a duration string.
func ItemFromPayload(p notifier.Payload, now time.Time) (Item, error) {
	to, _ := p[KeyRecipient].(string)
	if to == "" {
		return Item{}, ErrRecipientRequired
	}
	body := p.Body()
	if body == "" {
		return Item{}, fmt.Errorf("%w: %q must be a non-empty string", ErrInvalidPayload, KeyBody)
	}

	item := Item{
		Recipient: to,
		Type:      TypeInfo,
		Body:      body,
		CreatedAt: now,
	}
	if title, ok := p[KeyTitle].(string); ok {
		item.Title = title
	}
	switch t := p[KeyType].(type) {
	case Type:
		item.Type = t
	case string:
		if t != "" {
			item.Type = Type(t)
		}
	}
	if data, ok := p[KeyData].(map[string]any); ok {
		item.Data = maps.Clone(data)
	}

	var ttl time.Duration
	switch v := p[KeyTTL].(type) {
	case time.Duration:
		ttl = v
	case float64:
		// A time.Duration that went through a JSON queue.
		ttl = time.Duration(v)
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return Item{}, fmt.Errorf("%w: %q: %v", ErrInvalidPayload, KeyTTL, err)
		}
		ttl = d
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		item.ExpiresAt = &exp
	}
	return item, nil
}
