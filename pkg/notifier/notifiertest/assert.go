package notifiertest

import (
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifykit/pkg/notifier"
)

// AssertSent checks that notifierName sent a notification whose payload
// contains every key of want with an equal value.
func AssertSent(t assert.TestingT, r *Recorder, notifierName string, want notifier.Payload) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	return assertMatch(t, "sent", r.Sent(), notifierName, want)
}

// AssertEnqueued is AssertSent for notifications delivered later.
func AssertEnqueued(t assert.TestingT, r *Recorder, notifierName string, want notifier.Payload) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	return assertMatch(t, "enqueued", r.Enqueued(), notifierName, want)
}

// AssertNothingSent checks that no notification was sent or enqueued.
func AssertNothingSent(t assert.TestingT, r *Recorder) bool {
	ok := assert.Empty(t, r.Sent(), "expected no sent notifications")
	return assert.Empty(t, r.Enqueued(), "expected no enqueued notifications") && ok
}

func assertMatch(t assert.TestingT, kind string, got []notifier.Delivered, notifierName string, want notifier.Payload) bool {
	for _, d := range got {
		if d.Notifier == notifierName && contains(d.Payload, want) {
			return true
		}
	}
	return assert.Fail(t, "notification not "+kind,
		"expected %s to have %s a notification matching %v, got %v", notifierName, kind, want, got)
}

func contains(payload, want notifier.Payload) bool {
	for k, v := range want {
		got, ok := payload[k]
		if !ok || !assert.ObjectsAreEqual(v, got) {
			return false
		}
	}
	return true
}
