package domain

import "time"

// Message is a single posted wall message. All attributes are assigned
// exactly once at publish time and never change afterwards.
type Message struct {
	ID    string  `json:"id"`
	Text  string  `json:"message"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`

	// Remaining is the time left before the message expires, measured at
	// read time. Zero means the backing store does not expire messages.
	Remaining time.Duration `json:"-"`
}

// Opacity returns the fade-out weight for a message read from an expiring
// store: 1 when freshly published, approaching 0 near expiry. Messages
// without an expiry render fully opaque.
func (m Message) Opacity(ttl time.Duration) float64 {
	if m.Remaining <= 0 || ttl <= 0 {
		return 1
	}
	o := float64(m.Remaining) / float64(ttl)
	if o > 1 {
		return 1
	}
	return o
}

// Viewer is the anonymous identity of one connected client, assigned once
// per browser session and stable across all requests within it.
type Viewer struct {
	Name string
}
