// Package render turns message records into HTML fragments. Rendering is
// pure: the same input always produces the same bytes, and user text is
// escaped by html/template on the way out.
package render

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/1363V4/datastar-void/internal/domain"
)

// MergeMode tells the client how to apply a fragment.
type MergeMode string

const (
	// MergeMorph replaces the whole messages container.
	MergeMorph MergeMode = "morph"
	// MergePrepend inserts a single message into the container.
	MergePrepend MergeMode = "prepend"
)

// Fragment is one rendered update ready for the wire.
type Fragment struct {
	HTML     string
	Merge    MergeMode
	Selector string // target selector, only set for prepend
}

// messagesSelector is the container both merge modes address.
const messagesSelector = "#messages"

const fullTemplate = `<div id="messages">{{range .}}{{template "message" .}}{{end}}</div>`

const messageTemplate = `<div id="msg-{{.ID}}" class="message" style="position:absolute;top:{{.Y}}%;left:{{.X}}%;background:{{.Color}};opacity:{{.Opacity}}">{{.Text}}</div>`

type messageView struct {
	ID      string
	Text    string
	Color   string
	X, Y    string
	Opacity string
}

// Renderer maps message records to markup fragments. Stateless apart from
// the parsed templates and the TTL used to derive fade-out opacity.
type Renderer struct {
	full   *template.Template
	single *template.Template
	ttl    time.Duration
}

func New(ttl time.Duration) *Renderer {
	single := template.Must(template.New("message").Parse(messageTemplate))
	full := template.Must(template.Must(single.Clone()).New("full").Parse(fullTemplate))
	return &Renderer{full: full, single: single, ttl: ttl}
}

// Full renders the entire live set as a replacement for the messages
// container.
func (r *Renderer) Full(messages []domain.Message) (Fragment, error) {
	views := make([]messageView, len(messages))
	for i, msg := range messages {
		views[i] = r.view(msg)
	}

	var sb strings.Builder
	if err := r.full.ExecuteTemplate(&sb, "full", views); err != nil {
		return Fragment{}, fmt.Errorf("failed to render full fragment: %w", err)
	}
	return Fragment{HTML: sb.String(), Merge: MergeMorph}, nil
}

// Incremental renders a single message for prepending into the container.
func (r *Renderer) Incremental(msg domain.Message) (Fragment, error) {
	var sb strings.Builder
	if err := r.single.ExecuteTemplate(&sb, "message", r.view(msg)); err != nil {
		return Fragment{}, fmt.Errorf("failed to render incremental fragment: %w", err)
	}
	return Fragment{HTML: sb.String(), Merge: MergePrepend, Selector: messagesSelector}, nil
}

func (r *Renderer) view(msg domain.Message) messageView {
	return messageView{
		ID:      msg.ID,
		Text:    msg.Text,
		Color:   msg.Color,
		X:       fmt.Sprintf("%.2f", msg.X),
		Y:       fmt.Sprintf("%.2f", msg.Y),
		Opacity: fmt.Sprintf("%.2f", msg.Opacity(r.ttl)),
	}
}
