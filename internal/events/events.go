// Package events emits audit events for comment mutations.
package events

import (
	"context"

	"github.com/sirupsen/logrus"
)

type Kind string

const (
	KindCreated   Kind = "comment.created"
	KindEdited    Kind = "comment.edited"
	KindDeleted   Kind = "comment.deleted"
	KindModerated Kind = "comment.moderated"
)

// Event is the payload handed to the external dispatcher. Delivery
// guarantees are entirely the dispatcher's problem; this service fires and
// forgets.
type Event struct {
	Kind          Kind
	PageID        string
	CommentID     string
	Author        string
	BodyPreview   string
	Status        string
	OriginAddress string
}

type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// LogEmitter writes events to the structured log. It stands in for a real
// dispatcher in development and doubles as the audit trail.
type LogEmitter struct {
	log *logrus.Logger
}

func NewLogEmitter(log *logrus.Logger) *LogEmitter {
	return &LogEmitter{log: log}
}

func (e *LogEmitter) Emit(_ context.Context, event Event) {
	e.log.WithFields(logrus.Fields{
		"kind":       event.Kind,
		"page_id":    event.PageID,
		"comment_id": event.CommentID,
		"author":     event.Author,
		"preview":    event.BodyPreview,
		"status":     event.Status,
		"origin":     event.OriginAddress,
	}).Info("audit event")
}

const previewLimit = 120

// Preview truncates a comment body for event payloads.
func Preview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewLimit {
		return body
	}
	return string(runes[:previewLimit]) + "…"
}
