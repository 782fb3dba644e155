package notes

import (
	"context"

	"github.com/kuitang/cloudnotes/internal/store"
)

// NoteStore is the document store contract the controller consumes.
// *store.Store satisfies it; tests substitute fakes.
type NoteStore interface {
	Save(ctx context.Context, note store.Note) error
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context) ([]store.Note, error)
	Subscribe(onChange func([]store.Note)) (store.UnsubscribeFunc, error)
}

// NotificationKind classifies a toast.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationInfo    NotificationKind = "info"
	NotificationError   NotificationKind = "error"
)

// Notification is the single-slot transient toast. A new notification
// replaces any currently shown one; each auto-dismisses after the
// controller's dismiss interval.
type Notification struct {
	Message string           `json:"message"`
	Kind    NotificationKind `json:"kind"`
}

// AppStats is the derived category aggregation, recomputed from the full
// visible note set on every read.
type AppStats struct {
	Total      int            `json:"total"`
	Categories map[string]int `json:"categories"`
}
