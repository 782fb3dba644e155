// Package notes orchestrates the note lifecycle: guarded submission with
// optimistic placeholder, best-effort enrichment, persistence with a
// fallback path, deletion, and reconciliation of the live store feed into
// the visible application state.
package notes

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kuitang/cloudnotes/internal/enrich"
	"github.com/kuitang/cloudnotes/internal/i18n"
	"github.com/kuitang/cloudnotes/internal/logutil"
	"github.com/kuitang/cloudnotes/internal/obs"
	"github.com/kuitang/cloudnotes/internal/prefs"
	"github.com/kuitang/cloudnotes/internal/store"
)

// DefaultDismissInterval is how long a toast stays before auto-dismissing.
const DefaultDismissInterval = 3 * time.Second

const contentLogPreview = 80

// Controller owns the visible application state. The note list is mutated
// only by the store feed's full-snapshot replacement; the one exception is
// the optimistic placeholder, which rides ahead of the snapshot until its
// submission settles.
type Controller struct {
	store    NoteStore
	enricher enrich.Enricher
	prefs    *prefs.Service
	log      *slog.Logger

	dismissAfter time.Duration

	mu        sync.Mutex
	snapshot  []store.Note
	pending   *store.Note
	online    bool
	lang      i18n.Lang
	toast     *Notification
	toastSeq  uint64
	unsub     store.UnsubscribeFunc
	listeners map[int64]func([]store.Note)
	nextLnID  int64

	submitting atomic.Bool
	wg         sync.WaitGroup
}

// NewController wires the controller. The language selector is restored
// from preferences, falling back to defaultLang.
func NewController(st NoteStore, enricher enrich.Enricher, pr *prefs.Service, defaultLang i18n.Lang) *Controller {
	return &Controller{
		store:        st,
		enricher:     enricher,
		prefs:        pr,
		log:          obs.Pkg("notes"),
		dismissAfter: DefaultDismissInterval,
		lang:         pr.Language(defaultLang),
		listeners:    make(map[int64]func([]store.Note)),
	}
}

// Start establishes the live subscription. On failure the controller stays
// usable in offline state: the error is surfaced as a persistent offline
// indicator plus a one-time error notification, and also returned so the
// caller can log it. No automatic retry is attempted.
func (c *Controller) Start() error {
	unsub, err := c.store.Subscribe(c.applySnapshot)
	if err != nil {
		c.mu.Lock()
		c.online = false
		c.setToastLocked(c.lang.Strings().ConnectionError, NotificationError)
		c.mu.Unlock()
		c.log.Error("note feed subscription failed", "error", err)
		return err
	}

	c.mu.Lock()
	c.unsub = unsub
	c.mu.Unlock()
	return nil
}

// Stop releases the subscription and waits for in-flight submission work.
func (c *Controller) Stop() {
	c.mu.Lock()
	unsub := c.unsub
	c.unsub = nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	c.wg.Wait()
}

// applySnapshot is the store feed callback: full replacement, never a
// local merge, so the view converges to exactly what the store holds.
func (c *Controller) applySnapshot(snapshot []store.Note) {
	c.mu.Lock()
	c.snapshot = snapshot
	c.online = true
	c.notifyListenersLocked()
	c.mu.Unlock()
}

// Submit runs one note submission. It reports false without side effects
// when content is empty/whitespace-only or another submission is still in
// flight. On acceptance the placeholder note becomes visible immediately
// and the enrich-then-persist pipeline continues in the background; the
// returned note is the placeholder.
func (c *Controller) Submit(ctx context.Context, content string) (store.Note, bool) {
	if strings.TrimSpace(content) == "" {
		return store.Note{}, false
	}
	if !c.submitting.CompareAndSwap(false, true) {
		return store.Note{}, false
	}

	lang := c.Language()
	placeholder := i18n.PlaceholderPair(lang)
	note := store.Note{
		ID:         uuid.New().String(),
		Content:    content,
		AITitle:    placeholder.Title,
		AICategory: placeholder.Category,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}

	c.mu.Lock()
	c.pending = &note
	c.notifyListenersLocked()
	c.mu.Unlock()

	c.log.Info("submission accepted",
		"note_id", note.ID,
		"lang", lang,
		"content", logutil.TruncateForLog(content, contentLogPreview))

	// The pipeline outlives the submitting request; in-flight work is
	// never cancelled, the single-flight guard prevents overlap instead.
	bgCtx := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.settle()
		c.finalize(bgCtx, note, lang)
	}()

	return note, true
}

// finalize overwrites the placeholder fields with the enrichment result
// and persists the final record. A failed persist falls back to persisting
// the placeholder note as-is: the user's text is never lost.
func (c *Controller) finalize(ctx context.Context, note store.Note, lang i18n.Lang) {
	result := c.enricher.Enhance(ctx, note.Content, lang)

	final := note
	final.AITitle = result.Title
	final.AICategory = result.Category

	strs := lang.Strings()
	if err := c.store.Save(ctx, final); err != nil {
		c.log.Error("persist after enrichment failed, saving placeholder", "note_id", note.ID, "error", err)
		if err := c.store.Save(ctx, note); err != nil {
			c.log.Error("fallback persist failed", "note_id", note.ID, "error", err)
			c.SetNotification(strs.ConnectionError, NotificationError)
			return
		}
		c.SetNotification(strs.SavedFallback, NotificationInfo)
		return
	}

	if result.Fallback {
		c.SetNotification(strs.SavedFallback, NotificationInfo)
		return
	}
	c.SetNotification(strs.SaveSuccess, NotificationSuccess)
}

// settle clears the optimistic placeholder and reopens the submit guard.
func (c *Controller) settle() {
	c.mu.Lock()
	c.pending = nil
	c.notifyListenersLocked()
	c.mu.Unlock()
	c.submitting.Store(false)
}

// Delete asks the store to remove the note. No optimistic local removal:
// the visible list changes when the feed reports it. Not retried.
func (c *Controller) Delete(ctx context.Context, id string) error {
	strs := c.Language().Strings()
	if err := c.store.Delete(ctx, id); err != nil {
		c.log.Error("delete failed", "note_id", id, "error", err)
		c.SetNotification(strs.DeleteError, NotificationError)
		return err
	}
	c.SetNotification(strs.DeleteInfo, NotificationInfo)
	return nil
}

// Notes returns the visible list: the optimistic placeholder (if any)
// ahead of the latest store snapshot, newest first.
func (c *Controller) Notes() []store.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() []store.Note {
	view := make([]store.Note, 0, len(c.snapshot)+1)
	if c.pending != nil {
		view = append(view, *c.pending)
	}
	for _, n := range c.snapshot {
		if c.pending != nil && n.ID == c.pending.ID {
			continue
		}
		view = append(view, n)
	}
	return view
}

// Filter returns the notes whose content or title contains query,
// case-folded. An empty query returns the full list; relative order is
// preserved. No fuzzy matching, no ranking.
func (c *Controller) Filter(query string) []store.Note {
	all := c.Notes()
	if query == "" {
		return all
	}

	folded := strings.ToLower(query)
	matched := make([]store.Note, 0, len(all))
	for _, n := range all {
		if strings.Contains(strings.ToLower(n.Content), folded) ||
			strings.Contains(strings.ToLower(n.AITitle), folded) {
			matched = append(matched, n)
		}
	}
	return matched
}

// Stats recomputes category counts over the full visible set. O(n) per
// call, acceptable at this scale.
func (c *Controller) Stats() AppStats {
	all := c.Notes()
	stats := AppStats{
		Total:      len(all),
		Categories: make(map[string]int),
	}
	for _, n := range all {
		stats.Categories[n.AICategory]++
	}
	return stats
}

// Online reports whether the live feed has been established.
func (c *Controller) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// Language returns the active UI language.
func (c *Controller) Language() i18n.Lang {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lang
}

// SetLanguage switches the UI language and persists the selector.
func (c *Controller) SetLanguage(lang i18n.Lang) error {
	if err := c.prefs.SetLanguage(lang); err != nil {
		return err
	}
	c.mu.Lock()
	c.lang = lang
	c.mu.Unlock()
	return nil
}

// Notification returns the currently shown toast, or nil.
func (c *Controller) Notification() *Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.toast == nil {
		return nil
	}
	copied := *c.toast
	return &copied
}

// SetNotification replaces the single toast slot and schedules its
// auto-dismissal.
func (c *Controller) SetNotification(message string, kind NotificationKind) {
	c.mu.Lock()
	c.setToastLocked(message, kind)
	c.mu.Unlock()
}

func (c *Controller) setToastLocked(message string, kind NotificationKind) {
	c.toastSeq++
	seq := c.toastSeq
	c.toast = &Notification{Message: message, Kind: kind}

	time.AfterFunc(c.dismissAfter, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// A newer toast already replaced this one; leave it alone.
		if c.toastSeq != seq {
			return
		}
		c.toast = nil
	})
}

// AddListener registers a callback receiving the visible list on every
// change (snapshot replacement or placeholder transition), starting with
// the current view. Callbacks must not block. The returned func removes
// the listener.
func (c *Controller) AddListener(onChange func([]store.Note)) func() {
	c.mu.Lock()
	id := c.nextLnID
	c.nextLnID++
	c.listeners[id] = onChange
	onChange(c.viewLocked())
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) notifyListenersLocked() {
	if len(c.listeners) == 0 {
		return
	}
	view := c.viewLocked()
	for _, onChange := range c.listeners {
		onChange(view)
	}
}
