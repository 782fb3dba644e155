package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

var testCounter atomic.Int64

// setupStore creates a fully isolated in-memory store per test.
func setupStore(t testing.TB) *Store {
	t.Helper()
	s, err := OpenInMemory(fmt.Sprintf("store-test-%d", testCounter.Add(1)))
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testNote(content string) Note {
	return Note{
		ID:         uuid.New().String(),
		Content:    content,
		AITitle:    "AI Analysis...",
		AICategory: "Uploading",
		CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}
}

func TestSave_InsertsAndReadsBack(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	n := testNote("buy milk")
	if err := s.Save(ctx, n); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 note, got %d", len(all))
	}
	if all[0] != n {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", all[0], n)
	}
}

func TestSave_UpsertOverwritesSameID(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	n := testNote("draft text")
	if err := s.Save(ctx, n); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Same id, enriched fields: must overwrite, never duplicate.
	n.AITitle = "Shopping"
	n.AICategory = "Errand"
	if err := s.Save(ctx, n); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("upsert created a duplicate: %d notes", len(all))
	}
	if all[0].AITitle != "Shopping" || all[0].AICategory != "Errand" {
		t.Errorf("fields not overwritten: %+v", all[0])
	}
}

func TestSave_RequiresID(t *testing.T) {
	s := setupStore(t)
	if err := s.Save(context.Background(), Note{Content: "no id"}); err == nil {
		t.Fatal("Save without id should fail")
	}
}

func TestGetAll_OrdersNewestFirst(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		n := testNote(fmt.Sprintf("note %d", i))
		n.CreatedAt = base.Add(time.Duration(i) * time.Minute).Format(time.RFC3339Nano)
		ids = append(ids, n.ID)
		if err := s.Save(ctx, n); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 notes, got %d", len(all))
	}
	for i, n := range all {
		// Newest first: index 0 is the last inserted.
		if want := ids[4-i]; n.ID != want {
			t.Errorf("position %d: got id %s, want %s", i, n.ID, want)
		}
	}
}

func TestDelete_RemovesNote(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	n := testNote("to be deleted")
	if err := s.Save(ctx, n); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Delete(ctx, n.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty collection, got %d notes", len(all))
	}
}

func TestDelete_AbsentIDIsNoOp(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	n := testNote("survivor")
	if err := s.Save(ctx, n); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := s.Delete(ctx, uuid.New().String()); err != nil {
		t.Fatalf("Delete of absent id should be a no-op, got: %v", err)
	}

	all, _ := s.GetAll(ctx)
	if len(all) != 1 {
		t.Errorf("absent-id delete changed the collection: %d notes", len(all))
	}
}

func TestSubscribe_DeliversInitialSnapshot(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	n := testNote("pre-existing")
	if err := s.Save(ctx, n); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var got [][]Note
	unsub, err := s.Subscribe(func(snapshot []Note) {
		got = append(got, snapshot)
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsub()

	if len(got) != 1 {
		t.Fatalf("expected 1 initial snapshot, got %d", len(got))
	}
	if len(got[0]) != 1 || got[0][0].ID != n.ID {
		t.Errorf("initial snapshot mismatch: %+v", got[0])
	}
}

func TestSubscribe_FanOutOnEveryMutation(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	var snapshots [][]Note
	unsub, err := s.Subscribe(func(snapshot []Note) {
		snapshots = append(snapshots, snapshot)
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsub()

	a := testNote("first")
	b := testNote("second")
	b.CreatedAt = time.Now().UTC().Add(time.Second).Format(time.RFC3339Nano)

	if err := s.Save(ctx, a); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(ctx, b); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// initial + save + save + delete
	if len(snapshots) != 4 {
		t.Fatalf("expected 4 snapshots, got %d", len(snapshots))
	}
	final := snapshots[len(snapshots)-1]
	if len(final) != 1 || final[0].ID != b.ID {
		t.Errorf("final snapshot mismatch: %+v", final)
	}
}

func TestSubscribe_UnsubscribeStopsDelivery(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	count := 0
	unsub, err := s.Subscribe(func([]Note) { count++ })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	unsub()

	if err := s.Save(ctx, testNote("after unsubscribe")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected only the initial snapshot, got %d deliveries", count)
	}
}

func TestSubscribe_MultipleSubscribersSeeSameFeed(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	var first, second int
	unsub1, err := s.Subscribe(func([]Note) { first++ })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsub1()
	unsub2, err := s.Subscribe(func([]Note) { second++ })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsub2()

	if err := s.Save(ctx, testNote("shared")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if first != 2 || second != 2 {
		t.Errorf("fan-out counts = (%d, %d), want (2, 2)", first, second)
	}
}

func TestSubscribe_FailsAfterClose(t *testing.T) {
	s := setupStore(t)
	s.Close()

	if _, err := s.Subscribe(func([]Note) {}); err == nil {
		t.Fatal("Subscribe on a closed store should surface a connectivity error")
	}
}
