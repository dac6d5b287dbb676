package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return st
}

func TestPutAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec := &CompileRecord{
		Name:       "wf",
		Version:    "abc123",
		DAGHash:    "dag1",
		SpecHash:   "spec1",
		Spec:       []byte(`{"name":"wf"}`),
		Entrypoint: "import os\n",
	}
	if err := st.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("Put did not assign an id")
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("Put did not assign a timestamp")
	}

	got, err := st.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "wf" || got.Version != "abc123" || string(got.Spec) != `{"name":"wf"}` {
		t.Errorf("Get = %+v", got)
	}
	if got.Entrypoint != "import os\n" {
		t.Errorf("Entrypoint = %q", got.Entrypoint)
	}
}

func TestGetByDAGHash(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.Put(ctx, &CompileRecord{
		Name: "wf", Version: "v1", DAGHash: "dag1", SpecHash: "s1",
		Spec: []byte("{}"), Entrypoint: "",
	}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := st.GetByDAGHash(ctx, "wf", "dag1")
	if err != nil {
		t.Fatalf("GetByDAGHash: %v", err)
	}
	if got.Version != "v1" {
		t.Errorf("Version = %q, want v1", got.Version)
	}

	if _, err := st.GetByDAGHash(ctx, "wf", "other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("miss error = %v, want ErrNotFound", err)
	}
	if _, err := st.GetByDAGHash(ctx, "other", "dag1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("name is part of the cache key; error = %v, want ErrNotFound", err)
	}
}

func TestPut_ReplacesSameDAG(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := &CompileRecord{Name: "wf", Version: "v1", DAGHash: "dag1", SpecHash: "s1", Spec: []byte("{}")}
	if err := st.Put(ctx, a); err != nil {
		t.Fatalf("Put: %v", err)
	}

	b := &CompileRecord{
		ID: a.ID, Name: "wf", Version: "v2", DAGHash: "dag1", SpecHash: "s2", Spec: []byte("{}"),
	}
	if err := st.Put(ctx, b); err != nil {
		t.Fatalf("Put replacement: %v", err)
	}

	got, err := st.GetByDAGHash(ctx, "wf", "dag1")
	if err != nil {
		t.Fatalf("GetByDAGHash: %v", err)
	}
	if got.Version != "v2" {
		t.Errorf("Version = %q, want v2 after replacement", got.Version)
	}
}

func TestList_NewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"old", "mid", "new"} {
		rec := &CompileRecord{
			Name: name, Version: "v", DAGHash: name, SpecHash: "s",
			Spec: []byte("{}"), CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := st.Put(ctx, rec); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	recs, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("List = %d records, want 3", len(recs))
	}
	if recs[0].Name != "new" || recs[2].Name != "old" {
		t.Errorf("order = [%s %s %s], want newest first", recs[0].Name, recs[1].Name, recs[2].Name)
	}
}

func TestGet_NotFound(t *testing.T) {
	st := newTestStore(t)
	if _, err := st.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get miss = %v, want ErrNotFound", err)
	}
}
