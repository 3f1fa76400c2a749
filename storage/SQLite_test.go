//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "drlplace.db")

	store, err := NewStore("sqlite", dbPath)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	testStoreRoundTrip(t, store)
}

func TestSQLiteStorePersists(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "drlplace.db")

	first := NewSQLiteStore(dbPath)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	c := Checkpoint{VersionedRecord: Current(), Key: "k", RunID: "r",
		Step: 5, Payload: []byte("agent")}
	if err := first.SaveCheckpoint(ctx, c); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := NewSQLiteStore(dbPath)
	if err := second.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	loaded, ok, err := second.GetCheckpoint(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("get checkpoint: ok %v err %v", ok, err)
	}
	if string(loaded.Payload) != "agent" || loaded.Step != 5 {
		t.Errorf("unexpected checkpoint: %+v", loaded)
	}
}

func TestSQLiteStoreNotInitialized(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))
	if _, err := store.ListCheckpoints(context.Background(), "r"); err == nil {
		t.Errorf("expected error")
	}
}
