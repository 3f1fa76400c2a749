package checkpointer

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/samuelfneumann/drlplace/storage"
)

// nStep implements checkpointing every N steps
type nStep struct {
	interval int
	object   Serializable // Object to save
	store    storage.Store
	runID    string

	// key returns the key to save the object under.
	//
	// If each checkpoint should be kept under its own enumerated key
	// (e.g. run-1, run-2, ..., run-K), then simply use KeyEnumerator.
	// Otherwise, if the key does not matter, use KeyTimer. For example:
	//
	// n := NewNStep(10, object, store, runID, KeyTimer(runID))
	key func() string
}

// NewNStep returns a checkpointer that checkpoints object into store
// every n steps of the run with the given ID
func NewNStep(n int, object Serializable, store storage.Store, runID string,
	key func() string) (Checkpointer, error) {
	if n < 1 {
		return nil, fmt.Errorf("newNStep: interval must be positive "+
			"\n\twant(>0) \n\thave(%v)", n)
	}
	if object == nil || store == nil || key == nil {
		return nil, fmt.Errorf("newNStep: object, store and key must be set")
	}

	return &nStep{
		interval: n,
		object:   object,
		store:    store,
		runID:    runID,
		key:      key,
	}, nil
}

// Checkpoint gob encodes the Checkpointer's tracked object into its
// store if step is a positive multiple of the interval
func (n *nStep) Checkpoint(ctx context.Context, step int) error {
	if step <= 0 || step%n.interval != 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(n.object); err != nil {
		return fmt.Errorf("checkpoint: could not encode object: %v", err)
	}

	c := storage.Checkpoint{
		VersionedRecord: storage.Current(),
		Key:             n.key(),
		RunID:           n.runID,
		Step:            step,
		CreatedAt:       time.Now().UTC(),
		Payload:         buf.Bytes(),
	}
	if err := n.store.SaveCheckpoint(ctx, c); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}
