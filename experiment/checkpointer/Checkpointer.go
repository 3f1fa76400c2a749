// Package checkpointer implements checkpointing of agents to a
// storage.Store during an experiment
package checkpointer

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/samuelfneumann/drlplace/storage"
)

// Serializable is an object that can be saved/serialized
type Serializable interface {
	gob.GobEncoder
	gob.GobDecoder
}

// Checkpointer checkpoints/saves serializable objects based on the
// number of decisions taken in an experiment
type Checkpointer interface {
	Checkpoint(ctx context.Context, step int) error
}

// Restore decodes the checkpoint saved under key into object. It
// returns false if no such checkpoint exists.
func Restore(ctx context.Context, store storage.Store, key string,
	object Serializable) (bool, error) {
	c, ok, err := store.GetCheckpoint(ctx, key)
	if err != nil || !ok {
		return false, err
	}

	if err := gob.NewDecoder(bytes.NewReader(c.Payload)).Decode(object); err != nil {
		return false, fmt.Errorf("restore: could not decode checkpoint %v: %v",
			key, err)
	}
	return true, nil
}

// RestoreLatest decodes the most recent checkpoint of a run into
// object. It returns the key restored from, or the empty string if the
// run has no checkpoints.
func RestoreLatest(ctx context.Context, store storage.Store, runID string,
	object Serializable) (string, error) {
	keys, err := store.ListCheckpoints(ctx, runID)
	if err != nil {
		return "", fmt.Errorf("restoreLatest: %w", err)
	}
	if len(keys) == 0 {
		return "", nil
	}

	key := keys[len(keys)-1]
	if _, err := Restore(ctx, store, key, object); err != nil {
		return "", err
	}
	return key, nil
}
