// Package storage persists agent checkpoints and evaluation summaries
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/samuelfneumann/drlplace/experiment/tracker"
)

// ErrNotInitialized is returned by Stores used before Init
var ErrNotInitialized = errors.New("store is not initialized")

// VersionedRecord stamps persisted records with the schema and codec
// they were written with
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Current returns the VersionedRecord of records written by this build
func Current() VersionedRecord {
	return VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}

// Checkpoint is a serialized object saved at some step of a run
type Checkpoint struct {
	VersionedRecord
	Key       string    `json:"key"`
	RunID     string    `json:"run_id"`
	Step      int       `json:"step"`
	CreatedAt time.Time `json:"created_at"`
	Payload   []byte    `json:"payload"`
}

// RunSummary is the evaluation summary of one policy in one run
type RunSummary struct {
	VersionedRecord
	RunID   string          `json:"run_id"`
	Summary tracker.Summary `json:"summary"`
}

// Store defines the persistence operations of an experiment
type Store interface {
	Init(ctx context.Context) error

	SaveCheckpoint(ctx context.Context, c Checkpoint) error
	GetCheckpoint(ctx context.Context, key string) (Checkpoint, bool, error)

	// ListCheckpoints returns the keys of all checkpoints of a run,
	// ordered by step
	ListCheckpoints(ctx context.Context, runID string) ([]string, error)

	SaveSummary(ctx context.Context, s RunSummary) error
	GetSummary(ctx context.Context, runID, policy string) (RunSummary, bool, error)

	Close() error
}
