// Package experiment implements functionality for running an experiment
package experiment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samuelfneumann/drlplace/experiment/tracker"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments send a tracker.Record for each placement decision to
// their Trackers, which cache the data to be later saved. The Save()
// function will then have each Tracker save its data. This is usually
// performed after an experiment has been run. The Run() method will
// run all episodes until the maximum number of decisions is reached.
// The RunEpisode() function will run a single episode.
type Experiment interface {
	Run(ctx context.Context) error

	// Returns whether or not the decision limit has been reached
	RunEpisode(ctx context.Context) (bool, error)

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t tracker.Tracker)

	// Save all tracked data
	Save() error
}

// Config represents a configuration of an experiment
type Config struct {
	// MaxSteps is the number of placements the learning policy is
	// trained for
	MaxSteps int `mapstructure:"max_steps"`

	// EvalSteps is the number of placements each policy makes during
	// evaluation. Zero disables evaluation.
	EvalSteps int `mapstructure:"eval_steps"`

	// CheckpointInterval is the number of placements between agent
	// checkpoints. Zero disables checkpointing.
	CheckpointInterval int `mapstructure:"checkpoint_interval"`

	// OutputDir receives the data saved by file based Trackers. Empty
	// disables them.
	OutputDir string `mapstructure:"output_dir"`
}

// DefaultConfig returns the default experiment configuration
func DefaultConfig() Config {
	return Config{
		MaxSteps:           5000,
		EvalSteps:          1000,
		CheckpointInterval: 1000,
	}
}

// Validate checks that the step counts are sensible
func (c Config) Validate() error {
	if c.MaxSteps < 1 {
		return fmt.Errorf("experiment: max steps must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.MaxSteps)
	}
	if c.EvalSteps < 0 || c.CheckpointInterval < 0 {
		return fmt.Errorf("experiment: evaluation steps and checkpoint " +
			"interval must not be negative")
	}
	return nil
}

// NewRunID returns a new unique identifier for a run, under which its
// checkpoints and summaries are stored
func NewRunID() string {
	return uuid.NewString()
}
