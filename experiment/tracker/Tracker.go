// Package tracker implements Trackers, which track and save data in an
// experiment
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/samuelfneumann/drlplace/timestep"
)

// Record describes a single placement decision and its result
type Record struct {
	Policy  string
	Episode int

	// Step is the TimeStep the decision was made in and Next the
	// TimeStep the host returned after executing the task
	Step ts.TimeStep
	Next ts.TimeStep

	NodeID  string
	Tier    ts.Tier
	Outcome ts.Outcome
	Reward  float64

	// Loss and Epsilon are only set for learning policies
	Loss    float64
	Epsilon float64
}

// Interface Tracker keeps track of experiment data and saves the data
// after the experiment has finished
type Tracker interface {
	Track(r Record)
	Save() error
}

// LoadData loads and returns the data saved by a Return or
// EpisodeLength Tracker
func LoadData(filename string) ([]float64, error) {
	// Open file
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadData: could not open data file: %v", err)
	}
	defer file.Close()

	// Decode the data
	var data []float64
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("loadData: could not decode data: %v", err)
	}

	return data, nil
}

// save gob encodes data to filename
func save(filename string, data []float64) error {
	// Open the file to save to
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not open save file: %v", err)
	}

	// Encode and save the file
	if err := gob.NewEncoder(file).Encode(data); err != nil {
		file.Close()
		return fmt.Errorf("could not encode data: %v", err)
	}
	return file.Close()
}
