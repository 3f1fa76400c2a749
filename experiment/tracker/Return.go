package tracker

import "fmt"

// Return tracks and saves the episodic return in an experiment. For
// each Record this Tracker accumulates its reward, and stores the
// cumulative reward once the Record's next TimeStep ends the episode.
//
// Note: An episode must finish for this Tracker to save its data.
// If the last episode in an experiment does not finish, that episode's
// return will not be saved.
type Return struct {
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker which saves its
// data at filename
func NewReturn(filename string) *Return {
	return &Return{filename: filename}
}

// Track tracks the reward of a single decision. When the next TimeStep
// is the last in its episode, the episodic return is cached and
// accumulation starts over for the next episode.
func (r *Return) Track(record Record) {
	r.currentReturn += record.Reward

	if record.Next.Last() {
		r.episodeReturns = append(r.episodeReturns, r.currentReturn)
		r.currentReturn = 0.0
	}
}

// Returns returns the episodic returns tracked so far
func (r *Return) Returns() []float64 {
	out := make([]float64, len(r.episodeReturns))
	copy(out, r.episodeReturns)
	return out
}

// Save saves the data tracked by the Return Tracker to disk. A Return
// tracker without a file saves nothing.
func (r *Return) Save() error {
	if r.filename == "" {
		return nil
	}
	if err := save(r.filename, r.episodeReturns); err != nil {
		return fmt.Errorf("save: return: %v", err)
	}
	return nil
}
