package tracker

import "fmt"

// EpisodeLength tracks and saves the lengths of episodes in an
// experiment.
//
// Note that an episode must finish for this Tracker to save its data.
// If the last episode in an experiment does not finish, that episode's
// length will not be saved.
type EpisodeLength struct {
	episodeLengths []float64
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength Tracker which will save
// its data at the specified location filename
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: filename}
}

// Track caches the episode length when the Record's next TimeStep is
// the last in its episode
func (e *EpisodeLength) Track(r Record) {
	if r.Next.Last() {
		e.episodeLengths = append(e.episodeLengths, float64(r.Next.Number))
	}
}

// Lengths returns the episode lengths tracked so far
func (e *EpisodeLength) Lengths() []float64 {
	out := make([]float64, len(e.episodeLengths))
	copy(out, e.episodeLengths)
	return out
}

// Save saves the data tracked by the EpisodeLength Tracker to disk. An
// EpisodeLength tracker without a file saves nothing.
func (e *EpisodeLength) Save() error {
	if e.filename == "" {
		return nil
	}
	if err := save(e.filename, e.episodeLengths); err != nil {
		return fmt.Errorf("save: episode length: %v", err)
	}
	return nil
}
