package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps records in RAM. Records are stored encoded, so
// reads see the same version checks as persistent backends.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	checkpoints map[string][]byte
	steps       map[string]map[string]int // run -> key -> step
	summaries   map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.checkpoints = make(map[string][]byte)
	s.steps = make(map[string]map[string]int)
	s.summaries = make(map[string][]byte)
	return nil
}

func (s *MemoryStore) SaveCheckpoint(_ context.Context, c Checkpoint) error {
	payload, err := EncodeCheckpoint(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	s.checkpoints[c.Key] = payload
	if s.steps[c.RunID] == nil {
		s.steps[c.RunID] = make(map[string]int)
	}
	s.steps[c.RunID][c.Key] = c.Step
	return nil
}

func (s *MemoryStore) GetCheckpoint(_ context.Context, key string) (Checkpoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return Checkpoint{}, false, ErrNotInitialized
	}

	payload, ok := s.checkpoints[key]
	if !ok {
		return Checkpoint{}, false, nil
	}
	c, err := DecodeCheckpoint(payload)
	if err != nil {
		return Checkpoint{}, false, err
	}
	return c, true, nil
}

func (s *MemoryStore) ListCheckpoints(_ context.Context, runID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}

	steps := s.steps[runID]
	keys := make([]string, 0, len(steps))
	for k := range steps {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if steps[keys[i]] != steps[keys[j]] {
			return steps[keys[i]] < steps[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys, nil
}

func (s *MemoryStore) SaveSummary(_ context.Context, summary RunSummary) error {
	payload, err := EncodeSummary(summary)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	s.summaries[summaryKey(summary.RunID, summary.Summary.Policy)] = payload
	return nil
}

func (s *MemoryStore) GetSummary(_ context.Context, runID, policy string) (RunSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return RunSummary{}, false, ErrNotInitialized
	}

	payload, ok := s.summaries[summaryKey(runID, policy)]
	if !ok {
		return RunSummary{}, false, nil
	}
	summary, err := DecodeSummary(payload)
	if err != nil {
		return RunSummary{}, false, err
	}
	return summary, true, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func summaryKey(runID, policy string) string {
	return runID + "\x00" + policy
}
