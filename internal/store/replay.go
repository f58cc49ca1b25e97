package store

import (
	"context"
	"fmt"

	"github.com/roach88/keyframe/internal/fcurve"
	"github.com/roach88/keyframe/internal/keying"
)

// ReplayResult reports how a replayed log compared with the recorded one.
type ReplayResult struct {
	Batches    int      `json:"batches"`
	Mismatches []string `json:"mismatches"`
}

// Deterministic reports whether every batch reproduced its recorded
// outcome counts.
func (r ReplayResult) Deterministic() bool {
	return len(r.Mismatches) == 0
}

// Replay re-runs the logged batches of owner (every owner when empty) in
// seq order through d and compares the outcome counts with the log.
//
// The dispatcher's host should hold the scene as it was before the first
// batch; replay mutates it.
func (s *Store) Replay(ctx context.Context, d *keying.Dispatcher, owner string) (ReplayResult, error) {
	log, err := s.ReadLog(ctx, owner)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}

	result := ReplayResult{Mismatches: []string{}}
	for _, e := range log {
		targets := make([]keying.Target, len(e.Targets))
		for i, name := range e.Targets {
			if targets[i], err = keying.ParseTarget(name); err != nil {
				return result, fmt.Errorf("replay batch %s: %w", e.BatchID, err)
			}
		}
		flags, err := keying.ParseFlags(e.Flags)
		if err != nil {
			return result, fmt.Errorf("replay batch %s: %w", e.BatchID, err)
		}
		keyType, err := fcurve.ParseKeyType(e.KeyType)
		if err != nil {
			return result, fmt.Errorf("replay batch %s: %w", e.BatchID, err)
		}

		got := d.InsertKeys(e.Owner, targets, e.Time, flags, keyType)
		result.Batches++
		if !sameCounts(e.Counts, got.Counts) {
			result.Mismatches = append(result.Mismatches,
				fmt.Sprintf("batch %s (seq %d): recorded %s, replayed %s",
					e.BatchID, e.Seq, countsString(e.Counts), got.String()))
		}
	}
	return result, nil
}

func sameCounts(a, b map[keying.Outcome]int) bool {
	for o, n := range a {
		if b[o] != n {
			return false
		}
	}
	for o, n := range b {
		if a[o] != n {
			return false
		}
	}
	return true
}

func countsString(counts map[keying.Outcome]int) string {
	r := keying.NewCombinedResult()
	for o, n := range counts {
		r.Counts[o] = n
	}
	return r.String()
}
