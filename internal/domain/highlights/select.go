package highlights

import (
	"context"
	"sort"

	"github.com/forPelevin/hlshorts/internal/types"
)

// minGap separates two selected clips so no moment is delivered twice.
const minGap = 2.0

// Selector nominates clip candidates from a transcript with the heuristic
// scorer. It stands in for a model-backed clip finder.
type Selector struct {
	MinClip float64
	MaxClip float64
}

func NewSelector(minClip, maxClip float64) *Selector {
	return &Selector{MinClip: minClip, MaxClip: maxClip}
}

// Select returns non-overlapping candidates, best first, with 1-based
// indices in that order. limit <= 0 returns every distinct candidate.
func (s *Selector) Select(ctx context.Context, tr types.Transcript, limit int) ([]types.ClipCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cands := BuildCandidates(tr, s.MinClip, s.MaxClip)
	return Rank(cands, limit), nil
}

// Rank orders candidates by combined score and drops ones overlapping a
// better candidate.
func Rank(cands []types.ClipCandidate, limit int) []types.ClipCandidate {
	if len(cands) == 0 {
		return nil
	}
	best := make([]types.ClipCandidate, len(cands))
	copy(best, cands)
	sort.SliceStable(best, func(i, j int) bool {
		s1 := best[i].InfoScore + best[i].HookScore
		s2 := best[j].InfoScore + best[j].HookScore
		if s1 == s2 {
			return best[i].Start < best[j].Start
		}
		return s1 > s2
	})

	out := make([]types.ClipCandidate, 0, 8)
	for _, c := range best {
		if limit > 0 && len(out) >= limit {
			break
		}
		if !isDistinct(out, c) {
			continue
		}
		c.Index = len(out) + 1
		out = append(out, c)
	}
	return out
}

func isDistinct(existing []types.ClipCandidate, c types.ClipCandidate) bool {
	for _, e := range existing {
		if c.Start < e.End+minGap && c.End > e.Start-minGap {
			return false
		}
	}
	return true
}
