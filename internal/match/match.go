// Package match scores and pairs current vs desired items by shared
// key/value overlap, defining item identity for the list reconciler.
package match

import "github.com/edirooss/mtsync/internal/model"

// Score returns the number of keys (excluding model.IDKey) present in both
// a and b with equal values. The smaller map is iterated for efficiency;
// the result is symmetric.
func Score(a, b model.Item) int {
	if len(a) > len(b) {
		a, b = b, a
	}

	score := 0
	for k, v := range a {
		if k == model.IDKey {
			continue
		}
		if bv, ok := b[k]; ok && bv == v {
			score++
		}
	}
	return score
}

// Equal reports whether a and b represent the same logical item: every
// non-id key in either map agrees in the other. Two all-empty items
// (ignoring .id) are equal.
func Equal(a, b model.Item) bool {
	aCount := countNonID(a)
	bCount := countNonID(b)
	if aCount != bCount {
		return false
	}
	return Score(a, b) == aCount
}

func countNonID(it model.Item) int {
	n := 0
	for k := range it {
		if k != model.IDKey {
			n++
		}
	}
	return n
}

// Pair is one greedily-matched (current, desired) pair with its score.
type Pair struct {
	CurrentIndex, DesiredIndex int
	Score                      int
}

// GreedyPairs repeatedly picks the highest-scoring (current, desired) pair
// among those not yet consumed, removes both from contention, and repeats
// until one side is exhausted. Ties are broken by the first pair
// encountered in (current, desired) iteration order, matching the
// spec's greedy bipartite pairing.
//
// It returns the matched pairs (indices into current/desired as passed
// in), plus the indices of current and desired items left unmatched.
func GreedyPairs(current, desired []model.Item) (pairs []Pair, unmatchedCurrent, unmatchedDesired []int) {
	n, m := len(current), len(desired)
	scores := make([][]int, n)
	for i := range current {
		scores[i] = make([]int, m)
		for j := range desired {
			scores[i][j] = Score(current[i], desired[j])
		}
	}

	curAvailable := make([]bool, n)
	desAvailable := make([]bool, m)
	for i := range curAvailable {
		curAvailable[i] = true
	}
	for j := range desAvailable {
		desAvailable[j] = true
	}

	remainingCur, remainingDes := n, m
	for remainingCur > 0 && remainingDes > 0 {
		bestScore := -1
		bestI, bestJ := -1, -1
		for i := 0; i < n; i++ {
			if !curAvailable[i] {
				continue
			}
			for j := 0; j < m; j++ {
				if !desAvailable[j] {
					continue
				}
				if scores[i][j] > bestScore {
					bestScore = scores[i][j]
					bestI, bestJ = i, j
				}
			}
		}

		if bestI < 0 || bestJ < 0 {
			// Both sides are still non-empty, so some pair must exist;
			// reaching here means our bookkeeping is broken.
			break
		}

		pairs = append(pairs, Pair{CurrentIndex: bestI, DesiredIndex: bestJ, Score: bestScore})
		curAvailable[bestI] = false
		desAvailable[bestJ] = false
		remainingCur--
		remainingDes--
	}

	for i, ok := range curAvailable {
		if ok {
			unmatchedCurrent = append(unmatchedCurrent, i)
		}
	}
	for j, ok := range desAvailable {
		if ok {
			unmatchedDesired = append(unmatchedDesired, j)
		}
	}
	return pairs, unmatchedCurrent, unmatchedDesired
}
