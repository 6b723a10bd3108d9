// Package dice rolls pools of six-sided dice for EXA tests.
package dice

import (
	"fmt"
	"strings"
)

// Sides is the face count of every die in an EXA pool.
const Sides = 6

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// PoolResult is the outcome of rolling a pool of six-sided dice.
//
// Invariant: Total == sum(Results); every result is in [1, Sides].
type PoolResult struct {
	Results []int `json:"results"`
	Total   int   `json:"total"`
}

// Count returns how many dice in the pool show face.
func (p PoolResult) Count(face int) int {
	n := 0
	for _, d := range p.Results {
		if d == face {
			n++
		}
	}
	return n
}

// String renders the pool as "3d6 [6 1 4] = 11". An empty pool renders as "0d6".
func (p PoolResult) String() string {
	if len(p.Results) == 0 {
		return fmt.Sprintf("0d%d", Sides)
	}
	faces := make([]string, len(p.Results))
	for i, d := range p.Results {
		faces[i] = fmt.Sprint(d)
	}
	return fmt.Sprintf("%dd%d [%s] = %d", len(p.Results), Sides, strings.Join(faces, " "), p.Total)
}
