// Package allocation distributes an integer total across weighted entities.
//
// The distribution uses the largest remainder (Hamilton) method: every entity first
// receives the floor of its exact proportional share, then the units still missing
// are handed out one by one to the entities with the largest fractional remainder.
// Equal remainders are resolved in the order the weights were supplied.
package allocation

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Weight is the allocation weight of a single entity.
type Weight struct {
	EntityID string  `json:"entityId"`
	Value    float64 `json:"value"`
}

// Share is the amount allocated to a single entity.
type Share struct {
	EntityID string `json:"entityId"`
	Amount   int64  `json:"amount"`
}

// Result holds one Share per supplied Weight, in the order the weights were supplied.
type Result []Share

// Sum returns the total of all allocated amounts.
func (r Result) Sum() int64 {
	var sum int64
	for _, s := range r {
		sum += s.Amount
	}
	return sum
}

// Map returns the allocated amounts keyed by entity ID.
func (r Result) Map() map[string]int64 {
	m := make(map[string]int64, len(r))
	for _, s := range r {
		m[s.EntityID] += s.Amount
	}
	return m
}

// CoerceTotal converts a total to the non-negative integer the engine works with.
//
// Negative, NaN and infinite values become 0, everything else is floored.
func CoerceTotal(total float64) int64 {
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return 0
	}

	if total >= math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(math.Floor(total))
}

// coerceWeight maps negative and non-finite weights to 0.
func coerceWeight(w float64) decimal.Decimal {
	if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(w)
}

// Allocate distributes total across the weights.
//
// The result always covers every supplied weight and its amounts always sum to
// total, unless total is 0 or no weight is positive, in which case every entity
// receives 0. Negative totals are treated as 0.
func Allocate(total int64, weights []Weight) Result {
	result := make(Result, len(weights))
	for i, w := range weights {
		result[i] = Share{EntityID: w.EntityID}
	}

	if total <= 0 || len(weights) == 0 {
		return result
	}

	values := make([]decimal.Decimal, len(weights))
	sum := decimal.Zero
	for i, w := range weights {
		values[i] = coerceWeight(w.Value)
		sum = sum.Add(values[i])
	}

	if !sum.IsPositive() {
		return result
	}

	// total * weight / sum, split into integer part and remainder. The remainders
	// all share the denominator sum, so they can be compared directly.
	t := decimal.NewFromInt(total)
	remainders := make([]decimal.Decimal, len(weights))
	var assigned int64
	for i, v := range values {
		quotient, remainder := t.Mul(v).QuoRem(sum, 0)
		result[i].Amount = quotient.IntPart()
		remainders[i] = remainder
		assigned += result[i].Amount
	}

	// The deficit is always smaller than the number of entities
	deficit := total - assigned
	if deficit == 0 {
		return result
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return remainders[b].Cmp(remainders[a])
	})

	for _, i := range order[:deficit] {
		result[i].Amount++
	}

	return result
}
