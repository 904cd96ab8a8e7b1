// Package engine implements the cost allocation and distribution engine:
// the split calculator with its zero-sum guarantee, the rule and pool
// eligibility validators, the batch executors and the batch lifecycle.
package engine

import (
	"github.com/allocato/backend/internal/models"
	"github.com/allocato/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// detailVersion is the current version of the serialized calculation detail.
const detailVersion = 1

// Rounding residuals below this threshold are ignored; larger ones are
// assigned to the first target.
var reconcileTolerance = decimal.New(1, -3) // 0.001

var (
	oneHundred       = decimal.NewFromInt(100)
	zeroSumTolerance = decimal.New(1, -2) // 0.01
)

// Target is one receiving cost center as seen by the calculator. The slice
// order passed to Calculate is the iteration order: the first target absorbs
// the rounding residual, so callers must pass targets in a stable order.
type Target struct {
	ID         uuid.UUID
	Percentage decimal.Decimal
	Weight     decimal.Decimal
}

// Allocation is the computed share for one target.
type Allocation struct {
	TargetID   uuid.UUID
	Amount     decimal.Decimal
	BasisValue decimal.Decimal
	Detail     models.CalculationDetail
}

// Calculate splits sourceAmount across the targets according to the basis.
//
// Every returned amount is rounded to 2 decimal places. The amounts are
// guaranteed to sum exactly to sourceAmount (rounded to 2 decimal places):
// after the per-target pass, any rounding residual larger than 0.001 is
// added to the first target and recorded in its calculation detail. The
// residual assignment is deterministic, identical inputs produce identical
// output including which target absorbed the residual.
func Calculate(sourceAmount decimal.Decimal, basis types.AllocationBasis, targets []Target) ([]Allocation, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	source := sourceAmount.Round(2)

	var allocations []Allocation
	var err error

	switch basis {
	case types.BasisDirect, types.BasisEqual:
		allocations = equalSplit(source, basis, targets)
	case types.BasisPercentage:
		allocations = percentageSplit(source, targets)
	case types.BasisSquareFootage, types.BasisHeadcount, types.BasisPatientDays, types.BasisServiceVolume, types.BasisRevenue, types.BasisFormula:
		allocations, err = weightedSplit(source, basis, targets)
	default:
		return nil, models.ErrInvalidBasis
	}

	if err != nil {
		return nil, err
	}

	return reconcile(source, allocations), nil
}

// equalSplit gives every target the same share.
func equalSplit(source decimal.Decimal, basis types.AllocationBasis, targets []Target) []Allocation {
	count := decimal.NewFromInt(int64(len(targets)))
	share := source.Div(count).Round(2)

	allocations := make([]Allocation, 0, len(targets))
	for _, target := range targets {
		allocations = append(allocations, Allocation{
			TargetID:   target.ID,
			Amount:     share,
			BasisValue: decimal.NewFromInt(1),
			Detail: models.CalculationDetail{
				Version:      detailVersion,
				Method:       basis,
				SourceAmount: source,
				TargetCount:  len(targets),
			},
		})
	}

	return allocations
}

// percentageSplit gives every target its configured percentage of the source.
func percentageSplit(source decimal.Decimal, targets []Target) []Allocation {
	allocations := make([]Allocation, 0, len(targets))
	for _, target := range targets {
		amount := source.Mul(target.Percentage).Div(oneHundred).Round(2)

		allocations = append(allocations, Allocation{
			TargetID:   target.ID,
			Amount:     amount,
			BasisValue: target.Percentage,
			Detail: models.CalculationDetail{
				Version:      detailVersion,
				Method:       types.BasisPercentage,
				SourceAmount: source,
				TargetCount:  len(targets),
				Percentage:   target.Percentage,
			},
		})
	}

	return allocations
}

// weightedSplit distributes proportionally to the target weights. When no
// target carries a weight, every target counts as weight 1, which makes the
// split equal. A total weight of zero cannot be divided by and is fatal.
func weightedSplit(source decimal.Decimal, basis types.AllocationBasis, targets []Target) ([]Allocation, error) {
	weights := make([]decimal.Decimal, len(targets))

	allZero := true
	for i, target := range targets {
		weights[i] = target.Weight
		if !target.Weight.IsZero() {
			allZero = false
		}
	}

	if allZero {
		for i := range weights {
			weights[i] = decimal.NewFromInt(1)
		}
	}

	total := decimal.Zero
	for _, weight := range weights {
		total = total.Add(weight)
	}

	if total.IsZero() {
		return nil, ErrZeroTotalWeight
	}

	allocations := make([]Allocation, 0, len(targets))
	for i, target := range targets {
		amount := source.Mul(weights[i]).Div(total).Round(2)

		allocations = append(allocations, Allocation{
			TargetID:   target.ID,
			Amount:     amount,
			BasisValue: weights[i],
			Detail: models.CalculationDetail{
				Version:      detailVersion,
				Method:       basis,
				SourceAmount: source,
				TargetCount:  len(targets),
				Weight:       weights[i],
				TotalWeight:  total,
			},
		})
	}

	return allocations, nil
}

// reconcile restores exact-sum equality after per-target rounding. The
// residual always goes to the first target, regardless of amounts or IDs,
// so that repeated runs with identical inputs are reproducible.
func reconcile(source decimal.Decimal, allocations []Allocation) []Allocation {
	allocated := decimal.Zero
	for _, allocation := range allocations {
		allocated = allocated.Add(allocation.Amount)
	}

	diff := source.Sub(allocated)
	if diff.Abs().GreaterThan(reconcileTolerance) {
		allocations[0].Amount = allocations[0].Amount.Add(diff)
		allocations[0].Detail.RoundingAdjustment = diff
	}

	return allocations
}
