package engine

import (
	"errors"
)

// Validation errors. The caller can recover by fixing the rule or pool;
// the engine never retries on its own.
var (
	ErrRuleInactive       = errors.New("the allocation rule is not active")
	ErrRuleNotApproved    = errors.New("the allocation rule is not approved")
	ErrPoolInactive       = errors.New("the cost pool is not active")
	ErrCostCenterInactive = errors.New("a participating cost center is not active")
	ErrNoTargets          = errors.New("at least one target cost center is required")
	ErrNoContributors     = errors.New("at least one contributor cost center is required")
	ErrSourceIsTarget     = errors.New("the source cost center cannot also be a target")
	ErrPercentageSum      = errors.New("target percentages must sum to 100")
	ErrUnsafeFormula      = errors.New("the formula contains characters that are not allowed")
	ErrZeroTotalWeight    = errors.New("the total weight across all targets is zero")
)

// Execution errors. The batch either never existed or was fully rolled
// back; partial batches are never left committed.
var (
	ErrZeroSum           = errors.New("allocated amounts do not reconcile to the source amount")
	ErrNoEligibleRules   = errors.New("no allocation rules are eligible for the period")
	ErrNothingToAllocate = errors.New("there is no cost to distribute for the period")
	ErrRunInProgress     = errors.New("an allocation run for this target and period is already in progress")
)

// Lifecycle errors. Rejected synchronously, without side effects.
var (
	ErrBatchNotFound     = errors.New("no journal rows exist for this batch")
	ErrBatchNotDraft     = errors.New("only a fully draft batch can be posted")
	ErrAlreadyRolledBack = errors.New("the batch has already been rolled back")
)

var validationErrors = []error{
	ErrRuleInactive,
	ErrRuleNotApproved,
	ErrPoolInactive,
	ErrCostCenterInactive,
	ErrNoTargets,
	ErrNoContributors,
	ErrSourceIsTarget,
	ErrPercentageSum,
	ErrUnsafeFormula,
	ErrZeroTotalWeight,
}

// IsValidationError reports whether err is one of the rule or pool
// eligibility errors.
func IsValidationError(err error) bool {
	for _, e := range validationErrors {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}
