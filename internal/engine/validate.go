package engine

import (
	"fmt"
	"regexp"

	"github.com/allocato/backend/internal/models"
	"github.com/allocato/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// formulaPattern is a security control, not a semantic check: formula text is
// never evaluated, but anything beyond plain arithmetic characters (which
// could smuggle identifiers or function calls into a future evaluator) is
// rejected up front.
var formulaPattern = regexp.MustCompile(`^[0-9\s+\-*/().]*$`)

// percentageTolerance is how far the percentage sum may deviate from 100.
var percentageTolerance = decimal.New(1, -2) // 0.01

// ValidateRule checks whether a rule is eligible to run. The checks run in
// order and stop at the first failure. rule.Targets must be loaded.
//
// ValidateRule is a read-only gate: callers must not compute or persist
// anything when it fails.
func ValidateRule(db *gorm.DB, rule models.AllocationRule) error {
	if !rule.Active {
		return fmt.Errorf("%w: %s", ErrRuleInactive, rule.Code)
	}

	if rule.ApprovalStatus != types.ApprovalApproved {
		return fmt.Errorf("%w: %s is %s", ErrRuleNotApproved, rule.Code, rule.ApprovalStatus)
	}

	err := checkActive(db, rule.SourceID)
	if err != nil {
		return err
	}

	if len(rule.Targets) == 0 {
		return fmt.Errorf("%w: %s", ErrNoTargets, rule.Code)
	}

	for _, target := range rule.Targets {
		if target.TargetID == rule.SourceID {
			return fmt.Errorf("%w: %s", ErrSourceIsTarget, rule.Code)
		}

		err := checkActive(db, target.TargetID)
		if err != nil {
			return err
		}
	}

	if rule.Basis == types.BasisPercentage {
		sum := decimal.Zero
		for _, target := range rule.Targets {
			sum = sum.Add(target.Percentage)
		}

		if sum.Sub(oneHundred).Abs().GreaterThan(percentageTolerance) {
			return fmt.Errorf("%w: %s sums to %s", ErrPercentageSum, rule.Code, sum)
		}
	}

	if rule.Basis == types.BasisFormula && !formulaPattern.MatchString(rule.Formula) {
		return fmt.Errorf("%w: %s", ErrUnsafeFormula, rule.Code)
	}

	return nil
}

// ValidatePool checks whether a pool is eligible to run. The checks run in
// order and stop at the first failure. pool.Members must be loaded.
//
// Inactive contributors do not fail the pool, they are skipped during
// aggregation. The pool fails when it has no contributors at all, when every
// contributor is inactive, or when any target is inactive.
func ValidatePool(db *gorm.DB, pool models.CostPool) error {
	if !pool.Active {
		return fmt.Errorf("%w: %s", ErrPoolInactive, pool.Code)
	}

	contributors := pool.Contributors()
	if len(contributors) == 0 {
		return fmt.Errorf("%w: %s", ErrNoContributors, pool.Code)
	}

	active, err := activeMembers(db, contributors)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		return fmt.Errorf("%w: %s has no active contributors", ErrNoContributors, pool.Code)
	}

	targets := pool.Targets()
	if len(targets) == 0 {
		return fmt.Errorf("%w: %s", ErrNoTargets, pool.Code)
	}

	for _, member := range targets {
		err := checkActive(db, member.CostCenterID)
		if err != nil {
			return err
		}
	}

	return nil
}

// activeMembers filters pool members down to those whose cost center is
// active, preserving position order.
func activeMembers(db *gorm.DB, members []models.CostPoolMember) ([]models.CostPoolMember, error) {
	active := make([]models.CostPoolMember, 0, len(members))
	for _, member := range members {
		var costCenter models.CostCenter
		err := db.First(&costCenter, member.CostCenterID).Error
		if err != nil {
			return nil, err
		}

		if costCenter.Active {
			active = append(active, member)
		}
	}

	return active, nil
}

// checkActive verifies that the cost center exists and is active.
func checkActive(db *gorm.DB, id uuid.UUID) error {
	var costCenter models.CostCenter
	err := db.First(&costCenter, id).Error
	if err != nil {
		return err
	}

	if !costCenter.Active {
		return fmt.Errorf("%w: %s", ErrCostCenterInactive, costCenter.Code)
	}

	return nil
}
