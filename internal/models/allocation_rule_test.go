package models_test

import (
	"time"

	"github.com/allocato/backend/internal/models"
	"github.com/allocato/backend/internal/types"
)

func (suite *TestSuiteStandard) TestRuleDefaultApprovalStatus() {
	source := suite.createTestCostCenter(models.CostCenter{})

	rule := suite.createTestRule(models.AllocationRule{
		SourceID: source.ID,
		Basis:    types.BasisDirect,
	})

	suite.Assert().Equal(types.ApprovalDraft, rule.ApprovalStatus)
}

func (suite *TestSuiteStandard) TestRuleInvalidBasis() {
	source := suite.createTestCostCenter(models.CostCenter{})

	tests := []struct {
		name  string
		basis types.AllocationBasis
		err   error
	}{
		{"direct is valid", types.BasisDirect, nil},
		{"formula is valid", types.BasisFormula, nil},
		{"equal is a pool basis", types.BasisEqual, models.ErrInvalidBasis},
		{"empty is invalid", types.AllocationBasis(""), models.ErrInvalidBasis},
		{"unknown is invalid", types.AllocationBasis("phase-of-the-moon"), models.ErrInvalidBasis},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			rule := models.AllocationRule{SourceID: source.ID, Basis: tt.basis}
			err := rule.BeforeSave(models.DB)

			if tt.err == nil {
				suite.Assert().NoError(err)
			} else {
				suite.Assert().ErrorIs(err, tt.err)
			}
		})
	}
}

func (suite *TestSuiteStandard) TestRuleEffectiveWindow() {
	source := suite.createTestCostCenter(models.CostCenter{})

	until := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	rule := models.AllocationRule{
		SourceID:       source.ID,
		Basis:          types.BasisDirect,
		EffectiveFrom:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EffectiveUntil: &until,
	}

	err := models.DB.Create(&rule).Error
	suite.Assert().ErrorIs(err, models.ErrEffectiveWindowBackwards)
}

func (suite *TestSuiteStandard) TestRuleDuplicateCode() {
	source := suite.createTestCostCenter(models.CostCenter{})
	_ = suite.createTestRule(models.AllocationRule{Code: "ADMIN-SPLIT", SourceID: source.ID, Basis: types.BasisDirect})

	rule := models.AllocationRule{Code: "ADMIN-SPLIT", SourceID: source.ID, Basis: types.BasisDirect}
	err := models.DB.Create(&rule).Error
	suite.Assert().ErrorIs(err, models.ErrRuleCodeNotUnique)
}

func (suite *TestSuiteStandard) TestRuleTargetCannotBeSource() {
	source := suite.createTestCostCenter(models.CostCenter{})

	rule := models.AllocationRule{
		SourceID: source.ID,
		Basis:    types.BasisDirect,
		Targets:  []models.AllocationTarget{{TargetID: source.ID}},
	}
	rule.Code = "SELF"

	err := models.DB.Create(&rule).Error
	suite.Assert().ErrorIs(err, models.ErrSourceEqualsTarget)
}

func (suite *TestSuiteStandard) TestRuleApprovalTransitions() {
	source := suite.createTestCostCenter(models.CostCenter{})

	rule := suite.createTestRule(models.AllocationRule{SourceID: source.ID, Basis: types.BasisDirect})
	suite.Require().Equal(types.ApprovalDraft, rule.ApprovalStatus)

	// Draft rules cannot be approved or rejected directly.
	suite.Assert().ErrorIs(rule.Approve(models.DB), models.ErrInvalidApprovalState)
	suite.Assert().ErrorIs(rule.Reject(models.DB), models.ErrInvalidApprovalState)

	suite.Require().NoError(rule.Submit(models.DB))
	suite.Assert().Equal(types.ApprovalPending, rule.ApprovalStatus)

	// Pending rules cannot be submitted again.
	suite.Assert().ErrorIs(rule.Submit(models.DB), models.ErrInvalidApprovalState)

	suite.Require().NoError(rule.Approve(models.DB))
	suite.Assert().Equal(types.ApprovalApproved, rule.ApprovalStatus)

	// Approved rules are final.
	suite.Assert().ErrorIs(rule.Submit(models.DB), models.ErrInvalidApprovalState)
	suite.Assert().ErrorIs(rule.Reject(models.DB), models.ErrInvalidApprovalState)
}

func (suite *TestSuiteStandard) TestRuleRejection() {
	source := suite.createTestCostCenter(models.CostCenter{})

	rule := suite.createTestRule(models.AllocationRule{SourceID: source.ID, Basis: types.BasisDirect})
	suite.Require().NoError(rule.Submit(models.DB))
	suite.Require().NoError(rule.Reject(models.DB))
	suite.Assert().Equal(types.ApprovalRejected, rule.ApprovalStatus)
}
