package engine_test

import (
	"github.com/allocato/backend/internal/engine"
	"github.com/allocato/backend/internal/models"
	"github.com/allocato/backend/internal/types"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) TestValidateRule() {
	source := suite.createTestCostCenter(models.CostCenter{Active: true})
	target := suite.createTestCostCenter(models.CostCenter{Active: true})
	inactive := suite.createTestCostCenter(models.CostCenter{Active: false})

	tests := []struct {
		name string
		rule models.AllocationRule
		err  error
	}{
		{
			"valid direct rule",
			models.AllocationRule{
				SourceID:       source.ID,
				Basis:          types.BasisDirect,
				ApprovalStatus: types.ApprovalApproved,
				Active:         true,
				Targets:        []models.AllocationTarget{{TargetID: target.ID}},
			},
			nil,
		},
		{
			"inactive rule",
			models.AllocationRule{
				SourceID:       source.ID,
				Basis:          types.BasisDirect,
				ApprovalStatus: types.ApprovalApproved,
				Active:         false,
				Targets:        []models.AllocationTarget{{TargetID: target.ID}},
			},
			engine.ErrRuleInactive,
		},
		{
			"unapproved rule",
			models.AllocationRule{
				SourceID:       source.ID,
				Basis:          types.BasisDirect,
				ApprovalStatus: types.ApprovalPending,
				Active:         true,
				Targets:        []models.AllocationTarget{{TargetID: target.ID}},
			},
			engine.ErrRuleNotApproved,
		},
		{
			"inactive source",
			models.AllocationRule{
				SourceID:       inactive.ID,
				Basis:          types.BasisDirect,
				ApprovalStatus: types.ApprovalApproved,
				Active:         true,
				Targets:        []models.AllocationTarget{{TargetID: target.ID}},
			},
			engine.ErrCostCenterInactive,
		},
		{
			"no targets",
			models.AllocationRule{
				SourceID:       source.ID,
				Basis:          types.BasisDirect,
				ApprovalStatus: types.ApprovalApproved,
				Active:         true,
			},
			engine.ErrNoTargets,
		},
		{
			"source is target",
			models.AllocationRule{
				SourceID:       source.ID,
				Basis:          types.BasisDirect,
				ApprovalStatus: types.ApprovalApproved,
				Active:         true,
				Targets:        []models.AllocationTarget{{TargetID: source.ID}},
			},
			engine.ErrSourceIsTarget,
		},
		{
			"inactive target",
			models.AllocationRule{
				SourceID:       source.ID,
				Basis:          types.BasisDirect,
				ApprovalStatus: types.ApprovalApproved,
				Active:         true,
				Targets:        []models.AllocationTarget{{TargetID: inactive.ID}},
			},
			engine.ErrCostCenterInactive,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			err := engine.ValidateRule(models.DB, tt.rule)
			if tt.err == nil {
				suite.Assert().NoError(err)
			} else {
				suite.Assert().ErrorIs(err, tt.err)
				suite.Assert().True(engine.IsValidationError(err))
			}
		})
	}
}

func (suite *TestSuiteStandard) TestValidateRulePercentageSum() {
	source := suite.createTestCostCenter(models.CostCenter{Active: true})
	a := suite.createTestCostCenter(models.CostCenter{Active: true})
	b := suite.createTestCostCenter(models.CostCenter{Active: true})

	tests := []struct {
		name string
		a    decimal.Decimal
		b    decimal.Decimal
		err  error
	}{
		{"exactly 100", percent(60), percent(40), nil},
		{"within tolerance", percent(60), percent(40.005), nil},
		{"sums to 99.5", percent(60), percent(39.5), engine.ErrPercentageSum},
		{"sums to 100.5", percent(60), percent(40.5), engine.ErrPercentageSum},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			rule := models.AllocationRule{
				Code:           tt.name,
				SourceID:       source.ID,
				Basis:          types.BasisPercentage,
				ApprovalStatus: types.ApprovalApproved,
				Active:         true,
				Targets: []models.AllocationTarget{
					{TargetID: a.ID, Percentage: tt.a},
					{TargetID: b.ID, Percentage: tt.b},
				},
			}

			err := engine.ValidateRule(models.DB, rule)
			if tt.err == nil {
				suite.Assert().NoError(err)
			} else {
				suite.Assert().ErrorIs(err, tt.err)
			}
		})
	}
}

func (suite *TestSuiteStandard) TestValidateRuleFormula() {
	source := suite.createTestCostCenter(models.CostCenter{Active: true})
	target := suite.createTestCostCenter(models.CostCenter{Active: true})

	tests := []struct {
		name    string
		formula string
		err     error
	}{
		{"empty formula", "", nil},
		{"plain arithmetic", "(100 + 20) * 3 / 4 - 1.5", nil},
		{"identifier", "revenue * 2", engine.ErrUnsafeFormula},
		{"function call injection", "exec(1)", engine.ErrUnsafeFormula},
		{"comparison operator", "1 < 2", engine.ErrUnsafeFormula},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			rule := models.AllocationRule{
				SourceID:       source.ID,
				Basis:          types.BasisFormula,
				Formula:        tt.formula,
				ApprovalStatus: types.ApprovalApproved,
				Active:         true,
				Targets:        []models.AllocationTarget{{TargetID: target.ID}},
			}

			err := engine.ValidateRule(models.DB, rule)
			if tt.err == nil {
				suite.Assert().NoError(err)
			} else {
				suite.Assert().ErrorIs(err, tt.err)
			}
		})
	}
}

func (suite *TestSuiteStandard) TestValidatePool() {
	active := suite.createTestCostCenter(models.CostCenter{Active: true})
	target := suite.createTestCostCenter(models.CostCenter{Active: true})
	inactive := suite.createTestCostCenter(models.CostCenter{Active: false})

	tests := []struct {
		name string
		pool models.CostPool
		err  error
	}{
		{
			"valid pool",
			models.CostPool{
				Basis:  types.BasisEqual,
				Active: true,
				Members: []models.CostPoolMember{
					{CostCenterID: active.ID, Role: types.RoleContributor},
					{CostCenterID: target.ID, Role: types.RoleTarget},
				},
			},
			nil,
		},
		{
			"inactive pool",
			models.CostPool{
				Basis:  types.BasisEqual,
				Active: false,
				Members: []models.CostPoolMember{
					{CostCenterID: active.ID, Role: types.RoleContributor},
					{CostCenterID: target.ID, Role: types.RoleTarget},
				},
			},
			engine.ErrPoolInactive,
		},
		{
			"no contributors",
			models.CostPool{
				Basis:  types.BasisEqual,
				Active: true,
				Members: []models.CostPoolMember{
					{CostCenterID: target.ID, Role: types.RoleTarget},
				},
			},
			engine.ErrNoContributors,
		},
		{
			"all contributors inactive",
			models.CostPool{
				Basis:  types.BasisEqual,
				Active: true,
				Members: []models.CostPoolMember{
					{CostCenterID: inactive.ID, Role: types.RoleContributor},
					{CostCenterID: target.ID, Role: types.RoleTarget},
				},
			},
			engine.ErrNoContributors,
		},
		{
			"inactive contributor is tolerated",
			models.CostPool{
				Basis:  types.BasisEqual,
				Active: true,
				Members: []models.CostPoolMember{
					{CostCenterID: active.ID, Role: types.RoleContributor},
					{CostCenterID: inactive.ID, Role: types.RoleContributor},
					{CostCenterID: target.ID, Role: types.RoleTarget},
				},
			},
			nil,
		},
		{
			"no targets",
			models.CostPool{
				Basis:  types.BasisEqual,
				Active: true,
				Members: []models.CostPoolMember{
					{CostCenterID: active.ID, Role: types.RoleContributor},
				},
			},
			engine.ErrNoTargets,
		},
		{
			"inactive target",
			models.CostPool{
				Basis:  types.BasisEqual,
				Active: true,
				Members: []models.CostPoolMember{
					{CostCenterID: active.ID, Role: types.RoleContributor},
					{CostCenterID: inactive.ID, Role: types.RoleTarget},
				},
			},
			engine.ErrCostCenterInactive,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			err := engine.ValidatePool(models.DB, tt.pool)
			if tt.err == nil {
				suite.Assert().NoError(err)
			} else {
				suite.Assert().ErrorIs(err, tt.err)
			}
		})
	}
}
