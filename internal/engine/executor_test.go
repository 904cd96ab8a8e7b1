package engine_test

import (
	"github.com/allocato/backend/internal/engine"
	"github.com/allocato/backend/internal/models"
	"github.com/allocato/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) TestExecuteRulesPercentage() {
	source := suite.createTestCostCenter(models.CostCenter{Active: true})
	first := suite.createTestCostCenter(models.CostCenter{Active: true})
	second := suite.createTestCostCenter(models.CostCenter{Active: true})

	periodStart, periodEnd := period()

	suite.createTestEntry(models.CostEntry{CostCenterID: source.ID, Date: periodStart, Amount: decimal.NewFromFloat(70)})
	suite.createTestEntry(models.CostEntry{CostCenterID: source.ID, Date: periodEnd, Amount: decimal.NewFromFloat(30)})

	// Outside the period, must not count.
	suite.createTestEntry(models.CostEntry{CostCenterID: source.ID, Date: periodEnd.AddDate(0, 1, 0), Amount: decimal.NewFromFloat(500)})

	rule := suite.approvedRule("admin-split", source.ID,
		models.AllocationTarget{TargetID: first.ID, Percentage: percent(60), Position: 0},
		models.AllocationTarget{TargetID: second.ID, Percentage: percent(40), Position: 1},
	)

	batchID, err := engine.NewDefault(models.DB).ExecuteRules(periodStart, periodEnd, "jdoe")
	suite.Require().NoError(err)

	rows := suite.batchRows(batchID)
	suite.Require().Len(rows, 2)

	suite.Assert().True(suite.rowFor(rows, first.ID).AllocatedAmount.Equal(decimal.NewFromFloat(60)))
	suite.Assert().True(suite.rowFor(rows, second.ID).AllocatedAmount.Equal(decimal.NewFromFloat(40)))

	for _, row := range rows {
		suite.Assert().Equal(types.BatchDraft, row.Status)
		suite.Assert().Equal("jdoe", row.CreatedBy)
		suite.Assert().Equal(source.ID, row.SourceID)
		suite.Require().NotNil(row.RuleID)
		suite.Assert().Equal(rule.ID, *row.RuleID)
		suite.Assert().Nil(row.PoolID)
		suite.Assert().True(row.SourceAmount.Equal(decimal.NewFromFloat(100)))
		suite.Assert().Equal(types.BasisPercentage, row.Detail.Method)
	}
}

func (suite *TestSuiteStandard) TestExecuteRulesWeighted() {
	source := suite.createTestCostCenter(models.CostCenter{Active: true})
	first := suite.createTestCostCenter(models.CostCenter{Active: true})
	second := suite.createTestCostCenter(models.CostCenter{Active: true})

	periodStart, periodEnd := period()
	suite.createTestEntry(models.CostEntry{CostCenterID: source.ID, Date: periodStart, Amount: decimal.NewFromFloat(80)})

	suite.createTestWeight(models.BasisWeight{CostCenterID: first.ID, Basis: types.BasisHeadcount, Value: decimal.NewFromInt(5)})
	suite.createTestWeight(models.BasisWeight{CostCenterID: second.ID, Basis: types.BasisHeadcount, Value: decimal.NewFromInt(3)})

	suite.createTestRule(models.AllocationRule{
		SourceID:       source.ID,
		Basis:          types.BasisHeadcount,
		ApprovalStatus: types.ApprovalApproved,
		Active:         true,
		Targets: []models.AllocationTarget{
			{TargetID: first.ID, Position: 0},
			{TargetID: second.ID, Position: 1},
		},
	})

	batchID, err := engine.NewDefault(models.DB).ExecuteRules(periodStart, periodEnd, "jdoe")
	suite.Require().NoError(err)

	rows := suite.batchRows(batchID)
	suite.Require().Len(rows, 2)

	suite.Assert().True(suite.rowFor(rows, first.ID).AllocatedAmount.Equal(decimal.NewFromFloat(50)))
	suite.Assert().True(suite.rowFor(rows, second.ID).AllocatedAmount.Equal(decimal.NewFromFloat(30)))
	suite.Assert().True(suite.rowFor(rows, first.ID).BasisValue.Equal(decimal.NewFromInt(5)))
	suite.Assert().True(suite.rowFor(rows, second.ID).BasisValue.Equal(decimal.NewFromInt(3)))
}

func (suite *TestSuiteStandard) TestExecuteRulesSkipsRuleWithoutCost() {
	funded := suite.createTestCostCenter(models.CostCenter{Active: true})
	unfunded := suite.createTestCostCenter(models.CostCenter{Active: true})
	target := suite.createTestCostCenter(models.CostCenter{Active: true})

	periodStart, periodEnd := period()
	suite.createTestEntry(models.CostEntry{CostCenterID: funded.ID, Date: periodStart, Amount: decimal.NewFromFloat(10)})

	withCost := suite.approvedRule("a-funded", funded.ID, models.AllocationTarget{TargetID: target.ID, Percentage: percent(100)})
	suite.approvedRule("b-unfunded", unfunded.ID, models.AllocationTarget{TargetID: target.ID, Percentage: percent(100)})

	batchID, err := engine.NewDefault(models.DB).ExecuteRules(periodStart, periodEnd, "jdoe")
	suite.Require().NoError(err)

	rows := suite.batchRows(batchID)
	suite.Require().Len(rows, 1)
	suite.Assert().Equal(withCost.ID, *rows[0].RuleID)
}

func (suite *TestSuiteStandard) TestExecuteRulesNothingToAllocate() {
	source := suite.createTestCostCenter(models.CostCenter{Active: true})
	target := suite.createTestCostCenter(models.CostCenter{Active: true})

	suite.approvedRule("no-cost", source.ID, models.AllocationTarget{TargetID: target.ID, Percentage: percent(100)})

	periodStart, periodEnd := period()
	_, err := engine.NewDefault(models.DB).ExecuteRules(periodStart, periodEnd, "jdoe")
	suite.Assert().ErrorIs(err, engine.ErrNothingToAllocate)
	suite.Assert().Equal(int64(0), suite.journalCount())
}

func (suite *TestSuiteStandard) TestExecuteRulesEligibility() {
	source := suite.createTestCostCenter(models.CostCenter{Active: true})
	target := suite.createTestCostCenter(models.CostCenter{Active: true})

	periodStart, periodEnd := period()
	suite.createTestEntry(models.CostEntry{CostCenterID: source.ID, Date: periodStart, Amount: decimal.NewFromFloat(10)})

	// None of these rules is eligible for the period.
	suite.createTestRule(models.AllocationRule{
		Code:           "draft",
		SourceID:       source.ID,
		Basis:          types.BasisDirect,
		ApprovalStatus: types.ApprovalDraft,
		Active:         true,
		Targets:        []models.AllocationTarget{{TargetID: target.ID}},
	})
	suite.createTestRule(models.AllocationRule{
		Code:           "inactive",
		SourceID:       source.ID,
		Basis:          types.BasisDirect,
		ApprovalStatus: types.ApprovalApproved,
		Active:         false,
		Targets:        []models.AllocationTarget{{TargetID: target.ID}},
	})
	suite.createTestRule(models.AllocationRule{
		Code:           "not-yet-effective",
		SourceID:       source.ID,
		Basis:          types.BasisDirect,
		ApprovalStatus: types.ApprovalApproved,
		Active:         true,
		EffectiveFrom:  periodEnd.AddDate(1, 0, 0),
		Targets:        []models.AllocationTarget{{TargetID: target.ID}},
	})

	expired := periodStart.AddDate(0, 0, -1)
	suite.createTestRule(models.AllocationRule{
		Code:           "expired",
		SourceID:       source.ID,
		Basis:          types.BasisDirect,
		ApprovalStatus: types.ApprovalApproved,
		Active:         true,
		EffectiveUntil: &expired,
		Targets:        []models.AllocationTarget{{TargetID: target.ID}},
	})

	_, err := engine.NewDefault(models.DB).ExecuteRules(periodStart, periodEnd, "jdoe")
	suite.Assert().ErrorIs(err, engine.ErrNoEligibleRules)
}

func (suite *TestSuiteStandard) TestExecuteRulesRollsBackWholeBatch() {
	source := suite.createTestCostCenter(models.CostCenter{Active: true})
	other := suite.createTestCostCenter(models.CostCenter{Active: true})
	target := suite.createTestCostCenter(models.CostCenter{Active: true})

	periodStart, periodEnd := period()
	suite.createTestEntry(models.CostEntry{CostCenterID: source.ID, Date: periodStart, Amount: decimal.NewFromFloat(100)})
	suite.createTestEntry(models.CostEntry{CostCenterID: other.ID, Date: periodStart, Amount: decimal.NewFromFloat(100)})

	// Processed first, produces journal rows.
	suite.approvedRule("a-valid", source.ID, models.AllocationTarget{TargetID: target.ID, Percentage: percent(100)})

	// Processed second, fails validation. The rows of the first rule must
	// be rolled back with it.
	suite.approvedRule("z-broken", other.ID, models.AllocationTarget{TargetID: target.ID, Percentage: percent(50)})

	_, err := engine.NewDefault(models.DB).ExecuteRules(periodStart, periodEnd, "jdoe")
	suite.Assert().ErrorIs(err, engine.ErrPercentageSum)
	suite.Assert().Equal(int64(0), suite.journalCount())
}

// gateNotifier blocks batch completion until released, keeping the run lock
// held so a concurrent run can be provoked.
type gateNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (n gateNotifier) BatchCompleted(engine.BatchSummary) {
	n.entered <- struct{}{}
	<-n.release
}

func (suite *TestSuiteStandard) TestExecuteRulesRunInProgress() {
	source := suite.createTestCostCenter(models.CostCenter{Active: true})
	target := suite.createTestCostCenter(models.CostCenter{Active: true})

	periodStart, periodEnd := period()
	suite.createTestEntry(models.CostEntry{CostCenterID: source.ID, Date: periodStart, Amount: decimal.NewFromFloat(10)})
	suite.approvedRule("locked", source.ID, models.AllocationTarget{TargetID: target.ID, Percentage: percent(100)})

	notifier := gateNotifier{entered: make(chan struct{}), release: make(chan struct{})}
	executor := engine.New(models.DB, engine.EntryCosts{}, engine.StoredWeights{}, notifier)

	done := make(chan error, 1)
	go func() {
		_, err := executor.ExecuteRules(periodStart, periodEnd, "jdoe")
		done <- err
	}()

	<-notifier.entered
	_, err := executor.ExecuteRules(periodStart, periodEnd, "jdoe")
	suite.Assert().ErrorIs(err, engine.ErrRunInProgress)

	close(notifier.release)
	suite.Assert().NoError(<-done)
}

func (suite *TestSuiteStandard) TestExecutePool() {
	paying := suite.createTestCostCenter(models.CostCenter{Active: true})
	idle := suite.createTestCostCenter(models.CostCenter{Active: false})
	first := suite.createTestCostCenter(models.CostCenter{Active: true})
	second := suite.createTestCostCenter(models.CostCenter{Active: true})

	periodStart, periodEnd := period()
	suite.createTestEntry(models.CostEntry{CostCenterID: paying.ID, Date: periodStart, Amount: decimal.NewFromFloat(40)})

	// Cost of the inactive contributor must be skipped, not distributed.
	suite.createTestEntry(models.CostEntry{CostCenterID: idle.ID, Date: periodStart, Amount: decimal.NewFromFloat(1000)})

	pool := suite.createTestPool(models.CostPool{
		Basis:  types.BasisEqual,
		Active: true,
		Members: []models.CostPoolMember{
			{CostCenterID: paying.ID, Role: types.RoleContributor, Position: 0},
			{CostCenterID: idle.ID, Role: types.RoleContributor, Position: 1},
			{CostCenterID: first.ID, Role: types.RoleTarget, Position: 2},
			{CostCenterID: second.ID, Role: types.RoleTarget, Position: 3},
		},
	})

	batchID, err := engine.NewDefault(models.DB).ExecutePool(pool.ID, periodStart, periodEnd, "jdoe")
	suite.Require().NoError(err)

	rows := suite.batchRows(batchID)
	suite.Require().Len(rows, 2)

	for _, row := range rows {
		suite.Assert().True(row.AllocatedAmount.Equal(decimal.NewFromFloat(20)), "got %s", row.AllocatedAmount)
		suite.Assert().True(row.SourceAmount.Equal(decimal.NewFromFloat(40)))
		suite.Assert().Equal(paying.ID, row.SourceID)
		suite.Require().NotNil(row.PoolID)
		suite.Assert().Equal(pool.ID, *row.PoolID)
		suite.Assert().Nil(row.RuleID)
	}
}

func (suite *TestSuiteStandard) TestExecutePoolWeighted() {
	paying := suite.createTestCostCenter(models.CostCenter{Active: true})
	large := suite.createTestCostCenter(models.CostCenter{Active: true})
	small := suite.createTestCostCenter(models.CostCenter{Active: true})

	periodStart, periodEnd := period()
	suite.createTestEntry(models.CostEntry{CostCenterID: paying.ID, Date: periodStart, Amount: decimal.NewFromFloat(100)})

	suite.createTestWeight(models.BasisWeight{CostCenterID: large.ID, Basis: types.BasisSquareFootage, Value: decimal.NewFromInt(300)})
	suite.createTestWeight(models.BasisWeight{CostCenterID: small.ID, Basis: types.BasisSquareFootage, Value: decimal.NewFromInt(100)})

	pool := suite.createTestPool(models.CostPool{
		Basis:  types.BasisSquareFootage,
		Active: true,
		Members: []models.CostPoolMember{
			{CostCenterID: paying.ID, Role: types.RoleContributor, Position: 0},
			{CostCenterID: large.ID, Role: types.RoleTarget, Position: 1},
			{CostCenterID: small.ID, Role: types.RoleTarget, Position: 2},
		},
	})

	batchID, err := engine.NewDefault(models.DB).ExecutePool(pool.ID, periodStart, periodEnd, "jdoe")
	suite.Require().NoError(err)

	rows := suite.batchRows(batchID)
	suite.Require().Len(rows, 2)
	suite.Assert().True(suite.rowFor(rows, large.ID).AllocatedAmount.Equal(decimal.NewFromFloat(75)))
	suite.Assert().True(suite.rowFor(rows, small.ID).AllocatedAmount.Equal(decimal.NewFromFloat(25)))
}

func (suite *TestSuiteStandard) TestExecutePoolNothingToAllocate() {
	paying := suite.createTestCostCenter(models.CostCenter{Active: true})
	target := suite.createTestCostCenter(models.CostCenter{Active: true})

	pool := suite.createTestPool(models.CostPool{
		Basis:  types.BasisEqual,
		Active: true,
		Members: []models.CostPoolMember{
			{CostCenterID: paying.ID, Role: types.RoleContributor, Position: 0},
			{CostCenterID: target.ID, Role: types.RoleTarget, Position: 1},
		},
	})

	periodStart, periodEnd := period()
	_, err := engine.NewDefault(models.DB).ExecutePool(pool.ID, periodStart, periodEnd, "jdoe")
	suite.Assert().ErrorIs(err, engine.ErrNothingToAllocate)
	suite.Assert().Equal(int64(0), suite.journalCount())
}

func (suite *TestSuiteStandard) TestExecutePoolUnknown() {
	periodStart, periodEnd := period()
	_, err := engine.NewDefault(models.DB).ExecutePool(uuid.New(), periodStart, periodEnd, "jdoe")
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}
