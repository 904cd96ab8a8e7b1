package models_test

import (
	"github.com/allocato/backend/internal/models"
	"github.com/allocato/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) TestJournalDetailRoundTrip() {
	source := suite.createTestCostCenter(models.CostCenter{})
	target := suite.createTestCostCenter(models.CostCenter{})

	journal := models.AllocationJournal{
		BatchID:         uuid.New(),
		SourceID:        source.ID,
		TargetID:        target.ID,
		SourceAmount:    decimal.NewFromFloat(100),
		AllocatedAmount: decimal.NewFromFloat(33.34),
		Status:          types.BatchDraft,
		Detail: models.CalculationDetail{
			Version:            1,
			Method:             types.BasisDirect,
			SourceAmount:       decimal.NewFromFloat(100),
			TargetCount:        3,
			RoundingAdjustment: decimal.NewFromFloat(0.01),
		},
	}
	suite.Require().NoError(models.DB.Create(&journal).Error)

	var reloaded models.AllocationJournal
	suite.Require().NoError(models.DB.First(&reloaded, journal.ID).Error)

	suite.Assert().Equal(1, reloaded.Detail.Version)
	suite.Assert().Equal(types.BasisDirect, reloaded.Detail.Method)
	suite.Assert().Equal(3, reloaded.Detail.TargetCount)
	suite.Assert().True(reloaded.Detail.SourceAmount.Equal(decimal.NewFromFloat(100)))
	suite.Assert().True(reloaded.Detail.RoundingAdjustment.Equal(decimal.NewFromFloat(0.01)))
}

func (suite *TestSuiteStandard) TestBasisWeightRequiresWeightedBasis() {
	costCenter := suite.createTestCostCenter(models.CostCenter{})

	weight := models.BasisWeight{
		CostCenterID: costCenter.ID,
		Basis:        types.BasisPercentage,
		Value:        decimal.NewFromInt(10),
	}

	err := models.DB.Create(&weight).Error
	suite.Assert().ErrorIs(err, models.ErrInvalidBasis)
}

func (suite *TestSuiteStandard) TestBasisWeightUnique() {
	costCenter := suite.createTestCostCenter(models.CostCenter{})

	weight := models.BasisWeight{
		CostCenterID: costCenter.ID,
		Basis:        types.BasisHeadcount,
		Value:        decimal.NewFromInt(12),
	}
	suite.Require().NoError(models.DB.Create(&weight).Error)

	duplicate := models.BasisWeight{
		CostCenterID: costCenter.ID,
		Basis:        types.BasisHeadcount,
		Value:        decimal.NewFromInt(15),
	}
	err := models.DB.Create(&duplicate).Error
	suite.Assert().ErrorIs(err, models.ErrBasisWeightNotUnique)

	// A different basis for the same cost center is fine.
	other := models.BasisWeight{
		CostCenterID: costCenter.ID,
		Basis:        types.BasisSquareFootage,
		Value:        decimal.NewFromInt(300),
	}
	suite.Assert().NoError(models.DB.Create(&other).Error)
}
