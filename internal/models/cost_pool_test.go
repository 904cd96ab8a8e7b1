package models_test

import (
	"github.com/allocato/backend/internal/models"
	"github.com/allocato/backend/internal/types"
)

func (suite *TestSuiteStandard) TestPoolInvalidBasis() {
	tests := []struct {
		name  string
		basis types.AllocationBasis
		err   error
	}{
		{"equal is valid", types.BasisEqual, nil},
		{"square footage is valid", types.BasisSquareFootage, nil},
		{"direct is a rule basis", types.BasisDirect, models.ErrInvalidBasis},
		{"percentage is a rule basis", types.BasisPercentage, models.ErrInvalidBasis},
		{"formula is a rule basis", types.BasisFormula, models.ErrInvalidBasis},
		{"empty is invalid", types.AllocationBasis(""), models.ErrInvalidBasis},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			pool := models.CostPool{Basis: tt.basis}
			err := pool.BeforeSave(models.DB)

			if tt.err == nil {
				suite.Assert().NoError(err)
			} else {
				suite.Assert().ErrorIs(err, tt.err)
			}
		})
	}
}

func (suite *TestSuiteStandard) TestPoolDuplicateCode() {
	_ = suite.createTestPool(models.CostPool{Code: "FACILITIES", Basis: types.BasisEqual})

	pool := models.CostPool{Code: "FACILITIES", Basis: types.BasisEqual}
	err := models.DB.Create(&pool).Error
	suite.Assert().ErrorIs(err, models.ErrPoolCodeNotUnique)
}

func (suite *TestSuiteStandard) TestPoolMemberInvalidRole() {
	costCenter := suite.createTestCostCenter(models.CostCenter{})

	pool := models.CostPool{
		Code:  "BROKEN",
		Basis: types.BasisEqual,
		Members: []models.CostPoolMember{
			{CostCenterID: costCenter.ID, Role: types.MemberRole("observer")},
		},
	}

	err := models.DB.Create(&pool).Error
	suite.Assert().ErrorIs(err, models.ErrInvalidMemberRole)
}

func (suite *TestSuiteStandard) TestPoolMemberRoles() {
	payingOne := suite.createTestCostCenter(models.CostCenter{})
	payingTwo := suite.createTestCostCenter(models.CostCenter{})
	receiving := suite.createTestCostCenter(models.CostCenter{})

	pool := suite.createTestPool(models.CostPool{
		Basis: types.BasisEqual,
		Members: []models.CostPoolMember{
			{CostCenterID: payingOne.ID, Role: types.RoleContributor, Position: 0},
			{CostCenterID: receiving.ID, Role: types.RoleTarget, Position: 1},
			{CostCenterID: payingTwo.ID, Role: types.RoleContributor, Position: 2},
		},
	})

	contributors := pool.Contributors()
	suite.Require().Len(contributors, 2)
	suite.Assert().Equal(payingOne.ID, contributors[0].CostCenterID)
	suite.Assert().Equal(payingTwo.ID, contributors[1].CostCenterID)

	targets := pool.Targets()
	suite.Require().Len(targets, 1)
	suite.Assert().Equal(receiving.ID, targets[0].CostCenterID)
}
