package models_test

import (
	"github.com/allocato/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (suite *TestSuiteStandard) TestResourceNotFoundMessage() {
	var costCenter models.CostCenter
	err := models.DB.First(&costCenter, uuid.New()).Error
	suite.Require().ErrorIs(err, models.ErrResourceNotFound)
	suite.Assert().Equal("there is no cost center matching your query", err.Error())

	var pool models.CostPool
	err = models.DB.First(&pool, uuid.New()).Error
	suite.Require().ErrorIs(err, models.ErrResourceNotFound)
	suite.Assert().Equal("there is no cost pool matching your query", err.Error())

	var journal models.AllocationJournal
	err = models.DB.First(&journal, uuid.New()).Error
	suite.Require().ErrorIs(err, models.ErrResourceNotFound)
	suite.Assert().Equal("there is no allocation journal matching your query", err.Error())
}

func (suite *TestSuiteStandard) TestClosedDatabase() {
	suite.CloseDB()

	var costCenter models.CostCenter
	err := models.DB.First(&costCenter, uuid.New()).Error
	suite.Assert().ErrorIs(err, models.ErrGeneral)
}

// A failing transaction begin must surface as the general error, the same
// way errors inside the transaction do.
func (suite *TestSuiteStandard) TestTransactionClosedDatabase() {
	suite.CloseDB()

	err := models.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&models.CostCenter{Code: uuid.NewString()}).Error
	})
	suite.Assert().ErrorIs(err, models.ErrGeneral)
}
