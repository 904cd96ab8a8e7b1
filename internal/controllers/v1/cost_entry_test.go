package v1_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	v1 "github.com/allocato/backend/internal/controllers/v1"
	"github.com/allocato/backend/internal/models"
	"github.com/allocato/backend/test"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// TestCostEntriesDBClosed verifies that errors are processed correctly when
// the database is closed.
func (suite *TestSuiteStandard) TestCostEntriesDBClosed() {
	tests := []struct {
		name string             // Name of the test
		test func(t *testing.T) // Code to run
	}{
		{
			"Creation fails",
			func(t *testing.T) {
				createTestCostEntry(t, v1.CostEntryEditable{CostCenterID: uuid.New()}, http.StatusInternalServerError)
			},
		},
		{
			"GET fails",
			func(t *testing.T) {
				recorder := test.Request(t, http.MethodGet, "http://example.com/v1/cost-entries", "")
				test.AssertHTTPStatus(t, &recorder, http.StatusInternalServerError)

				var response v1.CostEntryListResponse
				test.DecodeResponse(t, &recorder, &response)
				assert.Contains(t, *response.Error, models.ErrGeneral.Error())
			},
		},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			suite.CloseDB()

			tt.test(t)
		})
	}
}

// TestCostEntriesOptions verifies that OPTIONS requests are handled
// correctly.
func (suite *TestSuiteStandard) TestCostEntriesOptions() {
	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"No entry with this ID", uuid.New().String(), http.StatusNotFound},
		{"Not a valid UUID", "NotParseableAsUUID", http.StatusBadRequest},
		{"Entry exists", createTestCostEntry(suite.T(), v1.CostEntryEditable{}).Data.ID.String(), http.StatusNoContent},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			path := fmt.Sprintf("%s/%s", "http://example.com/v1/cost-entries", tt.id)
			r := test.Request(t, http.MethodOptions, path, "")
			test.AssertHTTPStatus(t, &r, tt.status)

			if tt.status == http.StatusNoContent {
				assert.Equal(t, "OPTIONS, GET, PATCH, DELETE", r.Header().Get("allow"))
			}
		})
	}
}

func (suite *TestSuiteStandard) TestCostEntriesGetFilter() {
	costCenter := createTestCostCenter(suite.T(), v1.CostCenterEditable{Active: true})

	_ = createTestCostEntry(suite.T(), v1.CostEntryEditable{
		CostCenterID: costCenter.Data.ID,
		Date:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.NewFromInt(100),
	})

	_ = createTestCostEntry(suite.T(), v1.CostEntryEditable{
		CostCenterID: costCenter.Data.ID,
		Date:         time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.NewFromInt(200),
	})

	_ = createTestCostEntry(suite.T(), v1.CostEntryEditable{
		Date:   time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		Amount: decimal.NewFromInt(300),
	})

	tests := []struct {
		name  string
		query string
		len   int
	}{
		{"Cost center", fmt.Sprintf("costCenter=%s", costCenter.Data.ID), 2},
		{"From", "from=2026-02-01", 2},
		{"Until", "until=2026-01-31", 1},
		{"From and until", "from=2026-02-01&until=2026-02-16", 1},
		{"Cost center and from", fmt.Sprintf("costCenter=%s&from=2026-02-01", costCenter.Data.ID), 1},
		{"All", "", 3},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			var re v1.CostEntryListResponse
			r := test.Request(t, http.MethodGet, fmt.Sprintf("/v1/cost-entries?%s", tt.query), "")
			test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)
			test.DecodeResponse(t, &r, &re)

			assert.Equal(t, tt.len, len(re.Data), "Request ID: %s", r.Result().Header.Get("x-request-id"))
		})
	}
}

// TestCostEntriesGetSorted verifies that entries are sorted by date,
// newest first.
func (suite *TestSuiteStandard) TestCostEntriesGetSorted() {
	costCenter := createTestCostCenter(suite.T(), v1.CostCenterEditable{Active: true})

	older := createTestCostEntry(suite.T(), v1.CostEntryEditable{
		CostCenterID: costCenter.Data.ID,
		Date:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.NewFromInt(10),
	})

	newer := createTestCostEntry(suite.T(), v1.CostEntryEditable{
		CostCenterID: costCenter.Data.ID,
		Date:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.NewFromInt(20),
	})

	r := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/cost-entries", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var entries v1.CostEntryListResponse
	test.DecodeResponse(suite.T(), &r, &entries)

	assert.Len(suite.T(), entries.Data, 2)
	assert.Equal(suite.T(), newer.Data.ID, entries.Data[0].ID)
	assert.Equal(suite.T(), older.Data.ID, entries.Data[1].ID)
}

// Verify that updating entries works as desired
func (suite *TestSuiteStandard) TestCostEntriesUpdate() {
	entry := createTestCostEntry(suite.T(), v1.CostEntryEditable{Memo: "Original memo"})

	r := test.Request(suite.T(), http.MethodPatch, entry.Data.Links.Self, map[string]any{
		"memo":   "Updated memo",
		"amount": "99.95",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.CostEntryResponse
	test.DecodeResponse(suite.T(), &r, &response)

	assert.Equal(suite.T(), "Updated memo", response.Data.Memo)
	assert.True(suite.T(), response.Data.Amount.Equal(decimal.New(9995, -2)))
}

// TestCostEntriesDelete verifies all cases for entry deletions.
func (suite *TestSuiteStandard) TestCostEntriesDelete() {
	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"Success", "", http.StatusNoContent},
		{"Non-existing entry", uuid.New().String(), http.StatusNotFound},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			var recorder httptest.ResponseRecorder

			if tt.id == "" {
				e := createTestCostEntry(t, v1.CostEntryEditable{})
				tt.id = e.Data.ID.String()
			}

			recorder = test.Request(t, http.MethodDelete, fmt.Sprintf("http://example.com/v1/cost-entries/%s", tt.id), "")
			test.AssertHTTPStatus(t, &recorder, tt.status)
		})
	}
}
