package v1

import (
	"errors"
	"net/http"
	"sync"

	"github.com/allocato/backend/internal/engine"
	"github.com/allocato/backend/internal/httputil"
	"github.com/allocato/backend/internal/models"
	"github.com/allocato/backend/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// The executor is shared across requests so that its run locks actually
// serialize concurrent allocation runs. It is rebuilt when the database
// connection changes, which only happens in tests.
var (
	executorMu sync.Mutex
	executor   *engine.Executor
	executorDB *gorm.DB
)

func runExecutor() *engine.Executor {
	executorMu.Lock()
	defer executorMu.Unlock()

	if executor == nil || executorDB != models.DB {
		executor = engine.NewDefault(models.DB)
		executorDB = models.DB
	}

	return executor
}

// RegisterBatchRoutes registers the routes for allocation batches with the
// RouterGroup that is passed.
func RegisterBatchRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsBatchList)
		r.GET("", GetBatches)
	}

	// Allocation runs
	{
		r.OPTIONS("/allocate", OptionsBatchAllocate)
		r.POST("/allocate", AllocateRules)
	}

	// Batch with ID
	{
		r.OPTIONS("/:id", OptionsBatchDetail)
		r.GET("/:id", GetBatch)
		r.POST("/:id/post", PostBatch)
		r.POST("/:id/rollback", RollbackBatch)
	}
}

// RegisterJournalRoutes registers the routes for allocation journal rows
// with the RouterGroup that is passed. Journal rows are created by
// allocation runs and are read-only.
func RegisterJournalRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsJournalList)
		r.GET("", GetJournals)
	}

	// Journal row with ID
	{
		r.OPTIONS("/:id", OptionsJournalDetail)
		r.GET("/:id", GetJournal)
	}
}

// OptionsBatchList returns the allowed HTTP methods
func OptionsBatchList(c *gin.Context) {
	httputil.OptionsGet(c)
}

// OptionsBatchAllocate returns the allowed HTTP methods
func OptionsBatchAllocate(c *gin.Context) {
	httputil.OptionsPost(c)
}

// OptionsBatchDetail returns the allowed HTTP methods
func OptionsBatchDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Where("batch_id = ?", uri.ID).First(&models.AllocationJournal{}).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPost(c)
}

// AllocateRules runs every eligible allocation rule for the requested period
// and returns the resulting draft batch
func AllocateRules(c *gin.Context) {
	var editable AllocationRunEditable
	err := httputil.BindData(c, &editable)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	err = editable.validate()
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	batchID, err := runExecutor().ExecuteRules(editable.PeriodStart, editable.PeriodEnd, editable.CreatedBy)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	data, err := getBatchResource(c, batchID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusCreated, BatchResponse{Data: &data})
}

// AllocateCostPool distributes the pooled cost of a cost pool for the
// requested period and returns the resulting draft batch
func AllocateCostPool(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	var editable AllocationRunEditable
	err = httputil.BindData(c, &editable)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	err = editable.validate()
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	batchID, err := runExecutor().ExecutePool(uri.ID.UUID, editable.PeriodStart, editable.PeriodEnd, editable.CreatedBy)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	data, err := getBatchResource(c, batchID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusCreated, BatchResponse{Data: &data})
}

// batchRow is the scan target for the batch aggregation query. Only the
// columns that vary between the rows of a batch are aggregated, the shared
// run metadata comes from a representative journal row.
type batchRow struct {
	BatchID      uuid.UUID
	Status       types.BatchStatus
	JournalCount int
	TotalAmount  decimal.Decimal
}

func newBatch(c *gin.Context, row batchRow, journal models.AllocationJournal) Batch {
	return Batch{
		ID:           row.BatchID,
		Status:       row.Status,
		JournalCount: row.JournalCount,
		TotalAmount:  row.TotalAmount,
		PeriodStart:  journal.PeriodStart,
		PeriodEnd:    journal.PeriodEnd,
		CreatedBy:    journal.CreatedBy,
		PostedBy:     journal.PostedBy,
		PostedAt:     journal.PostedAt,
		Links:        newBatchLinks(c, row.BatchID),
	}
}

func batchQuery() *gorm.DB {
	return models.DB.
		Model(&models.AllocationJournal{}).
		Select("batch_id, max(status) AS status, count(*) AS journal_count, sum(allocated_amount) AS total_amount").
		Group("batch_id").
		Order("min(created_at) DESC")
}

// batchJournals loads one journal row per batch. Every row of a batch shares
// the period and actor fields, so any row can supply them.
func batchJournals(ids []uuid.UUID) (map[uuid.UUID]models.AllocationJournal, error) {
	var rows []models.AllocationJournal
	err := models.DB.Where("batch_id IN ?", ids).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	journals := make(map[uuid.UUID]models.AllocationJournal, len(ids))
	for _, row := range rows {
		if _, ok := journals[row.BatchID]; !ok {
			journals[row.BatchID] = row
		}
	}

	return journals, nil
}

func getBatchResource(c *gin.Context, id uuid.UUID) (Batch, error) {
	var row batchRow
	err := batchQuery().Where("batch_id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, models.ErrResourceNotFound) {
			return Batch{}, engine.ErrBatchNotFound
		}
		return Batch{}, err
	}

	var journal models.AllocationJournal
	err = models.DB.Where("batch_id = ?", id).First(&journal).Error
	if err != nil {
		return Batch{}, err
	}

	return newBatch(c, row, journal), nil
}

// GetBatches returns a list of all batches, most recent first
func GetBatches(c *gin.Context) {
	var filter struct {
		Status string `form:"status"`
		Offset uint   `form:"offset"`
		Limit  int    `form:"limit"`
	}

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	q := batchQuery()
	if filter.Status != "" {
		q = q.Having("max(status) = ?", filter.Status)
	}

	var all []batchRow
	err := q.Find(&all).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchListResponse{
			Error: &s,
		})
		return
	}

	limit := 50
	if filter.Limit > 0 {
		limit = filter.Limit
	}

	// The aggregation cannot be paginated in the database without losing
	// the total, so the page is cut from the full result.
	offset := int(filter.Offset)
	if offset > len(all) {
		offset = len(all)
	}
	page := all[offset:]
	if len(page) > limit {
		page = page[:limit]
	}

	ids := make([]uuid.UUID, 0, len(page))
	for _, row := range page {
		ids = append(ids, row.BatchID)
	}

	journals, err := batchJournals(ids)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchListResponse{
			Error: &s,
		})
		return
	}

	data := make([]Batch, 0, len(page))
	for _, row := range page {
		data = append(data, newBatch(c, row, journals[row.BatchID]))
	}

	c.JSON(http.StatusOK, BatchListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  int64(len(all)),
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// GetBatch returns a specific batch
func GetBatch(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	data, err := getBatchResource(c, uri.ID.UUID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusOK, BatchResponse{Data: &data})
}

// PostBatch posts a draft batch to the ledger
func PostBatch(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	var editable BatchPostEditable
	err = httputil.BindData(c, &editable)
	if err != nil && !errors.Is(err, httputil.ErrRequestBodyEmpty) {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	err = engine.Post(models.DB, uri.ID.UUID, editable.PostedBy)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	data, err := getBatchResource(c, uri.ID.UUID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusOK, BatchResponse{Data: &data})
}

// RollbackBatch rolls a batch back. A draft batch is deleted, a posted
// batch is reversed.
func RollbackBatch(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	err = engine.Rollback(models.DB, uri.ID.UUID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	data, err := getBatchResource(c, uri.ID.UUID)
	if err != nil {
		// A rolled back draft batch leaves nothing behind
		if errors.Is(err, engine.ErrBatchNotFound) {
			c.JSON(http.StatusNoContent, nil)
			return
		}

		s := err.Error()
		c.JSON(status(err), BatchResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusOK, BatchResponse{Data: &data})
}

// OptionsJournalList returns the allowed HTTP methods
func OptionsJournalList(c *gin.Context) {
	httputil.OptionsGet(c)
}

// OptionsJournalDetail returns the allowed HTTP methods
func OptionsJournalDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&models.AllocationJournal{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGet(c)
}

// GetJournals returns a list of journal rows filtered by the query
// parameters
func GetJournals(c *gin.Context) {
	var filter JournalQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	filterModel, err := filter.model()
	if err != nil {
		s := err.Error()
		c.JSON(status(err), JournalListResponse{
			Error: &s,
		})
		return
	}

	q := models.DB.
		Order("created_at DESC").
		Where(&filterModel, queryFields...)

	q = q.Offset(int(filter.Offset))

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var rows []models.AllocationJournal
	err = q.Find(&rows).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), JournalListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), JournalListResponse{
			Error: &e,
		})
		return
	}

	data := make([]Journal, 0, len(rows))
	for _, row := range rows {
		data = append(data, newJournal(c, row))
	}

	c.JSON(http.StatusOK, JournalListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// GetJournal returns a specific journal row
func GetJournal(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), JournalResponse{
			Error: &s,
		})
		return
	}

	var row models.AllocationJournal
	err = models.DB.First(&row, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), JournalResponse{
			Error: &s,
		})
		return
	}

	data := newJournal(c, row)
	c.JSON(http.StatusOK, JournalResponse{Data: &data})
}
