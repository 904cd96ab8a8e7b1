package v1

import (
	"net/http"

	"github.com/allocato/backend/internal/httputil"
	"github.com/allocato/backend/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slices"
)

// RegisterCostEntryRoutes registers the routes for cost entries with the
// RouterGroup that is passed.
func RegisterCostEntryRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsCostEntryList)
		r.GET("", GetCostEntries)
		r.POST("", CreateCostEntries)
	}

	// Entry with ID
	{
		r.OPTIONS("/:id", OptionsCostEntryDetail)
		r.GET("/:id", GetCostEntry)
		r.PATCH("/:id", UpdateCostEntry)
		r.DELETE("/:id", DeleteCostEntry)
	}
}

// OptionsCostEntryList returns the allowed HTTP methods
func OptionsCostEntryList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// OptionsCostEntryDetail returns the allowed HTTP methods
func OptionsCostEntryDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&models.CostEntry{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// CreateCostEntries creates new cost entries
func CreateCostEntries(c *gin.Context) {
	var editables []CostEntryEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CostEntryCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := CostEntryCreateResponse{}

	for _, editable := range editables {
		entry := editable.model()

		err = models.DB.Create(&entry).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newCostEntry(c, entry)
		r.Data = append(r.Data, CostEntryResponse{Data: &data})
	}

	c.JSON(status, r)
}

// GetCostEntries returns a list of cost entries filtered by the query
// parameters
func GetCostEntries(c *gin.Context) {
	var filter CostEntryQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	filterModel, err := filter.model()
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostEntryListResponse{
			Error: &s,
		})
		return
	}

	q := models.DB.
		Order("date DESC").
		Where(&filterModel, queryFields...)

	if slices.Contains(setFields, "From") {
		q = q.Where("date >= date(?)", filter.From)
	}

	if slices.Contains(setFields, "Until") {
		q = q.Where("date <= date(?)", filter.Until)
	}

	q = q.Offset(int(filter.Offset))

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var entries []models.CostEntry
	err = q.Find(&entries).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostEntryListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CostEntryListResponse{
			Error: &e,
		})
		return
	}

	data := make([]CostEntry, 0, len(entries))
	for _, entry := range entries {
		data = append(data, newCostEntry(c, entry))
	}

	c.JSON(http.StatusOK, CostEntryListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// GetCostEntry returns a specific cost entry
func GetCostEntry(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostEntryResponse{
			Error: &s,
		})
		return
	}

	var entry models.CostEntry
	err = models.DB.First(&entry, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostEntryResponse{
			Error: &s,
		})
		return
	}

	data := newCostEntry(c, entry)
	c.JSON(http.StatusOK, CostEntryResponse{Data: &data})
}

// UpdateCostEntry updates an existing cost entry. Only values to be updated
// need to be specified.
func UpdateCostEntry(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostEntryResponse{
			Error: &s,
		})
		return
	}

	var entry models.CostEntry
	err = models.DB.First(&entry, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostEntryResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, CostEntryEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostEntryResponse{
			Error: &s,
		})
		return
	}

	var data CostEntryEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostEntryResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.Model(&entry).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostEntryResponse{
			Error: &s,
		})
		return
	}

	r := newCostEntry(c, entry)
	c.JSON(http.StatusOK, CostEntryResponse{Data: &r})
}

// DeleteCostEntry deletes a cost entry
func DeleteCostEntry(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var entry models.CostEntry
	err = models.DB.First(&entry, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&entry).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
