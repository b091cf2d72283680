// internal/utils/pagination.go
package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PaginationParams carries page/limit plus the optional list filters.
type PaginationParams struct {
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
	Sort     string `json:"sort"`
	Order    string `json:"order"`
	Search   string `json:"search"`
	Category string `json:"category"`
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       interface{} `json:"data"`
}

// GetPaginationParams reads page/limit. A skip query parameter overrides the
// page-derived offset so skip/limit clients keep working.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	params := NewPaginationParams(page, limit)
	params.Search = c.Query("search")
	params.Category = c.Query("category")
	if sort := c.Query("sort"); sort != "" {
		params.Sort = sort
	}
	if c.Query("order") == "asc" {
		params.Order = "asc"
	}

	if skip, err := strconv.Atoi(c.Query("skip")); err == nil && skip >= 0 {
		params.Offset = skip
		params.Page = skip/params.Limit + 1
	}

	return params
}

// NewPaginationParams clamps out-of-range values to the defaults.
func NewPaginationParams(page, limit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxPageLimit {
		limit = DefaultPageLimit
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
		Sort:   "created_at",
		Order:  "desc",
	}
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	return db.Offset(params.Offset).Limit(params.Limit)
}

// ApplySort orders by params.Sort when it is whitelisted, else by created_at.
func ApplySort(db *gorm.DB, params PaginationParams, allowedSortFields []string) *gorm.DB {
	field := "created_at"
	for _, allowed := range allowedSortFields {
		if allowed == params.Sort {
			field = allowed
			break
		}
	}

	if params.Order == "asc" {
		return db.Order(field + " asc")
	}
	return db.Order(field + " desc")
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	totalPages := 0
	if params.Limit > 0 {
		totalPages = int((total + int64(params.Limit) - 1) / int64(params.Limit))
	}

	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		Data:       data,
	}
}

// Meta is the pagination block placed in the response meta.
func (r PaginationResult) Meta() gin.H {
	return gin.H{
		"page":        r.Page,
		"limit":       r.Limit,
		"total":       r.Total,
		"total_pages": r.TotalPages,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
