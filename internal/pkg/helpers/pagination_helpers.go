package helpers

import (
	"math"
	"strconv"

	"github.com/deptcms/portal/internal/app/models/dto"
	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultPage     = 1
)

// CalculateOffsetLimit turns a 1-based page and a size into an SQL offset and limit
func CalculateOffsetLimit(page, size int) (offset uint64, limit uint64) {
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	if page < 1 {
		page = DefaultPage
	}
	return uint64((page - 1) * size), uint64(size)
}

// NewPaginationInfo builds the pagination block of a list response
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = DefaultPage
	}

	totalPages := int(math.Ceil(float64(totalItems) / float64(size)))
	if totalPages == 0 {
		// An empty list still has one (empty) page
		totalPages = 1
	}

	return dto.PaginationInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

// ParsePaginationParams reads page and size from the query string, falling back
// to defaults for missing or invalid values
func ParsePaginationParams(c *gin.Context) (page, size int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = DefaultPage
	}

	size, err = strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(DefaultPageSize)))
	if err != nil || size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}

	return page, size
}
