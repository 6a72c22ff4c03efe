package rest

import (
	"github.com/gin-gonic/gin"
)

const MAX_PAGE_SIZE = 1000

// ListCustomersQueryParams holds query parameters for GET /runs/:id/customers
type ListCustomersQueryParams struct {
	// Segment restricts results to one segment when set
	Segment string `form:"segment"`

	// Pagination
	Limit  int    `form:"limit,default=100"`
	Offset uint64 `form:"offset,default=0"`
}

// ParseListCustomersQuery parses query parameters for GET /runs/:id/customers
func ParseListCustomersQuery(c *gin.Context) (*ListCustomersQueryParams, error) {
	var params ListCustomersQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	// Cap limits
	if params.Limit <= 0 {
		params.Limit = 100
	}
	if params.Limit > MAX_PAGE_SIZE {
		params.Limit = MAX_PAGE_SIZE
	}

	return &params, nil
}
