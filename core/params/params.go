package params

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 20
	MaxPageSize       = 100
)

type QueryParams struct {
	PageNumber int
	PageSize   int
}

// NewQueryParams reads page and limit from the query string, clamping them to
// sane bounds.
func NewQueryParams(ctx echo.Context) *QueryParams {
	p := &QueryParams{PageNumber: DefaultPageNumber, PageSize: DefaultPageSize}
	if v, err := strconv.Atoi(ctx.QueryParam("page")); err == nil && v > 0 {
		p.PageNumber = v
	}
	if v, err := strconv.Atoi(ctx.QueryParam("limit")); err == nil && v > 0 {
		p.PageSize = min(v, MaxPageSize)
	}
	return p
}

func (p QueryParams) Offset() int {
	return (p.PageNumber - 1) * p.PageSize
}
