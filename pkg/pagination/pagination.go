package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Params holds pagination parameters extracted from query strings.
// Offset/Limit are what the catalog API understands; Page/PerPage are the
// friendlier public form.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:    1,
		PerPage: defaultPerPage,
		Offset:  0,
	}
}

// Limit is the number of records to request.
func (p Params) Limit() int {
	return p.PerPage
}

// FromRequest extracts pagination parameters from an HTTP request.
// Raw offset/limit take precedence over page/per_page when both are given;
// the page is then derived from the offset.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if perPage := positive(q.Get("per_page")); perPage > 0 && perPage <= maxPerPage {
		p.PerPage = perPage
	}
	if limit := positive(q.Get("limit")); limit > 0 && limit <= maxPerPage {
		p.PerPage = limit
	}
	if page := positive(q.Get("page")); page > 0 {
		p.Page = page
	}
	p.Offset = (p.Page - 1) * p.PerPage

	if raw := q.Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			p.Offset = v
			p.Page = v/p.PerPage + 1
		}
	}

	return p
}

func positive(raw string) int {
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

// Result wraps one page of records. The catalog does not report totals, so
// HasNext is inferred from whether a full page came back.
type Result[T any] struct {
	Data    []T  `json:"data"`
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// NewResult creates a paginated result.
func NewResult[T any](data []T, params Params) Result[T] {
	if data == nil {
		data = []T{}
	}
	return Result[T]{
		Data:    data,
		Page:    params.Page,
		PerPage: params.PerPage,
		HasNext: len(data) == params.PerPage,
		HasPrev: params.Offset > 0,
	}
}
