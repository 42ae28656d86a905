package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	cases := []struct {
		name        string
		page, limit int
		total       int64
		want        Pagination
	}{
		{"empty", 1, 10, 0, Pagination{CurrentPage: 1, Limit: 10}},
		{"first of two", 1, 10, 11, Pagination{CurrentPage: 1, Limit: 10, TotalItems: 11, TotalPages: 2, HasNextPage: true}},
		{"last", 2, 10, 11, Pagination{CurrentPage: 2, Limit: 10, TotalItems: 11, TotalPages: 2, HasPrevPage: true}},
		{"exact fit", 2, 5, 10, Pagination{CurrentPage: 2, Limit: 5, TotalItems: 10, TotalPages: 2, HasPrevPage: true}},
		{"past the end", 4, 5, 10, Pagination{CurrentPage: 4, Limit: 5, TotalItems: 10, TotalPages: 2, HasPrevPage: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewPagination(tc.page, tc.limit, tc.total))
		})
	}
}
