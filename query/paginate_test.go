package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationFor(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		limit    int
		total    int64
		wantNext *PageRef
		wantPrev *PageRef
	}{
		{"middle page", 2, 10, 25, &PageRef{Page: 3, Limit: 10}, &PageRef{Page: 1, Limit: 10}},
		{"last page", 3, 10, 25, nil, &PageRef{Page: 2, Limit: 10}},
		{"first page with more", 1, 10, 25, &PageRef{Page: 2, Limit: 10}, nil},
		{"single page", 1, 10, 5, nil, nil},
		{"exact boundary", 2, 10, 20, nil, &PageRef{Page: 1, Limit: 10}},
		{"empty result", 1, 25, 0, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paginationFor(tt.page, tt.limit, tt.total)
			assert.Equal(t, tt.wantNext, got.Next)
			assert.Equal(t, tt.wantPrev, got.Prev)
		})
	}
}
