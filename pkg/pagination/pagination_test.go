package pagination

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query   string
		page    int
		perPage int
		offset  int
	}{
		{"", 1, 20, 0},
		{"?page=3&per_page=10", 3, 10, 20},
		{"?page=0&per_page=-5", 1, 20, 0},
		{"?page=abc&per_page=xyz", 1, 20, 0},
		{"?per_page=500", 1, 100, 0},
		{"?page=2&business=Joe%27s", 2, 20, 20},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest(http.MethodGet, "/api/v1/reviews"+tt.query, nil))
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
			assert.Equal(t, tt.offset, p.Offset())
			assert.Equal(t, tt.perPage, p.Limit())
		})
	}
}

func TestNewResult(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		params     Params
		totalPages int
		hasNext    bool
		hasPrev    bool
	}{
		{"empty", 0, Params{Page: 1, PerPage: 20}, 0, false, false},
		{"exact fit", 40, Params{Page: 1, PerPage: 20}, 2, true, false},
		{"partial last", 41, Params{Page: 3, PerPage: 20}, 3, false, true},
		{"middle", 100, Params{Page: 2, PerPage: 10}, 10, true, true},
		{"zero per page", 5, Params{Page: 1}, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResult([]int{1}, tt.total, tt.params)
			assert.Equal(t, tt.totalPages, r.TotalPages)
			assert.Equal(t, tt.hasNext, r.HasNext)
			assert.Equal(t, tt.hasPrev, r.HasPrev)
		})
	}
}

func TestNewResult_NilDataRendersEmptyArray(t *testing.T) {
	b, err := json.Marshal(NewResult[string](nil, 0, DefaultParams()))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"data":[]`)
}
