package category

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/shopfront/internal/model"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		remote []string
		local  []model.Product
		want   []string
	}{
		{
			name: "nil remote falls back to local",
			local: []model.Product{
				{ID: 1, Category: "Gadgets"},
				{ID: 2, Category: "books"},
			},
			want: []string{"all", "books", "gadgets"},
		},
		{
			name: "both empty",
			want: []string{"all"},
		},
		{
			name:   "union with duplicates and blanks",
			remote: []string{"smartphones", " ", "", "Beauty", "all"},
			local: []model.Product{
				{ID: 1, Category: "beauty"},
				{ID: 2, Category: "  "},
				{ID: 3, Category: "Zebra-Goods"},
			},
			want: []string{"all", "beauty", "smartphones", "zebra-goods"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.remote, tt.local))
		})
	}
}
