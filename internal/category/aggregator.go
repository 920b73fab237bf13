// Package category derives the unified category list shown to shoppers.
package category

import (
	"sort"
	"strings"

	"github.com/yourusername/shopfront/internal/model"
)

// Resolve unions the remote categories with the categories observed on local
// records. The result is lowercase, de-duplicated, sorted, and always starts
// with model.AllCategories. A nil or empty remote list falls back to local
// categories only.
func Resolve(remote []string, local []model.Product) []string {
	set := make(map[string]struct{}, len(remote)+len(local))
	add := func(c string) {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || c == model.AllCategories {
			return
		}
		set[c] = struct{}{}
	}

	for _, c := range remote {
		add(c)
	}
	for _, p := range local {
		add(p.Category)
	}

	out := make([]string, 0, len(set)+1)
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return append([]string{model.AllCategories}, out...)
}
