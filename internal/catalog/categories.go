package catalog

import (
	"encoding/json"
	"strings"
)

// categoryObject is the {slug, name, url} shape newer catalogs return.
type categoryObject struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// NormalizeCategories maps a category list whose entries are either plain
// strings or {slug, name} objects to lowercase slugs. Blank and
// unrecognized entries are dropped. Order is preserved and duplicates removed.
//
// NormalizeCategories 将条目为纯字符串或 {slug, name} 对象的分类列表映射为小写slug。
// 空白和无法识别的条目被丢弃。保持顺序并去除重复项。
func NormalizeCategories(raw []json.RawMessage) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, entry := range raw {
		slug := categorySlug(entry)
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	return out
}

func categorySlug(entry json.RawMessage) string {
	var s string
	if err := json.Unmarshal(entry, &s); err == nil {
		return slugify(s)
	}

	var obj categoryObject
	if err := json.Unmarshal(entry, &obj); err == nil {
		if slug := slugify(obj.Slug); slug != "" {
			return slug
		}
		return slugify(obj.Name)
	}
	return ""
}

// slugify lowercases s and joins its words with '-'.
func slugify(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
