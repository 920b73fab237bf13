// Package pagination implements the page state of one browsing session.
// Every transition clamps to [1, TotalPages] instead of failing.
//
// Package pagination 实现单个浏览会话的页面状态。每次转换都截断到[1, TotalPages]，而不是失败。
package pagination

// Info is a read-only view of the state.
//
// Info 是状态的只读视图。
type Info struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalItems   int `json:"total"`
	TotalPages   int `json:"totalPages"`
}

// State tracks the current page, the fixed page size and the last reported total.
// TotalPages is always derived. A State is not safe for concurrent use.
//
// State 跟踪当前页、固定页大小和最近报告的总数。TotalPages 始终由计算得出。
// State 不能安全地并发使用。
type State struct {
	currentPage  int
	itemsPerPage int
	totalItems   int
}

// New returns a state with no items yet, so TotalPages is 1 until the first
// UpdateFromResponse. initialPage is clamped like any navigation; callers that
// want to land on a later page fetch it and call GoToPage after the update.
//
// New 返回尚无条目的状态，因此在第一次UpdateFromResponse之前TotalPages为1。
// initialPage 与任何导航一样被截断；想要停在更后面页面的调用者需在更新后调用GoToPage。
func New(initialPage, itemsPerPage int) *State {
	if itemsPerPage < 1 {
		itemsPerPage = 1
	}
	s := &State{itemsPerPage: itemsPerPage}
	s.GoToPage(initialPage)
	return s
}

// TotalPages is ceil(TotalItems / ItemsPerPage), at least 1.
//
// TotalPages 为 ceil(TotalItems / ItemsPerPage)，至少为1。
func (s *State) TotalPages() int {
	pages := (s.totalItems + s.itemsPerPage - 1) / s.itemsPerPage
	if pages < 1 {
		return 1
	}
	return pages
}

// CurrentPage returns the 1-based current page. / CurrentPage 返回从1开始的当前页。
func (s *State) CurrentPage() int { return s.currentPage }

// ItemsPerPage returns the page size. / ItemsPerPage 返回页大小。
func (s *State) ItemsPerPage() int { return s.itemsPerPage }

// TotalItems returns the last reported total. / TotalItems 返回最近报告的总数。
func (s *State) TotalItems() int { return s.totalItems }

// Offset is the index of the first item of the current page.
//
// Offset 是当前页第一个条目的索引。
func (s *State) Offset() int {
	return (s.currentPage - 1) * s.itemsPerPage
}

// GoToPage moves to page n, clamped to [1, TotalPages].
//
// GoToPage 移动到第n页，截断到[1, TotalPages]。
func (s *State) GoToPage(n int) {
	s.currentPage = clamp(n, 1, s.TotalPages())
}

// GoToNext moves forward one page. On the last page it stays put.
//
// GoToNext 前进一页。在最后一页时保持不动。
func (s *State) GoToNext() {
	s.GoToPage(s.currentPage + 1)
}

// GoToPrevious moves back one page. On page 1 it stays put.
//
// GoToPrevious 后退一页。在第1页时保持不动。
func (s *State) GoToPrevious() {
	s.GoToPage(s.currentPage - 1)
}

// GoToFirst moves to page 1.
//
// GoToFirst 移动到第1页。
func (s *State) GoToFirst() {
	s.currentPage = 1
}

// GoToLast moves to TotalPages.
//
// GoToLast 移动到TotalPages。
func (s *State) GoToLast() {
	s.currentPage = s.TotalPages()
}

// UpdateFromResponse stores a new total and pulls the current page down if it
// is now past the last page. It is the only transition that lowers the page
// without being asked to.
//
// UpdateFromResponse 保存新的总数，若当前页已超过最后一页则将其下调。
// 这是唯一一个未被请求就降低页码的转换。
func (s *State) UpdateFromResponse(total int) {
	if total < 0 {
		total = 0
	}
	s.totalItems = total
	if last := s.TotalPages(); s.currentPage > last {
		s.currentPage = last
	}
}

// Snapshot returns the current values.
//
// Snapshot 返回当前值。
func (s *State) Snapshot() Info {
	return Info{
		CurrentPage:  s.currentPage,
		ItemsPerPage: s.itemsPerPage,
		TotalItems:   s.totalItems,
		TotalPages:   s.TotalPages(),
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
