package directory

import (
	"strings"

	"wisefido-directory/internal/domain"
	"wisefido-directory/internal/search"
)

// ViewState 当前过滤和视图状态
type ViewState struct {
	Filters        domain.Filters `json:"activeFilters"`
	SearchQuery    string         `json:"searchQuery"`
	ViewMode       string         `json:"currentViewMode"`
	ResultsPerPage int            `json:"resultsPerPage"`
	CurrentPage    int            `json:"currentPage"`
}

// View 返回视图状态副本
func (s *Store) View() ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ViewState{
		Filters:        cloneFilters(s.filters),
		SearchQuery:    s.searchQuery,
		ViewMode:       s.viewMode,
		ResultsPerPage: s.resultsPerPage,
		CurrentPage:    s.currentPage,
	}
}

// SetSearchQuery 设置自由文本查询并回到第一页
func (s *Store) SetSearchQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchQuery = q
	s.currentPage = 1
	s.filteredValid = false
}

// SetFilters 设置结构化过滤条件并回到第一页
func (s *Store) SetFilters(f domain.Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = cloneFilters(f)
	s.currentPage = 1
	s.filteredValid = false
}

// SetViewMode 空值回落到默认视图
func (s *Store) SetViewMode(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode = strings.TrimSpace(mode); mode == "" {
		mode = s.opts.ViewMode
	}
	s.viewMode = mode
}

// SetResultsPerPage 非正数回落到默认值
func (s *Store) SetResultsPerPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		n = s.opts.ResultsPerPage
	}
	s.resultsPerPage = n
	s.currentPage = 1
}

// FilteredData 当前过滤视图
//
// 先用自由文本查询求值，再按楼栋/楼层精确收窄；
// 有 tag 过滤时把 tag 拼进查询文本，在收窄后的结果上重新求值（AND），而不是与结果集求交。
func (s *Store) FilteredData() []domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRooms(s.filteredLocked())
}

func (s *Store) filteredLocked() []domain.Room {
	if s.filteredValid {
		return s.filtered
	}
	if m := s.opts.Metrics; m != nil {
		m.Queries.Inc()
	}

	result := s.matchLocked(s.searchQuery, s.rooms)
	if b := s.filters.Building; b != "" {
		result = keep(result, func(r domain.Room) bool { return r.Building == b })
	}
	if f := s.filters.Floor; f != "" {
		result = keep(result, func(r domain.Room) bool { return r.Floor == f })
	}
	if len(s.filters.Tags) > 0 {
		folded := strings.TrimSpace(s.searchQuery + " " + strings.Join(s.filters.Tags, " "))
		result = search.Evaluate(folded, result, s.tagsOfLocked)
	}

	s.filtered = result
	s.filteredValid = true
	return s.filtered
}

// matchLocked 通过倒排位图求值，保持数据集顺序
func (s *Store) matchLocked(query string, rooms []domain.Room) []domain.Room {
	if len(search.ParseTerms(query)) == 0 {
		return append([]domain.Room{}, rooms...)
	}
	hits := s.index.Match(query)
	out := make([]domain.Room, 0, hits.GetCardinality())
	for _, r := range rooms {
		if hits.Contains(uint32(r.ID)) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) tagsOfLocked(r domain.Room) []string {
	return s.index.Tags(r.ID)
}

// SearchByTags 只做查询求值，不受结构化过滤影响
func (s *Store) SearchByTags(query string) []domain.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m := s.opts.Metrics; m != nil {
		m.Queries.Inc()
	}
	return cloneRooms(search.Evaluate(query, s.rooms, s.tagsOfLocked))
}

// Page 返回过滤视图的第 n 页（从 1 开始）和总条数；越界页码被钳制
func (s *Store) Page(n int) ([]domain.Room, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.filteredLocked()
	total := len(all)
	size := s.resultsPerPage
	pages := (total + size - 1) / size
	if n > pages {
		n = pages
	}
	if n < 1 {
		n = 1
	}
	s.currentPage = n

	start := (n - 1) * size
	if start >= total {
		return []domain.Room{}, total
	}
	end := min(start+size, total)
	return cloneRooms(all[start:end]), total
}

// Autocomplete 词表建议
func (s *Store) Autocomplete(prefix string, limit int) []string {
	return s.Index().Autocomplete(prefix, limit)
}

// Fuzzy 模糊排序检索，返回房间而不是索引条目
func (s *Store) Fuzzy(query string, limit int) []domain.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hits := s.index.Fuzzy(query, limit)
	out := make([]domain.Room, 0, len(hits))
	for _, h := range hits {
		if i := s.indexOfLocked(h.RoomID); i >= 0 {
			out = append(out, s.rooms[i].Clone())
		}
	}
	return out
}

func keep(in []domain.Room, pred func(domain.Room) bool) []domain.Room {
	out := in[:0:0]
	for _, r := range in {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

func cloneFilters(f domain.Filters) domain.Filters {
	return domain.Filters{
		Building: f.Building,
		Floor:    f.Floor,
		Tags:     append([]string{}, f.Tags...),
	}
}
