package directory

import (
	"fmt"

	"wisefido-directory/internal/codec"
	"wisefido-directory/internal/domain"

	"go.uber.org/zap"
)

// ImportCounts 标签导入结果
type ImportCounts struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ExportTags 导出属于已加载房间的自定义标签
func (s *Store) ExportTags() ([]byte, error) {
	s.mu.RLock()
	data, err := codec.EncodeTags(s.customTags, s.rooms, s.opts.Now())
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	s.opts.Notifier.Refresh("tags-export")
	return data, nil
}

// ImportTags 解析标签文档并合并到已加载房间
// 同一房间内重名（不区分大小写）的标签不重复添加，也不计数
func (s *Store) ImportTags(data []byte) (ImportCounts, error) {
	doc, err := codec.DecodeTags(data)
	if err != nil {
		return ImportCounts{}, err
	}

	s.mu.Lock()
	plan, skipped := codec.PlanTagImport(doc, s.rooms, s.opts.Now())
	counts := ImportCounts{Skipped: skipped}
	for _, a := range plan {
		for _, t := range a.Tags {
			if domain.HasTag(s.customTags[a.RoomID], t.Name) {
				continue
			}
			s.customTags[a.RoomID] = append(s.customTags[a.RoomID], t)
			counts.Imported++
		}
	}
	s.rebuildLocked()
	s.mu.Unlock()

	s.logger.Info("Custom tags imported", zap.Int("imported", counts.Imported), zap.Int("skipped", counts.Skipped))
	s.opts.Notifier.Refresh("tags")
	return counts, nil
}

// Snapshot 数据集和视图状态的深拷贝
func (s *Store) Snapshot() codec.SessionData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() codec.SessionData {
	custom := make(map[int][]domain.CustomTag, len(s.customTags))
	for id, list := range s.customTags {
		custom[id] = append([]domain.CustomTag{}, list...)
	}
	staff := make(map[int][]string, len(s.staffTags))
	for id, list := range s.staffTags {
		staff[id] = append([]string{}, list...)
	}
	colors := make(map[string]string, len(s.buildingColors))
	for k, v := range s.buildingColors {
		colors[k] = v
	}
	return codec.SessionData{
		ProcessedData:   cloneRooms(s.rooms),
		CustomTags:      custom,
		StaffTags:       staff,
		BuildingColors:  colors,
		ActiveFilters:   cloneFilters(s.filters),
		SearchQuery:     s.searchQuery,
		CurrentViewMode: s.viewMode,
		ResultsPerPage:  s.resultsPerPage,
	}
}

// ExportSession 整个 session 编码为不透明文本
func (s *Store) ExportSession() (string, error) {
	s.mu.RLock()
	data := s.snapshotLocked()
	s.mu.RUnlock()
	blob, err := codec.EncodeSession(data, s.opts.Now())
	if err != nil {
		return "", err
	}
	s.opts.Notifier.Refresh("session-export")
	return blob, nil
}

// ImportSession 解码并整体替换数据集；解码失败时数据集不变
func (s *Store) ImportSession(blob string) error {
	doc, err := codec.DecodeSession(blob)
	if err != nil {
		return fmt.Errorf("failed to import session: %w", err)
	}
	s.Replace(doc.Data)
	return nil
}

// Replace 整体替换数据集、注解和视图状态，缺失字段回落到默认值
func (s *Store) Replace(data codec.SessionData) {
	s.mu.Lock()
	s.rooms = cloneRooms(data.ProcessedData)
	if s.rooms == nil {
		s.rooms = []domain.Room{}
	}

	s.customTags = map[int][]domain.CustomTag{}
	for id, list := range data.CustomTags {
		if len(list) > 0 {
			s.customTags[id] = append([]domain.CustomTag{}, list...)
		}
	}
	s.staffTags = map[int][]string{}
	for id, list := range data.StaffTags {
		if len(list) > 0 {
			s.staffTags[id] = append([]string{}, list...)
		}
	}
	s.buildingColors = map[string]string{}
	for k, v := range data.BuildingColors {
		s.buildingColors[k] = v
	}

	s.filters = cloneFilters(data.ActiveFilters)
	s.searchQuery = data.SearchQuery
	s.viewMode = data.CurrentViewMode
	if s.viewMode == "" {
		s.viewMode = s.opts.ViewMode
	}
	s.resultsPerPage = data.ResultsPerPage
	if s.resultsPerPage <= 0 {
		s.resultsPerPage = s.opts.ResultsPerPage
	}
	s.currentPage = 1

	maxID := 0
	for _, r := range s.rooms {
		maxID = max(maxID, r.ID)
	}
	s.nextID = max(s.nextID, maxID+1)

	s.facets = emptyFacets()
	s.mergeFacetsLocked(s.rooms)
	s.assignColorsLocked(s.rooms)
	s.rebuildLocked()
	rooms := len(s.rooms)
	s.mu.Unlock()

	s.logger.Info("Session restored", zap.Int("rooms", rooms))
	s.opts.Notifier.Refresh("session")
}
