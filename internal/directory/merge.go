package directory

import (
	"strings"

	"wisefido-directory/internal/domain"

	"go.uber.org/zap"
)

// MergeStats 一次合并的结果
type MergeStats struct {
	Merged    int `json:"merged"`
	Skipped   int `json:"skipped"`
	Unmatched int `json:"unmatched"`
}

// MergeRoomRows 规范化房间行并追加到数据集
// 缺少房间号或楼层的行只记录诊断日志并跳过，不会中断批次
func (s *Store) MergeRoomRows(rows []domain.RawRoomRow) MergeStats {
	s.mu.Lock()
	stats := s.mergeRoomRowsLocked(rows)
	s.mu.Unlock()

	s.opts.Notifier.Refresh("rooms")
	return stats
}

func (s *Store) mergeRoomRowsLocked(rows []domain.RawRoomRow) MergeStats {
	var stats MergeStats
	added := make([]domain.Room, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.RmNbr) == "" || strings.TrimSpace(row.Floor) == "" {
			s.logger.Debug("Skipping room row without room number or floor", zap.Int("row", row.Line))
			stats.Skipped++
			continue
		}

		typeLabel := s.norm.Normalize(row.RmTyp)
		subtypeLabel := s.norm.Normalize(row.RmSubTyp)
		typeFull := s.norm.TypeFull(row.RmTyp, row.RmSubTyp, typeLabel, subtypeLabel)
		dept := strings.TrimSpace(row.Dept)

		room := domain.Room{
			ID:            s.nextID,
			RmNbr:         strings.TrimSpace(row.RmNbr),
			Floor:         strings.TrimSpace(row.Floor),
			BldDescrShort: strings.TrimSpace(row.BldDescrShort),
			Building:      s.resolveBuilding(row),
			RmTyp:         strings.TrimSpace(row.RmTyp),
			RmSubTyp:      strings.TrimSpace(row.RmSubTyp),
			Dept:          dept,
			RmRecNbr:      strings.TrimSpace(row.RmRecNbr),
			TypeFull:      typeFull,
			Tags:          s.norm.DeriveTags(typeFull, dept),
			Extra:         row.Extra,
		}
		room.Link = s.link(row, room)
		s.nextID++

		s.rooms = append(s.rooms, room)
		added = append(added, room)
		stats.Merged++
	}

	s.mergeFacetsLocked(added)
	s.assignColorsLocked(added)
	s.currentPage = 1
	s.rebuildLocked()

	if m := s.opts.Metrics; m != nil {
		m.RowsIngested.WithLabelValues("rooms").Add(float64(stats.Merged))
	}
	s.logger.Info("Merged room rows",
		zap.Int("merged", stats.Merged),
		zap.Int("skipped", stats.Skipped),
		zap.Int("total_rooms", len(s.rooms)),
	)
	return stats
}

func (s *Store) resolveBuilding(row domain.RawRoomRow) string {
	if b := strings.TrimSpace(row.Building); b != "" {
		return b
	}
	if short := strings.TrimSpace(row.BldDescrShort); short != "" {
		return s.norm.Building(short)
	}
	return domain.UnknownBuilding
}

func (s *Store) link(row domain.RawRoomRow, room domain.Room) string {
	if l := strings.TrimSpace(row.Link); l != "" {
		return l
	}
	if s.opts.LinkTemplate == "" {
		return ""
	}
	return strings.NewReplacer(
		"{rmnbr}", room.RmNbr,
		"{rmrecnbr}", room.RmRecNbr,
		"{building}", room.Building,
	).Replace(s.opts.LinkTemplate)
}

// MergeOccupantRows 按 rmrecnbr 把人员作为 staff tag 挂到房间上
// 找不到房间的行静默忽略
func (s *Store) MergeOccupantRows(rows []domain.RawOccupantRow) MergeStats {
	s.mu.Lock()
	stats := s.mergeOccupantRowsLocked(rows)
	s.mu.Unlock()

	s.opts.Notifier.Refresh("occupants")
	return stats
}

func (s *Store) mergeOccupantRowsLocked(rows []domain.RawOccupantRow) MergeStats {
	var stats MergeStats
	byRecord := make(map[string]int, len(s.rooms))
	for _, r := range s.rooms {
		if r.RmRecNbr == "" {
			continue
		}
		if _, ok := byRecord[r.RmRecNbr]; !ok {
			byRecord[r.RmRecNbr] = r.ID
		}
	}

	for _, row := range rows {
		person := strings.TrimSpace(row.PersonName)
		rec := strings.TrimSpace(row.RmRecNbr)
		if person == "" || rec == "" {
			s.logger.Debug("Skipping occupant row without person or record number", zap.Int("row", row.Line))
			stats.Skipped++
			continue
		}
		id, ok := byRecord[rec]
		if !ok {
			stats.Unmatched++
			continue
		}
		tag := domain.StaffTag(person)
		if containsString(s.staffTags[id], tag) {
			continue
		}
		s.staffTags[id] = append(s.staffTags[id], tag)
		stats.Merged++
	}

	s.rebuildLocked()

	if m := s.opts.Metrics; m != nil {
		m.RowsIngested.WithLabelValues("occupants").Add(float64(stats.Merged))
	}
	s.logger.Info("Merged occupant rows",
		zap.Int("merged", stats.Merged),
		zap.Int("skipped", stats.Skipped),
		zap.Int("unmatched", stats.Unmatched),
	)
	return stats
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
