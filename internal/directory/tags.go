package directory

import (
	"fmt"
	"strings"

	"wisefido-directory/internal/domain"

	"go.uber.org/zap"
)

// AddCustomTag 给房间添加富标签；同一房间内名称不区分大小写唯一
func (s *Store) AddCustomTag(roomID int, tag domain.CustomTag) (domain.CustomTag, error) {
	if strings.TrimSpace(tag.Name) == "" {
		return domain.CustomTag{}, ErrInvalidTag
	}

	s.mu.Lock()
	if s.indexOfLocked(roomID) < 0 {
		s.mu.Unlock()
		return domain.CustomTag{}, fmt.Errorf("room %d: %w", roomID, ErrRoomNotFound)
	}
	if domain.HasTag(s.customTags[roomID], tag.Name) {
		s.mu.Unlock()
		return domain.CustomTag{}, fmt.Errorf("%q on room %d: %w", strings.TrimSpace(tag.Name), roomID, ErrDuplicateTag)
	}
	t := domain.NewCustomTag(tag, s.opts.Now())
	s.customTags[roomID] = append(s.customTags[roomID], t)
	s.rebuildLocked()
	s.mu.Unlock()

	s.logger.Info("Custom tag added", zap.Int("room_id", roomID), zap.String("tag", t.Name))
	s.opts.Notifier.Refresh("tags")
	return t, nil
}

// RemoveCustomTag 按名称（不区分大小写）删除富标签
func (s *Store) RemoveCustomTag(roomID int, name string) error {
	s.mu.Lock()
	list := s.customTags[roomID]
	pos := -1
	for i, t := range list {
		if t.SameName(name) {
			pos = i
			break
		}
	}
	if pos < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%q on room %d: %w", name, roomID, ErrTagNotFound)
	}
	list = append(list[:pos:pos], list[pos+1:]...)
	if len(list) == 0 {
		delete(s.customTags, roomID)
	} else {
		s.customTags[roomID] = list
	}
	s.rebuildLocked()
	s.mu.Unlock()

	s.logger.Info("Custom tag removed", zap.Int("room_id", roomID), zap.String("tag", name))
	s.opts.Notifier.Refresh("tags")
	return nil
}

// CustomTags 房间的富标签副本
func (s *Store) CustomTags(roomID int) []domain.CustomTag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CustomTag{}, s.customTags[roomID]...)
}

// StaffTags 房间的 staff 标签副本
func (s *Store) StaffTags(roomID int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.staffTags[roomID]...)
}
