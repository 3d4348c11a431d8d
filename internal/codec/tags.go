package codec

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"wisefido-directory/internal/domain"
)

// RoomReference 用于重新加载后把标签关联回房间
type RoomReference struct {
	RmNbr    string `json:"rmnbr"`
	TypeFull string `json:"typeFull"`
	RmRecNbr string `json:"rmrecnbr"`
	Building string `json:"building"`
}

// TagDocument 自定义标签导出文档
// CustomTags 的元素可以是字符串或富标签对象，保留原始 JSON 以便逐项归一化
type TagDocument struct {
	Version       string                       `json:"version"`
	Timestamp     string                       `json:"timestamp"`
	CustomTags    map[string][]json.RawMessage `json:"customTags"`
	RoomReference map[string]RoomReference     `json:"roomReference"`
}

// EncodeTags 导出所有属于已加载房间的自定义标签
func EncodeTags(custom map[int][]domain.CustomTag, rooms []domain.Room, now time.Time) ([]byte, error) {
	total := 0
	for _, list := range custom {
		total += len(list)
	}
	if total == 0 {
		return nil, ErrNothingToExport
	}

	byID := make(map[int]domain.Room, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
	}

	doc := TagDocument{
		Version:       Version,
		Timestamp:     now.UTC().Format(time.RFC3339),
		CustomTags:    map[string][]json.RawMessage{},
		RoomReference: map[string]RoomReference{},
	}
	for id, list := range custom {
		r, ok := byID[id]
		if !ok || len(list) == 0 {
			continue
		}
		key := strconv.Itoa(id)
		entries := make([]json.RawMessage, 0, len(list))
		for _, t := range list {
			b, err := json.Marshal(t)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tag %q: %w", t.Name, err)
			}
			entries = append(entries, b)
		}
		doc.CustomTags[key] = entries
		doc.RoomReference[key] = RoomReference{
			RmNbr:    r.RmNbr,
			TypeFull: r.TypeFull,
			RmRecNbr: r.RmRecNbr,
			Building: r.Building,
		}
	}
	if len(doc.CustomTags) == 0 {
		return nil, ErrNoLoadedRooms
	}
	return json.MarshalIndent(doc, "", "  ")
}

// DecodeTags 解析标签文档；缺少 customTags 字段时返回 ErrMissingCustomTags
func DecodeTags(data []byte) (*TagDocument, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	raw, ok := fields["customTags"]
	if !ok || string(raw) == "null" {
		return nil, ErrMissingCustomTags
	}
	var doc TagDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &doc, nil
}

// ResolveRoom 按 rmrecnbr -> 原始 id -> (房间号 + 楼栋) -> 仅房间号 的顺序定位房间
func ResolveRoom(key string, ref *RoomReference, rooms []domain.Room) (domain.Room, bool) {
	if ref != nil && ref.RmRecNbr != "" {
		for _, r := range rooms {
			if r.RmRecNbr == ref.RmRecNbr {
				return r, true
			}
		}
	}
	if id, err := strconv.Atoi(strings.TrimSpace(key)); err == nil {
		for _, r := range rooms {
			if r.ID == id {
				return r, true
			}
		}
	}
	if ref != nil && ref.RmNbr != "" {
		if ref.Building != "" {
			for _, r := range rooms {
				if r.RmNbr == ref.RmNbr && r.Building == ref.Building {
					return r, true
				}
			}
		}
		for _, r := range rooms {
			if r.RmNbr == ref.RmNbr {
				return r, true
			}
		}
	}
	return domain.Room{}, false
}

// NormalizeTagEntry 字符串或对象 -> 富标签；无名称时返回 false
func NormalizeTagEntry(raw json.RawMessage, now time.Time) (domain.CustomTag, bool) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		if strings.TrimSpace(name) == "" {
			return domain.CustomTag{}, false
		}
		return domain.NewCustomTag(domain.CustomTag{Name: name}, now), true
	}
	var t domain.CustomTag
	if err := json.Unmarshal(raw, &t); err != nil {
		return domain.CustomTag{}, false
	}
	if strings.TrimSpace(t.Name) == "" {
		return domain.CustomTag{}, false
	}
	return domain.NewCustomTag(t, now), true
}

// Assignment 一个已解析房间及其待导入标签
type Assignment struct {
	RoomID int
	Tags   []domain.CustomTag
}

// PlanTagImport 解析文档中每个房间条目；无法定位的条目计入 skipped
func PlanTagImport(doc *TagDocument, rooms []domain.Room, now time.Time) ([]Assignment, int) {
	keys := make([]string, 0, len(doc.CustomTags))
	for k := range doc.CustomTags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		plan    []Assignment
		skipped int
	)
	for _, key := range keys {
		var ref *RoomReference
		if r, ok := doc.RoomReference[key]; ok {
			ref = &r
		}
		room, ok := ResolveRoom(key, ref, rooms)
		if !ok {
			skipped++
			continue
		}
		a := Assignment{RoomID: room.ID}
		for _, raw := range doc.CustomTags[key] {
			if t, ok := NormalizeTagEntry(raw, now); ok {
				a.Tags = append(a.Tags, t)
			}
		}
		plan = append(plan, a)
	}
	return plan, skipped
}
