package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TagColor 自定义标签颜色
type TagColor string

const (
	ColorBlue   TagColor = "blue"
	ColorGreen  TagColor = "green"
	ColorRed    TagColor = "red"
	ColorYellow TagColor = "yellow"
	ColorPurple TagColor = "purple"
	ColorOrange TagColor = "orange"
	ColorGray   TagColor = "gray"
)

// DefaultTagColor 未指定或非法颜色时使用
const DefaultTagColor = ColorBlue

// DefaultTagType 未指定类型时使用
const DefaultTagType = "simple"

var validColors = map[TagColor]bool{
	ColorBlue: true, ColorGreen: true, ColorRed: true, ColorYellow: true,
	ColorPurple: true, ColorOrange: true, ColorGray: true,
}

// ParseTagColor 非法值回退到 DefaultTagColor
func ParseTagColor(s string) TagColor {
	c := TagColor(strings.ToLower(strings.TrimSpace(s)))
	if validColors[c] {
		return c
	}
	return DefaultTagColor
}

// CustomTag 房间上的富标签（rich tag）
// name 在同一房间内大小写不敏感唯一；只增删，不原地修改
type CustomTag struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	Contact     string    `json:"contact"`
	ImageURL    string    `json:"imageUrl"`
	Color       TagColor  `json:"color"`
	Created     time.Time `json:"created"`
}

// NewCustomTag 补齐 id/type/color/created
func NewCustomTag(t CustomTag, now time.Time) CustomTag {
	t.Name = strings.TrimSpace(t.Name)
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if strings.TrimSpace(t.Type) == "" {
		t.Type = DefaultTagType
	}
	t.Color = ParseTagColor(string(t.Color))
	if t.Created.IsZero() {
		t.Created = now.UTC().Round(0)
	}
	return t
}

// SameName 大小写不敏感比较
func (t CustomTag) SameName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(t.Name), strings.TrimSpace(name))
}

// HasTag 判断列表中是否已有同名标签
func HasTag(list []CustomTag, name string) bool {
	for _, t := range list {
		if t.SameName(name) {
			return true
		}
	}
	return false
}
