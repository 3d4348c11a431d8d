package tags

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"wisefido-directory/internal/domain"

	"golang.org/x/text/unicode/norm"
)

// Annotations 房间的自定义标签 / staff 标签来源
type Annotations interface {
	CustomTags(roomID int) []domain.CustomTag
	StaffTags(roomID int) []string
}

var (
	splitTypeWords     = regexp.MustCompile(`[\s\-/]+`)
	splitCategoryWords = regexp.MustCompile(`[\s\-]+`)
)

// Synthesize 房间 + 当前注解 -> token 集合
// 纯函数：同一房间、同一注解状态下多次调用结果相同
func Synthesize(room domain.Room, ann Annotations) *Set {
	s := newSet()

	// building / bld_descrshort
	building := lower(room.Building)
	addBuilding(s, building)
	if short := lower(room.BldDescrShort); short != "" && short != building {
		addBuilding(s, short)
	}

	// floor
	if f := lower(room.Floor); f != "" {
		s.add(Token{Kind: KindFloor, Prefix: "floor", Value: f})
		s.add(Token{Kind: KindFloor, Value: "f" + f})
		s.add(Token{Kind: KindFloor, Prefix: "level", Value: f})
		s.add(Token{Kind: KindFloor, Value: f})
	}

	// department
	if d := lower(room.Dept); d != "" {
		s.add(Token{Kind: KindDepartment, Value: d})
		for _, w := range strings.Fields(d) {
			if utf8.RuneCountInString(w) > 2 {
				s.add(Token{Kind: KindDepartment, Value: w})
			}
		}
		s.add(Token{Kind: KindDepartment, Prefix: "department", Value: d})
	}

	// composite room type
	if t := lower(room.TypeFull); t != "" {
		s.add(Token{Kind: KindType, Value: t})
		for _, w := range splitTypeWords.Split(t, -1) {
			if utf8.RuneCountInString(w) > 2 {
				s.add(Token{Kind: KindType, Value: w})
			}
		}
		s.add(Token{Kind: KindType, Prefix: "type", Value: t})
	}

	// category tags
	for _, tag := range room.Tags {
		c := lower(tag)
		if c == "" {
			continue
		}
		s.add(Token{Kind: KindCategory, Value: c})
		for _, w := range splitCategoryWords.Split(c, -1) {
			if utf8.RuneCountInString(w) > 2 {
				s.add(Token{Kind: KindCategory, Value: w})
			}
		}
		s.add(Token{Kind: KindCategory, Prefix: "category", Value: c})
	}

	if ann != nil {
		for _, ct := range ann.CustomTags(room.ID) {
			name := lower(ct.Name)
			if name == "" {
				continue
			}
			s.add(Token{Kind: KindCustom, Value: name})
			for _, w := range strings.Fields(name) {
				if utf8.RuneCountInString(w) > 1 {
					s.add(Token{Kind: KindCustom, Value: w})
				}
			}
			s.add(Token{Kind: KindCustom, Prefix: "custom", Value: name})
			if tt := lower(ct.Type); tt != "" {
				s.add(Token{Kind: KindTagType, Prefix: "tagtype", Value: tt})
			}
			if c := lower(string(ct.Color)); c != "" {
				s.add(Token{Kind: KindColor, Prefix: "color", Value: c})
			}
		}

		for _, st := range ann.StaffTags(room.ID) {
			name := lower(domain.StaffName(st))
			if name == "" {
				continue
			}
			s.add(Token{Kind: KindStaff, Value: name})
			for _, p := range strings.Fields(name) {
				if utf8.RuneCountInString(p) > 1 {
					s.add(Token{Kind: KindStaff, Value: p})
				}
			}
			s.add(Token{Kind: KindStaff, Prefix: "staff", Value: name})
		}
	}

	// room number
	if n := lower(room.RmNbr); n != "" {
		s.add(Token{Kind: KindRoom, Value: n})
		s.add(Token{Kind: KindRoom, Prefix: "room", Value: n})
	}

	return s
}

func addBuilding(s *Set, b string) {
	if b == "" {
		return
	}
	s.add(Token{Kind: KindBuilding, Value: b})
	for _, w := range strings.Fields(b) {
		if utf8.RuneCountInString(w) > 1 {
			s.add(Token{Kind: KindBuilding, Value: w})
		}
	}
	s.add(Token{Kind: KindBuilding, Prefix: "building", Value: b})
}

func lower(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.ToLower(strings.Join(strings.Fields(norm.NFKC.String(s)), " "))
}
