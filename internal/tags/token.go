// Package tags 为每个房间合成统一的小写 token 集合，供检索和自动补全使用。
//
// Token 在内部按 Kind 区分；只有在建索引时才序列化成 "prefix:value" 或裸值的字符串形式。
package tags

import "strings"

// Kind token 来源
type Kind int

const (
	KindBuilding Kind = iota + 1
	KindFloor
	KindDepartment
	KindType
	KindCategory
	KindCustom
	KindTagType
	KindColor
	KindStaff
	KindRoom
)

var kindNames = map[Kind]string{
	KindBuilding:   "building",
	KindFloor:      "floor",
	KindDepartment: "department",
	KindType:       "type",
	KindCategory:   "category",
	KindCustom:     "custom",
	KindTagType:    "tagtype",
	KindColor:      "color",
	KindStaff:      "staff",
	KindRoom:       "room",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Token 一个可检索的 facet 值
// Prefix 为空时序列化为裸值
type Token struct {
	Kind   Kind
	Prefix string
	Value  string
}

// String 扁平字符串形式
func (t Token) String() string {
	if t.Prefix == "" {
		return t.Value
	}
	return t.Prefix + ":" + t.Value
}

// SplitQualified "prefix:value" -> (prefix, value, true)
func SplitQualified(s string) (string, string, bool) {
	i := strings.Index(s, ":")
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// Set 按插入顺序去重的 token 集合
type Set struct {
	tokens []Token
	seen   map[string]struct{}
}

func newSet() *Set {
	return &Set{seen: map[string]struct{}{}}
}

func (s *Set) add(t Token) {
	if t.Value == "" {
		return
	}
	key := t.String()
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.tokens = append(s.tokens, t)
}

// Tokens 返回带 Kind 的 token
func (s *Set) Tokens() []Token {
	return append([]Token(nil), s.tokens...)
}

// Strings 扁平字符串（顺序稳定）
func (s *Set) Strings() []string {
	out := make([]string, len(s.tokens))
	for i, t := range s.tokens {
		out[i] = t.String()
	}
	return out
}

// Contains 是否包含扁平字符串
func (s *Set) Contains(v string) bool {
	_, ok := s.seen[v]
	return ok
}

// Len token 数量
func (s *Set) Len() int { return len(s.tokens) }

// Text 空格拼接，作为模糊检索的文本字段
func (s *Set) Text() string {
	return strings.Join(s.Strings(), " ")
}
