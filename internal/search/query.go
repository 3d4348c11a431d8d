package search

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"wisefido-directory/internal/domain"
)

var termSplit = regexp.MustCompile(`[\s,]+`)

// ParseTerms 按空白/逗号切分查询，转小写并丢弃空项
func ParseTerms(query string) []string {
	parts := termSplit.Split(strings.ToLower(strings.TrimSpace(query)), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// matchToken 规则 1–3：精确 > 前缀 > 子串；长度按字符计
func matchToken(term, tag string) bool {
	if tag == term {
		return true
	}
	if (utf8.RuneCountInString(term) >= 2 || startsWithDigit(term)) && strings.HasPrefix(tag, term) {
		return true
	}
	if utf8.RuneCountInString(term) >= 3 && strings.Contains(tag, term) {
		return true
	}
	return false
}

// compoundWords 规则 4：含连字符或空格的 term 拆成长度 > 1 的子词
// 没有可用子词时返回 nil（不参与匹配）
func compoundWords(term string) []string {
	if !strings.ContainsAny(term, "- ") {
		return nil
	}
	var out []string
	for _, w := range strings.FieldsFunc(term, func(r rune) bool { return r == '-' || unicode.IsSpace(r) }) {
		if utf8.RuneCountInString(w) > 1 {
			out = append(out, w)
		}
	}
	return out
}

// MatchTerm 房间的 tag 列表中是否存在满足任一规则的 tag
func MatchTerm(term string, tags []string) bool {
	for _, tag := range tags {
		if matchToken(term, tag) {
			return true
		}
	}
	words := compoundWords(term)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		found := false
		for _, tag := range tags {
			if strings.Contains(tag, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Evaluate 多 term 逻辑与；空查询返回全部房间（新切片，元素相同）
func Evaluate(query string, rooms []domain.Room, tagsOf func(domain.Room) []string) []domain.Room {
	terms := ParseTerms(query)
	if len(terms) == 0 {
		return append([]domain.Room(nil), rooms...)
	}
	out := make([]domain.Room, 0)
	for _, r := range rooms {
		tags := tagsOf(r)
		ok := true
		for _, term := range terms {
			if !MatchTerm(term, tags) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
