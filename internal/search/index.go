// Package search 在合成 token 之上建立检索索引：倒排位图、模糊排序和自动补全词表
package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"wisefido-directory/internal/domain"
	"wisefido-directory/internal/tags"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultAutocompleteLimit 自动补全词表上限
const DefaultAutocompleteLimit = 5000

const (
	roomNumberWeight = 2.0
	tagTextWeight    = 1.0
)

// Options 索引构建参数
type Options struct {
	AutocompleteLimit int
}

// Document 每个房间在索引中的条目
type Document struct {
	RoomID int
	RmNbr  string
	Tags   []string
	Text   string
}

// Hit 模糊检索结果
type Hit struct {
	RoomID int
	Score  float64
}

// Index 派生缓存，不是权威数据；任何影响 token 的变更后都要整体重建
type Index struct {
	docs       []Document
	byID       map[int]int
	postings   map[string]*roaring.Bitmap
	tokens     []string
	vocabulary []string
	all        *roaring.Bitmap
}

// Build 为全部房间建立索引；房间为空时返回 nil
func Build(rooms []domain.Room, ann tags.Annotations, opts Options) *Index {
	if len(rooms) == 0 {
		return nil
	}
	if opts.AutocompleteLimit <= 0 {
		opts.AutocompleteLimit = DefaultAutocompleteLimit
	}

	idx := &Index{
		docs:     make([]Document, 0, len(rooms)),
		byID:     make(map[int]int, len(rooms)),
		postings: map[string]*roaring.Bitmap{},
		all:      roaring.New(),
	}
	for _, r := range rooms {
		set := tags.Synthesize(r, ann)
		doc := Document{
			RoomID: r.ID,
			RmNbr:  strings.ToLower(strings.TrimSpace(r.RmNbr)),
			Tags:   set.Strings(),
			Text:   set.Text(),
		}
		idx.byID[r.ID] = len(idx.docs)
		idx.docs = append(idx.docs, doc)
		idx.all.Add(uint32(r.ID))
		for _, tok := range doc.Tags {
			bm, ok := idx.postings[tok]
			if !ok {
				bm = roaring.New()
				idx.postings[tok] = bm
			}
			bm.Add(uint32(r.ID))
		}
	}
	idx.tokens = make([]string, 0, len(idx.postings))
	for tok := range idx.postings {
		idx.tokens = append(idx.tokens, tok)
	}
	sort.Strings(idx.tokens)
	idx.vocabulary = BuildVocabulary(idx.docs, opts.AutocompleteLimit)
	return idx
}

// BuildVocabulary 自动补全词表：全部 token + 限定 token 的裸值 + 房间号
// 达到上限后停止添加，结果按字典序排序
func BuildVocabulary(docs []Document, limit int) []string {
	if limit <= 0 {
		limit = DefaultAutocompleteLimit
	}
	seen := map[string]struct{}{}
	out := []string{}
	add := func(s string) bool {
		if len(out) >= limit {
			return false
		}
		if s == "" {
			return true
		}
		if _, ok := seen[s]; ok {
			return true
		}
		seen[s] = struct{}{}
		out = append(out, s)
		return len(out) < limit
	}

build:
	for _, d := range docs {
		for _, tok := range d.Tags {
			if !add(tok) {
				break build
			}
			if _, v, ok := tags.SplitQualified(tok); ok {
				if !add(v) {
					break build
				}
			}
		}
		if !add(d.RmNbr) {
			break
		}
	}
	sort.Strings(out)
	return out
}

// Len 文档数
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.docs)
}

// Tags 房间的 token 列表
func (idx *Index) Tags(roomID int) []string {
	if idx == nil {
		return nil
	}
	if i, ok := idx.byID[roomID]; ok {
		return idx.docs[i].Tags
	}
	return nil
}

// Vocabulary 自动补全词表（已排序）
func (idx *Index) Vocabulary() []string {
	if idx == nil {
		return []string{}
	}
	return append([]string(nil), idx.vocabulary...)
}

// Autocomplete 先返回前缀匹配，再返回子串匹配
func (idx *Index) Autocomplete(prefix string, limit int) []string {
	out := []string{}
	if idx == nil {
		return out
	}
	p := strings.ToLower(strings.TrimSpace(prefix))
	if p == "" {
		return out
	}
	if limit <= 0 {
		limit = 10
	}
	seen := map[string]bool{}
	start := sort.SearchStrings(idx.vocabulary, p)
	for i := start; i < len(idx.vocabulary) && len(out) < limit; i++ {
		v := idx.vocabulary[i]
		if !strings.HasPrefix(v, p) {
			break
		}
		seen[v] = true
		out = append(out, v)
	}
	for _, v := range idx.vocabulary {
		if len(out) >= limit {
			break
		}
		if !seen[v] && strings.Contains(v, p) {
			out = append(out, v)
		}
	}
	return out
}

// Match 用倒排位图执行与 Evaluate 相同的匹配规则
func (idx *Index) Match(query string) *roaring.Bitmap {
	if idx == nil {
		return roaring.New()
	}
	terms := ParseTerms(query)
	result := idx.all.Clone()
	for _, term := range terms {
		result.And(idx.matchTerm(term))
		if result.IsEmpty() {
			break
		}
	}
	return result
}

func (idx *Index) matchTerm(term string) *roaring.Bitmap {
	hits := roaring.New()
	for _, tok := range idx.tokens {
		if matchToken(term, tok) {
			hits.Or(idx.postings[tok])
		}
	}
	words := compoundWords(term)
	if len(words) == 0 {
		return hits
	}
	var compound *roaring.Bitmap
	for _, w := range words {
		withWord := roaring.New()
		for _, tok := range idx.tokens {
			if strings.Contains(tok, w) {
				withWord.Or(idx.postings[tok])
			}
		}
		if compound == nil {
			compound = withWord
		} else {
			compound.And(withWord)
		}
	}
	hits.Or(compound)
	return hits
}

// Fuzzy 模糊排序：房间号权重高于 tag 文本；容忍编辑距离且与位置无关
func (idx *Index) Fuzzy(query string, limit int) []Hit {
	q := strings.ToLower(strings.TrimSpace(query))
	if idx == nil || len(q) < 1 {
		return nil
	}
	hits := make([]Hit, 0)
	for _, d := range idx.docs {
		room := fieldScore(q, d.RmNbr)
		best := 0.0
		for _, tok := range d.Tags {
			if s := fieldScore(q, tok); s > best {
				best = s
				if best == 1 {
					break
				}
			}
		}
		score := (roomNumberWeight*room + tagTextWeight*best) / (roomNumberWeight + tagTextWeight)
		if score > 0 {
			hits = append(hits, Hit{RoomID: d.RoomID, Score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].RoomID < hits[j].RoomID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// fieldScore 0..1；子串命中为 1，子序列或小编辑距离按距离打折
func fieldScore(q, field string) float64 {
	if field == "" {
		return 0
	}
	if strings.Contains(field, q) {
		return 1
	}
	qn := utf8.RuneCountInString(q)
	longest := max(qn, utf8.RuneCountInString(field))
	if d := fuzzy.RankMatchFold(q, field); d >= 0 {
		return 1 - float64(d)/float64(longest+1)
	}
	d := fuzzy.LevenshteinDistance(q, field)
	if d <= maxEdits(qn) {
		return 1 - float64(d)/float64(longest+1)
	}
	return 0
}

func maxEdits(n int) int {
	switch {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}
