// Package abbrev 把表格里的缩写编码映射为显示名，并按规则派生分类标签
package abbrev

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Overrides 用户提供的映射（YAML）
type Overrides struct {
	Abbreviations map[string]string `yaml:"abbreviations"`
	Types         map[string]string `yaml:"types"`
	Buildings     map[string]string `yaml:"buildings"`
}

// Normalizer 缩写映射 + 分类规则 + 未映射编码计数
type Normalizer struct {
	mu sync.Mutex

	overrides     map[string]string
	builtin       map[string]string
	typeOverrides map[string]string
	buildings     map[string]string
	rules         []Rule

	unmapped map[string]int
}

// New 使用内置映射和 DefaultRules
func New() *Normalizer {
	n := &Normalizer{
		overrides:     map[string]string{},
		builtin:       builtinAbbreviations,
		typeOverrides: map[string]string{},
		buildings:     map[string]string{},
		rules:         DefaultRules,
		unmapped:      map[string]int{},
	}
	for k, v := range builtinTypeOverrides {
		n.typeOverrides[k] = v
	}
	return n
}

// WithRules 替换分类规则
func (n *Normalizer) WithRules(rules []Rule) *Normalizer {
	n.rules = rules
	return n
}

// SetOverrides 合并用户映射（后写覆盖先写）
func (n *Normalizer) SetOverrides(o Overrides) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for k, v := range o.Abbreviations {
		n.overrides[clean(k)] = clean(v)
	}
	for k, v := range o.Types {
		n.typeOverrides[clean(k)] = clean(v)
	}
	for k, v := range o.Buildings {
		n.buildings[clean(k)] = clean(v)
	}
}

// LoadOverrides 从 YAML 读取用户映射
func (n *Normalizer) LoadOverrides(r io.Reader) error {
	var o Overrides
	if err := yaml.NewDecoder(r).Decode(&o); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode overrides: %w", err)
	}
	n.SetOverrides(o)
	return nil
}

// Normalize 编码 -> 显示名
// 顺序：用户映射 -> 内置映射 -> 原样返回并计数；空白输入返回 "" 且不计数
func (n *Normalizer) Normalize(code string) string {
	c := clean(code)
	if c == "" {
		return ""
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if v, ok := n.overrides[c]; ok {
		return v
	}
	if v, ok := n.builtin[c]; ok {
		return v
	}
	if v, ok := n.builtin[strings.ToUpper(c)]; ok {
		return v
	}
	n.unmapped[c]++
	return c
}

// TypeFull 组合 type/subtype 显示名
// 显式覆盖（先按原始编码对，再按显示名对）> 相同只取 type > "type - subtype"
func (n *Normalizer) TypeFull(typeCode, subtypeCode, typeLabel, subtypeLabel string) string {
	n.mu.Lock()
	rawKey := clean(typeCode + " " + subtypeCode)
	labelKey := clean(typeLabel + " " + subtypeLabel)
	if v, ok := n.typeOverrides[rawKey]; ok && rawKey != "" {
		n.mu.Unlock()
		return v
	}
	if v, ok := n.typeOverrides[labelKey]; ok && labelKey != "" {
		n.mu.Unlock()
		return v
	}
	n.mu.Unlock()

	switch {
	case typeLabel == "":
		return subtypeLabel
	case subtypeLabel == "", typeLabel == subtypeLabel:
		return typeLabel
	default:
		return typeLabel + " - " + subtypeLabel
	}
}

// Building 楼栋简称 -> 显示名；没有映射时返回简称本身
func (n *Normalizer) Building(short string) string {
	c := clean(short)
	n.mu.Lock()
	defer n.mu.Unlock()
	if v, ok := n.buildings[c]; ok {
		return v
	}
	return c
}

// DeriveTags 规则命中 typeLabel 或 departmentLabel 即产生对应 tag（去重）
func (n *Normalizer) DeriveTags(typeLabel, departmentLabel string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, r := range n.rules {
		if seen[r.Tag] {
			continue
		}
		if (typeLabel != "" && r.Pattern.MatchString(typeLabel)) ||
			(departmentLabel != "" && r.Pattern.MatchString(departmentLabel)) {
			seen[r.Tag] = true
			out = append(out, r.Tag)
		}
	}
	return out
}

// Unmapped 返回未映射编码计数的副本
func (n *Normalizer) Unmapped() map[string]int {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[string]int, len(n.unmapped))
	for k, v := range n.unmapped {
		out[k] = v
	}
	return out
}

// UnmappedCount 未映射编码及出现次数
type UnmappedCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// UnmappedCodes 按出现次数降序、编码升序
func (n *Normalizer) UnmappedCodes() []UnmappedCount {
	counts := n.Unmapped()
	out := make([]UnmappedCount, 0, len(counts))
	for code, c := range counts {
		out = append(out, UnmappedCount{Code: code, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// ResetUnmapped 清空计数
func (n *Normalizer) ResetUnmapped() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unmapped = map[string]int{}
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}
