package notify

import "sync"

// ColorAssigner 为新出现的楼栋分配显示颜色（由嵌入方提供）
type ColorAssigner interface {
	Assign(building string, existing map[string]string) string
}

// DefaultPalette 默认楼栋颜色
var DefaultPalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// PaletteAssigner 按已分配数量轮转调色板
type PaletteAssigner struct {
	mu      sync.Mutex
	Palette []string
}

func (p *PaletteAssigner) Assign(building string, existing map[string]string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	palette := p.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	if c, ok := existing[building]; ok {
		return c
	}
	return palette[len(existing)%len(palette)]
}
