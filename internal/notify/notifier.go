// Package notify 核心操作向外部（UI / 消息总线）发出的回调
package notify

import (
	"go.uber.org/zap"
)

// Notifier 进度、单项错误、刷新触发
type Notifier interface {
	Progress(done, total int, item string)
	Error(item string, err error)
	Refresh(reason string)
}

// Nop 丢弃所有事件
type Nop struct{}

func (Nop) Progress(int, int, string) {}
func (Nop) Error(string, error)       {}
func (Nop) Refresh(string)            {}

// LogNotifier 写入 zap 日志
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier 创建日志通知器
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Progress(done, total int, item string) {
	n.logger.Info("Import progress", zap.Int("done", done), zap.Int("total", total), zap.String("item", item))
}

func (n *LogNotifier) Error(item string, err error) {
	n.logger.Warn("Item failed", zap.String("item", item), zap.Error(err))
}

func (n *LogNotifier) Refresh(reason string) {
	n.logger.Debug("Refresh requested", zap.String("reason", reason))
}

// Multi 依次转发给多个通知器
type Multi []Notifier

func (m Multi) Progress(done, total int, item string) {
	for _, n := range m {
		n.Progress(done, total, item)
	}
}

func (m Multi) Error(item string, err error) {
	for _, n := range m {
		n.Error(item, err)
	}
}

func (m Multi) Refresh(reason string) {
	for _, n := range m {
		n.Refresh(reason)
	}
}
