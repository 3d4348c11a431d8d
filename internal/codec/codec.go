// Package codec 自定义标签与整个 session 的导入导出格式
package codec

import "errors"

const (
	// Version 文档版本
	Version = "1.0"
	// SessionType session 文档的类型标记
	SessionType = "um_session"
)

var (
	// ErrNothingToExport 没有可导出的内容
	ErrNothingToExport = errors.New("nothing to export")
	// ErrNoLoadedRooms 存储的标签都不属于当前已加载的房间
	ErrNoLoadedRooms = errors.New("no custom tags reference loaded rooms")
	// ErrMissingCustomTags 标签文档缺少 customTags 字段
	ErrMissingCustomTags = errors.New("document has no customTags field")
	// ErrSessionType session 类型标记不匹配
	ErrSessionType = errors.New("not a session document")
	// ErrDecode 编解码失败
	ErrDecode = errors.New("failed to decode document")
)
