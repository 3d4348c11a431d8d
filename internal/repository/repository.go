// Package repository 导出后的 session 存储（Redis / PostgreSQL / 内存）
package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidName     = errors.New("invalid session name")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// SessionInfo 已保存 session 的元数据
type SessionInfo struct {
	Name      string    `json:"name"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionRepo 按名称保存 session blob（ExportSession 的输出）
type SessionRepo interface {
	Save(ctx context.Context, name, blob string) error
	Load(ctx context.Context, name string) (string, error)
	List(ctx context.Context) ([]SessionInfo, error)
	Delete(ctx context.Context, name string) error
}

// ValidateName 名称只允许字母数字和 . _ -
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
