// Package remote 通过 HTTP 拉取待导入的房间/人员表
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"time"

	"wisefido-directory/internal/ingest"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	ErrInvalidURL = errors.New("invalid remote url")
	ErrStatus     = errors.New("remote server returned an error status")
	ErrTooLarge   = errors.New("remote file exceeds size limit")
)

// Options 拉取参数
type Options struct {
	Timeout    time.Duration
	RetryCount int
	MaxBytes   int64
}

// Fetcher 远程文件下载客户端
type Fetcher struct {
	httpClient *resty.Client
	maxBytes   int64
	logger     *zap.Logger
}

// NewFetcher 创建下载客户端；5xx 和网络错误会重试
func NewFetcher(opts Options, logger *zap.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 32 << 20
	}
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("User-Agent", "wisefido-directory").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &Fetcher{httpClient: client, maxBytes: opts.MaxBytes, logger: logger}
}

// Fetch 下载单个文件；文件名取自 Content-Disposition，否则取 URL 路径最后一段
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (ingest.File, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ingest.File{}, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	f.logger.Info("Fetching remote file", zap.String("url", u.Redacted()))
	resp, err := f.httpClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(u.String())
	if err != nil {
		return ingest.File{}, fmt.Errorf("failed to fetch %s: %w", u.Redacted(), err)
	}
	raw := resp.RawBody()
	defer raw.Close()
	if resp.IsError() {
		f.logger.Warn("Remote file fetch failed",
			zap.String("url", u.Redacted()),
			zap.Int("status_code", resp.StatusCode()),
		)
		return ingest.File{}, fmt.Errorf("%w: %s (%d)", ErrStatus, u.Redacted(), resp.StatusCode())
	}

	if n := resp.RawResponse.ContentLength; n > f.maxBytes {
		return ingest.File{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, n)
	}
	// 最多读 maxBytes+1 字节，超出即中止
	body, err := io.ReadAll(io.LimitReader(raw, f.maxBytes+1))
	if err != nil {
		return ingest.File{}, fmt.Errorf("failed to read %s: %w", u.Redacted(), err)
	}
	if int64(len(body)) > f.maxBytes {
		return ingest.File{}, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}

	name := fileName(resp.Header().Get("Content-Disposition"), u)
	if !ingest.Supported(name) {
		return ingest.File{}, fmt.Errorf("%s: %w", name, ingest.ErrUnsupportedFile)
	}

	f.logger.Info("Remote file fetched",
		zap.String("file", name),
		zap.Int("bytes", len(body)),
		zap.Duration("took", resp.Time()),
	)
	return ingest.File{Name: name, Data: body}, nil
}

func fileName(disposition string, u *url.URL) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
			return path.Base(params["filename"])
		}
	}
	return path.Base(u.Path)
}
