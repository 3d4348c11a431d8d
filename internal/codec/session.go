package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"wisefido-directory/internal/domain"

	"github.com/klauspost/compress/gzip"
)

// SessionData 一次完整的数据集 + 视图状态快照
type SessionData struct {
	ProcessedData   []domain.Room              `json:"processedData"`
	CustomTags      map[int][]domain.CustomTag `json:"customTags"`
	StaffTags       map[int][]string           `json:"staffTags"`
	BuildingColors  map[string]string          `json:"buildingColors"`
	ActiveFilters   domain.Filters             `json:"activeFilters"`
	SearchQuery     string                     `json:"searchQuery"`
	CurrentViewMode string                     `json:"currentViewMode"`
	ResultsPerPage  int                        `json:"resultsPerPage"`
}

// SessionDocument session 外层文档
type SessionDocument struct {
	Version   string      `json:"version"`
	Timestamp string      `json:"timestamp"`
	Type      string      `json:"type"`
	Data      SessionData `json:"data"`
}

// EncodeSession JSON -> gzip -> base64
// 数据集和自定义标签都为空时返回 ErrNothingToExport
func EncodeSession(data SessionData, now time.Time) (string, error) {
	hasTags := false
	for _, list := range data.CustomTags {
		if len(list) > 0 {
			hasTags = true
			break
		}
	}
	if len(data.ProcessedData) == 0 && !hasTags {
		return "", ErrNothingToExport
	}

	doc := SessionDocument{
		Version:   Version,
		Timestamp: now.UTC().Format(time.RFC3339),
		Type:      SessionType,
		Data:      data,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("failed to compress session: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to compress session: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeSession EncodeSession 的逆过程；类型标记不符时返回 ErrSessionType
func DecodeSession(blob string) (*SessionDocument, error) {
	compressed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var doc SessionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if doc.Type != SessionType {
		return nil, fmt.Errorf("%w: type %q", ErrSessionType, doc.Type)
	}
	return &doc, nil
}
