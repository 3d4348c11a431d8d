package directory

import (
	"bytes"
	"context"
	"fmt"

	"wisefido-directory/internal/ingest"

	"go.uber.org/zap"
)

// FileStatus 单个文件的处理结果
type FileStatus string

const (
	FileProcessed FileStatus = "processed"
	FileError     FileStatus = "error"
)

// FileOutcome 单个文件的结果；批次中一个文件失败不影响其它文件
type FileOutcome struct {
	Name      string     `json:"name"`
	Kind      string     `json:"kind"`
	Status    FileStatus `json:"status"`
	Merged    int        `json:"merged"`
	Rejected  int        `json:"rejected"`
	Unmatched int        `json:"unmatched"`
	Message   string     `json:"message,omitempty"`
	Err       error      `json:"-"`
}

// Summary 批次汇总（processed: 4, error: 1）
type Summary struct {
	Processed int `json:"processed"`
	Failed    int `json:"error"`
}

// Summarize 统计批次结果
func Summarize(outcomes []FileOutcome) Summary {
	var sum Summary
	for _, o := range outcomes {
		if o.Status == FileProcessed {
			sum.Processed++
		} else {
			sum.Failed++
		}
	}
	return sum
}

// ImportFiles 按给定顺序逐个处理文件
func (s *Store) ImportFiles(ctx context.Context, files []ingest.File) []FileOutcome {
	outcomes := make([]FileOutcome, 0, len(files))
	for i, f := range files {
		var out FileOutcome
		if err := ctx.Err(); err != nil {
			out = FileOutcome{Name: f.Name, Status: FileError, Err: err, Message: err.Error()}
		} else {
			out = s.importFile(f)
		}
		outcomes = append(outcomes, out)

		if m := s.opts.Metrics; m != nil {
			m.Files.WithLabelValues(string(out.Status)).Inc()
		}
		if out.Err != nil {
			s.logger.Warn("File import failed", zap.String("file", f.Name), zap.Error(out.Err))
			s.opts.Notifier.Error(f.Name, out.Err)
		}
		s.opts.Notifier.Progress(i+1, len(files), f.Name)
	}
	return outcomes
}

func (s *Store) importFile(f ingest.File) FileOutcome {
	out := FileOutcome{Name: f.Name}
	fail := func(err error) FileOutcome {
		out.Status = FileError
		out.Err = err
		out.Message = err.Error()
		return out
	}

	table, err := ingest.Parse(f.Name, bytes.NewReader(f.Data))
	if err != nil {
		return fail(err)
	}
	kind := table.Kind()
	out.Kind = kind.String()

	switch kind {
	case ingest.KindRooms:
		rows, rejected := ingest.DecodeRoomRows(table)
		s.logRejections(f.Name, rejected)
		stats := s.MergeRoomRows(rows)
		out.Merged = stats.Merged
		out.Rejected = len(rejected) + stats.Skipped
	case ingest.KindOccupants:
		rows, rejected := ingest.DecodeOccupantRows(table)
		s.logRejections(f.Name, rejected)
		stats := s.MergeOccupantRows(rows)
		out.Merged = stats.Merged
		out.Rejected = len(rejected) + stats.Skipped
		out.Unmatched = stats.Unmatched
	default:
		return fail(fmt.Errorf("%s: %w", f.Name, ErrUnknownLayout))
	}
	out.Status = FileProcessed
	return out
}

func (s *Store) logRejections(file string, rejected []ingest.Rejection) {
	for _, r := range rejected {
		s.logger.Debug("Row rejected", zap.String("file", file), zap.Int("row", r.Line), zap.String("reason", string(r.Reason)))
		if m := s.opts.Metrics; m != nil {
			m.RowsRejected.WithLabelValues(string(r.Reason)).Inc()
		}
	}
}
