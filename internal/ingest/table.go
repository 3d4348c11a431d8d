// Package ingest 解析上传的表格文件（CSV / XLSX），并转换为带类型的原始行
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFile 不支持的文件扩展名
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrEmptyFile 没有数据行
	ErrEmptyFile = errors.New("file has no data rows")
)

// File 一个待导入的文件
type File struct {
	Name string
	Data []byte
}

// Kind 表格类型
type Kind int

const (
	KindUnknown Kind = iota
	KindRooms
	KindOccupants
)

func (k Kind) String() string {
	switch k {
	case KindRooms:
		return "rooms"
	case KindOccupants:
		return "occupants"
	default:
		return "unknown"
	}
}

// Record 一行数据及其在源表格中的行号（表头为第 1 行）
type Record struct {
	Line   int
	Fields map[string]string
}

// Table 解析后的表格：表头统一小写，空行已去掉
type Table struct {
	Name    string
	Headers []string
	Records []Record
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Supported 判断扩展名是否可导入
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Parse 按扩展名选择解析器
func Parse(name string, r io.Reader) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(name))
	var (
		records []Record
		err     error
	)
	switch ext {
	case ".csv":
		records, err = parseCSV(r)
	case ".xlsx", ".xlsm":
		records, err = parseXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	t := &Table{Name: name, Records: make([]Record, 0, len(records))}
	headerSet := map[string]bool{}
	for _, rec := range records {
		row := make(map[string]string, len(rec.Fields))
		empty := true
		for k, v := range rec.Fields {
			key := headerKey(k)
			if key == "" {
				continue
			}
			v = strings.TrimSpace(v)
			if v != "" {
				empty = false
			}
			row[key] = v
			headerSet[key] = true
		}
		if empty {
			continue
		}
		t.Records = append(t.Records, Record{Line: rec.Line, Fields: row})
	}
	if len(t.Records) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}
	for k := range headerSet {
		t.Headers = append(t.Headers, k)
	}
	sort.Strings(t.Headers)
	return t, nil
}

// parseCSV 行号取自 csv.Reader.FieldPos，空行和跨行的引号字段都按源文件计
func parseCSV(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	dec := gocsv.NewSimpleDecoderFromCSVReader(cr)

	header, err := dec.GetCSVRow()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	var out []Record
	for {
		cells, err := dec.GetCSVRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		out = append(out, Record{Line: line, Fields: zipRow(header, cells)})
	}
	return out, nil
}

func zipRow(header, cells []string) map[string]string {
	rec := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(cells) {
			rec[h] = cells[i]
		} else {
			rec[h] = ""
		}
	}
	return rec
}

func parseXLSX(r io.Reader) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}
	header := rows[0]
	out := make([]Record, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		// GetRows 保留中间的空行，下标即行号
		out = append(out, Record{Line: i + 2, Fields: zipRow(header, cells)})
	}
	return out, nil
}

func headerKey(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, string(utf8BOM)))
	h = strings.ToLower(h)
	return strings.Join(strings.Fields(h), "_")
}

// Has 表头是否包含任一别名
func (t *Table) Has(aliases []string) bool {
	for _, a := range aliases {
		for _, h := range t.Headers {
			if h == a {
				return true
			}
		}
	}
	return false
}

// Kind 根据表头判断是房间表还是人员表
func (t *Table) Kind() Kind {
	if t.Has(roomNumberCols) && t.Has(floorCols) {
		return KindRooms
	}
	if t.Has(personCols) && t.Has(recordNumberCols) {
		return KindOccupants
	}
	return KindUnknown
}
