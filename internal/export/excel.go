// Package export 把房间数据写成 Excel 文件
package export

import (
	"bytes"
	"fmt"
	"strings"

	"wisefido-directory/internal/domain"
	"wisefido-directory/internal/tags"

	"github.com/xuri/excelize/v2"
)

// SheetName 导出工作表名称
const SheetName = "Rooms"

// RoomExportHeader 导出表头
var RoomExportHeader = []string{
	"Room",
	"Floor",
	"Building",
	"Type",
	"Department",
	"Categories",
	"Custom Tags",
	"Staff",
	"Record Number",
	"Link",
}

// RoomImportHeader 导入模板表头（与 ingest 识别的列名一致）
var RoomImportHeader = []string{
	"rmnbr",
	"floor",
	"bld_descrshort",
	"building",
	"rmtyp_descrshort",
	"rmsubtyp_descrshort",
	"dept_descr",
	"rmrecnbr",
}

var columnWidths = []float64{12, 8, 24, 32, 28, 30, 30, 30, 16, 40}

// GenerateRoomImportTemplate 只含表头的导入模板
func GenerateRoomImportTemplate() ([]byte, error) {
	return generateExcel(RoomImportHeader, nil)
}

// GenerateRoomExport 导出房间；ann 为 nil 时自定义标签和 staff 列留空
func GenerateRoomExport(rooms []domain.Room, ann tags.Annotations) ([]byte, error) {
	rows := make([][]string, 0, len(rooms))
	for _, r := range rooms {
		var custom, staff []string
		if ann != nil {
			for _, t := range ann.CustomTags(r.ID) {
				custom = append(custom, t.Name)
			}
			for _, s := range ann.StaffTags(r.ID) {
				staff = append(staff, domain.StaffName(s))
			}
		}
		rows = append(rows, []string{
			r.RmNbr,
			r.Floor,
			r.Building,
			r.TypeFull,
			r.Dept,
			strings.Join(r.Tags, ", "),
			strings.Join(custom, ", "),
			strings.Join(staff, ", "),
			r.RmRecNbr,
			r.Link,
		})
	}
	return generateExcel(RoomExportHeader, rows)
}

func generateExcel(headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo 之前文件必须保持打开，每个错误分支单独 Close

	index, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	// 删除默认的 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, _ := excelize.ColumnNumberToName(col + 1)
		if col < len(columnWidths) {
			if err := f.SetColWidth(SheetName, name, name, columnWidths[col]); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for i, row := range rows {
		for j, value := range row {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			// 房间号/楼层保持文本，避免 "0101" 变成 101
			if err := f.SetCellStr(SheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	// 冻结表头
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}
	if len(rows) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(headers), len(rows)+1)
		if err := f.AutoFilter(SheetName, "A1:"+last, nil); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set auto filter: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}
