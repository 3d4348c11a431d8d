package ingest

import (
	"strconv"
	"strings"

	"wisefido-directory/internal/domain"
)

// RejectReason 行被丢弃的原因
type RejectReason string

const (
	RejectMissingRoomNumber   RejectReason = "missing_room_number"
	RejectMissingFloor        RejectReason = "missing_floor"
	RejectMissingPerson       RejectReason = "missing_person_name"
	RejectMissingRecordNumber RejectReason = "missing_record_number"
)

// Rejection 一行数据缺陷（只做诊断，不中断批次）
type Rejection struct {
	Line   int
	Reason RejectReason
}

// 列名别名（表头已转小写、空白转下划线）
var (
	roomNumberCols   = []string{"rmnbr", "room", "room_number", "room_no"}
	floorCols        = []string{"floor", "flr", "floor_id"}
	bldShortCols     = []string{"bld_descrshort", "building_short", "bldg"}
	buildingCols     = []string{"building", "bld_descr", "building_name"}
	typeCols         = []string{"rmtyp_descrshort", "room_type", "rmtyp"}
	subtypeCols      = []string{"rmsubtyp_descrshort", "room_subtype", "rmsubtyp"}
	deptCols         = []string{"dept_descr", "department", "dept"}
	recordNumberCols = []string{"rmrecnbr", "room_record_number", "rm_rec_nbr"}
	linkCols         = []string{"link", "url"}
	personCols       = []string{"employee_name", "person_name", "name", "occupant"}
)

func pick(rec map[string]string, used map[string]bool, aliases []string) string {
	for _, a := range aliases {
		if v, ok := rec[a]; ok {
			used[a] = true
			if v != "" {
				return v
			}
		}
	}
	return ""
}

func extra(rec map[string]string, used map[string]bool) map[string]string {
	var out map[string]string
	for k, v := range rec {
		if used[k] || v == "" {
			continue
		}
		if out == nil {
			out = map[string]string{}
		}
		out[k] = v
	}
	return out
}

// DecodeRoomRows 房间表 -> RawRoomRow；缺 rmnbr / floor 的行被拒绝
// Line 沿用源表格中的行号
func DecodeRoomRows(t *Table) ([]domain.RawRoomRow, []Rejection) {
	rows := make([]domain.RawRoomRow, 0, len(t.Records))
	var rejected []Rejection
	for _, r := range t.Records {
		line, rec := r.Line, r.Fields
		used := map[string]bool{}
		row := domain.RawRoomRow{
			Line:          line,
			RmNbr:         pick(rec, used, roomNumberCols),
			Floor:         normalizeFloor(pick(rec, used, floorCols)),
			BldDescrShort: pick(rec, used, bldShortCols),
			Building:      pick(rec, used, buildingCols),
			RmTyp:         pick(rec, used, typeCols),
			RmSubTyp:      pick(rec, used, subtypeCols),
			Dept:          pick(rec, used, deptCols),
			RmRecNbr:      pick(rec, used, recordNumberCols),
			Link:          pick(rec, used, linkCols),
		}
		row.Extra = extra(rec, used)
		switch {
		case row.RmNbr == "":
			rejected = append(rejected, Rejection{Line: line, Reason: RejectMissingRoomNumber})
			continue
		case row.Floor == "":
			rejected = append(rejected, Rejection{Line: line, Reason: RejectMissingFloor})
			continue
		}
		rows = append(rows, row)
	}
	return rows, rejected
}

// DecodeOccupantRows 人员表 -> RawOccupantRow；缺人名 / rmrecnbr 的行被拒绝
func DecodeOccupantRows(t *Table) ([]domain.RawOccupantRow, []Rejection) {
	rows := make([]domain.RawOccupantRow, 0, len(t.Records))
	var rejected []Rejection
	for _, r := range t.Records {
		line, rec := r.Line, r.Fields
		used := map[string]bool{}
		row := domain.RawOccupantRow{
			Line:       line,
			PersonName: pick(rec, used, personCols),
			RmRecNbr:   pick(rec, used, recordNumberCols),
		}
		row.Extra = extra(rec, used)
		switch {
		case row.PersonName == "":
			rejected = append(rejected, Rejection{Line: line, Reason: RejectMissingPerson})
			continue
		case row.RmRecNbr == "":
			rejected = append(rejected, Rejection{Line: line, Reason: RejectMissingRecordNumber})
			continue
		}
		rows = append(rows, row)
	}
	return rows, rejected
}

// normalizeFloor "4.0" -> "4"（XLSX 数字单元格）
func normalizeFloor(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) && strings.Contains(s, ".") {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}
