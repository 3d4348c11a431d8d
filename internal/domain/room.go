package domain

import "strings"

// UnknownBuilding 无法解析楼栋名称时的显示名
const UnknownBuilding = "Unknown Building"

// Room 房间记录（原始表格字段 + 派生字段）
// ID 在整个内存数据集生命周期内唯一，合并时分配，永不复用
type Room struct {
	ID            int    `json:"id"`
	RmNbr         string `json:"rmnbr"`
	Floor         string `json:"floor"`
	BldDescrShort string `json:"bld_descrshort,omitempty"`
	Building      string `json:"building"`
	RmTyp         string `json:"rmtyp_descrshort,omitempty"`
	RmSubTyp      string `json:"rmsubtyp_descrshort,omitempty"`
	Dept          string `json:"dept_descr,omitempty"`
	RmRecNbr      string `json:"rmrecnbr,omitempty"`

	// 派生字段
	TypeFull string   `json:"typeFull"`
	Tags     []string `json:"tags"`
	Link     string   `json:"link,omitempty"`

	// 未识别的列原样保留
	Extra map[string]string `json:"extra,omitempty"`
}

// Clone 深拷贝（Tags/Extra 不共享底层存储）
func (r Room) Clone() Room {
	out := r
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// RawRoomRow 房间表格的一行（入口处已完成类型转换）
type RawRoomRow struct {
	Line          int
	RmNbr         string
	Floor         string
	BldDescrShort string
	Building      string
	RmTyp         string
	RmSubTyp      string
	Dept          string
	RmRecNbr      string
	Link          string
	Extra         map[string]string
}

// RawOccupantRow 人员表格的一行
type RawOccupantRow struct {
	Line       int
	PersonName string
	RmRecNbr   string
	Extra      map[string]string
}

// StaffPrefix staff tag 的固定前缀
const StaffPrefix = "Staff: "

// StaffTag 由人员名生成 staff tag
func StaffTag(person string) string {
	return StaffPrefix + strings.TrimSpace(person)
}

// StaffName 去掉 "Staff: " 前缀
func StaffName(tag string) string {
	return strings.TrimSpace(strings.TrimPrefix(tag, StaffPrefix))
}

// Facets 全数据集的楼栋/楼层/分类集合，只增不减（整体 session 导入除外）
type Facets struct {
	Buildings []string `json:"buildings"`
	Floors    []string `json:"floors"`
	Tags      []string `json:"tags"`
}

// Filters 结构化过滤条件
type Filters struct {
	Building string   `json:"building"`
	Floor    string   `json:"floor"`
	Tags     []string `json:"tags"`
}
