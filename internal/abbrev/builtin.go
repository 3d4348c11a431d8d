package abbrev

import "regexp"

// builtinAbbreviations 内置的房间类型缩写 -> 显示名
var builtinAbbreviations = map[string]string{
	"ANTE":    "Anteroom",
	"BRK":     "Break Room",
	"CLASS":   "Classroom",
	"CLEAN":   "Clean Utility",
	"CMP":     "Computer Room",
	"CONF":    "Conference Room",
	"CONS":    "Consultation Room",
	"CORR":    "Corridor",
	"CT":      "CT Scanner",
	"ELEC":    "Electrical",
	"ELEV":    "Elevator",
	"EMERG":   "Emergency",
	"EXAM":    "Exam Room",
	"ICU":     "Intensive Care",
	"IMAG":    "Imaging",
	"ISO":     "Isolation Room",
	"JAN":     "Janitor Closet",
	"LAB":     "Laboratory",
	"LIB":     "Library",
	"LNG":     "Lounge",
	"LOCK":    "Locker Room",
	"MECH":    "Mechanical",
	"MED":     "Medication Room",
	"MRI":     "MRI",
	"NSTA":    "Nurse Station",
	"OFF":     "Office",
	"OR":      "Operating Room",
	"PHARM":   "Pharmacy",
	"PROC":    "Procedure Room",
	"PTRM":    "Patient Room",
	"RAD":     "Radiology",
	"REC":     "Recovery",
	"RECP":    "Reception",
	"RES":     "Research",
	"SHOP":    "Shop",
	"SHWR":    "Shower",
	"SOIL":    "Soiled Utility",
	"STAIR":   "Stairway",
	"STOR":    "Storage",
	"SUPPLY":  "Supply",
	"SVC":     "Service",
	"TELCOM":  "Telecommunications",
	"TLT":     "Toilet",
	"TRTMT":   "Treatment Room",
	"US":      "Ultrasound",
	"WAIT":    "Waiting Room",
	"XRAY":    "X-Ray",
	"GEN":     "General",
	"PUB":     "Public",
	"PRIV":    "Private",
	"SEMI":    "Semi-Private",
}

// builtinTypeOverrides "type subtype" 组合的显式显示名
var builtinTypeOverrides = map[string]string{
	"OFF SVC":  "Office Support",
	"LAB SVC":  "Laboratory Support",
	"PTRM ISO": "Isolation Patient Room",
	"TLT PUB":  "Public Restroom",
	"STOR GEN": "General Storage",
}

// Rule 分类规则：pattern 命中 type 或 department 任一字段即产生 Tag
type Rule struct {
	Pattern *regexp.Regexp
	Tag     string
}

func rule(expr, tag string) Rule {
	return Rule{Pattern: regexp.MustCompile(`(?i)` + expr), Tag: tag}
}

// DefaultRules 内置分类规则（有序，但结果只是集合并集）
var DefaultRules = []Rule{
	rule(`patient|\bbed|isolation|anteroom|intensive care|recovery|nurs`, "Patient Care"),
	rule(`exam|treatment|procedure|consult`, "Clinical"),
	rule(`operating|surg`, "Surgical"),
	rule(`imaging|radiology|\bmri\b|\bct\b|x-ray|ultrasound`, "Imaging"),
	rule(`\blab`, "Laboratory"),
	rule(`pharm|medication`, "Pharmacy"),
	rule(`office|reception|admin`, "Administrative"),
	rule(`conference|classroom|library|seminar`, "Meeting & Education"),
	rule(`storage|supply|utility`, "Storage & Utility"),
	rule(`toilet|restroom|shower|locker`, "Restroom"),
	rule(`mechanical|electrical|telecom|elevator|stair|corridor|janitor`, "Infrastructure"),
	rule(`lounge|break room|waiting`, "Lounge & Waiting"),
	rule(`research`, "Research"),
	rule(`emergency`, "Emergency"),
}
