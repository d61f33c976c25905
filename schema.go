package sheetstore

import (
	"fmt"
	"strings"
)

// RecordKind 区分两类固定 schema
type RecordKind int

const (
	KindAttendance RecordKind = iota + 1
	KindEmployee
)

func (k RecordKind) String() string {
	switch k {
	case KindAttendance:
		return "attendance"
	case KindEmployee:
		return "employee"
	default:
		return fmt.Sprintf("RecordKind(%d)", int(k))
	}
}

// ParseRecordKind 解析 "attendance" / "employee"（大小写不敏感）
func ParseRecordKind(s string) (RecordKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attendance", "attendances":
		return KindAttendance, nil
	case "employee", "employees":
		return KindEmployee, nil
	default:
		return 0, fmt.Errorf("未知的记录类型: %q", s)
	}
}

// Schema 某类记录的规范列顺序及建表时使用的外观
type Schema struct {
	Kind         RecordKind
	Columns      []string
	KeyField     string
	DefaultSheet string
	StyleName    string // excelize 内置表格样式
	HeaderColor  string // 表头填充色，渲染快照时同样使用
}

var AttendanceSchema = Schema{
	Kind:         KindAttendance,
	Columns:      []string{"ID", "Date", "Time", "Verify"},
	KeyField:     "ID",
	DefaultSheet: "Attendance",
	StyleName:    "TableStyleMedium2",
	HeaderColor:  "4472C4",
}

var EmployeeSchema = Schema{
	Kind: KindEmployee,
	Columns: []string{
		"ID", "Name", "IDNumber", "Department", "Sex",
		"Birthday", "Created", "Status", "Comment", "EnrollmentCount",
	},
	KeyField:     "ID",
	DefaultSheet: "Employees",
	StyleName:    "TableStyleMedium9",
	HeaderColor:  "1F4E79",
}

// SchemaFor 返回记录类型对应的 schema
func SchemaFor(kind RecordKind) (Schema, error) {
	switch kind {
	case KindAttendance:
		return AttendanceSchema, nil
	case KindEmployee:
		return EmployeeSchema, nil
	default:
		return Schema{}, fmt.Errorf("未知的记录类型: %s", kind)
	}
}

// ColumnIndex 返回列在规范顺序中的下标（大小写不敏感），不存在时返回 -1
func (s Schema) ColumnIndex(name string) int {
	name = foldName(name)
	for i, c := range s.Columns {
		if foldName(c) == name {
			return i
		}
	}
	return -1
}

// ValidationResult 表头校验结果
type ValidationResult struct {
	Conforms bool
	Missing  []string // schema 中有而表头没有的列，按规范顺序
	Extra    []string // 表头中有而 schema 没有的列，按表头顺序
}

// Err 不一致时返回 *SchemaMismatchError
func (v ValidationResult) Err(table string) error {
	if v.Conforms {
		return nil
	}
	return &SchemaMismatchError{Table: table, Missing: v.Missing, Extra: v.Extra}
}

// ValidateHeader 比较表头与 schema 的列集合。比较忽略大小写与顺序，空白表头单元格不计入
func ValidateHeader(header []string, schema Schema) ValidationResult {
	present := make(map[string]struct{}, len(header))
	var extra []string
	for _, h := range header {
		key := foldName(h)
		if key == "" {
			continue
		}
		if _, dup := present[key]; dup {
			continue
		}
		present[key] = struct{}{}
		if schema.ColumnIndex(key) < 0 {
			extra = append(extra, strings.TrimSpace(h))
		}
	}

	var missing []string
	for _, c := range schema.Columns {
		if _, ok := present[foldName(c)]; !ok {
			missing = append(missing, c)
		}
	}
	return ValidationResult{
		Conforms: len(missing) == 0 && len(extra) == 0,
		Missing:  missing,
		Extra:    extra,
	}
}

// Validate 只读取表格的表头行进行校验，不检查数据行，也不修改工作簿
func Validate(t *Table, schema Schema) (ValidationResult, error) {
	header, err := t.Header()
	if err != nil {
		return ValidationResult{}, newTableError(t.Name(), "validate", err)
	}
	return ValidateHeader(header, schema), nil
}
