package sheetstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05"
	timestampLayout = "2006-01-02 15:04:05"
)

// Record 一条可写入表格的记录。
// Row 按 schema 的规范列顺序返回单元格值，nil 表示该字段不存在，更新时保留原值。
type Record interface {
	Kind() RecordKind
	Key() string
	Row() []any
}

// AttendanceRecord 一条打卡记录
type AttendanceRecord struct {
	ID     string
	Punch  time.Time
	Verify string
}

func (r AttendanceRecord) Kind() RecordKind { return KindAttendance }
func (r AttendanceRecord) Key() string      { return strings.TrimSpace(r.ID) }

func (r AttendanceRecord) Row() []any {
	return []any{
		optString(r.ID),
		optTime(r.Punch, dateLayout),
		optTime(r.Punch, timeLayout),
		optString(r.Verify),
	}
}

// EmployeeRecord 一条员工档案
type EmployeeRecord struct {
	ID              string
	Name            string
	IDNumber        string
	Department      string
	Sex             string
	Birthday        time.Time
	Created         time.Time
	Status          string
	Comment         string
	EnrollmentCount int
}

func (r EmployeeRecord) Kind() RecordKind { return KindEmployee }
func (r EmployeeRecord) Key() string      { return strings.TrimSpace(r.ID) }

func (r EmployeeRecord) Row() []any {
	return []any{
		optString(r.ID),
		optString(r.Name),
		optString(r.IDNumber),
		optString(r.Department),
		optString(r.Sex),
		optTime(r.Birthday, dateLayout),
		optTime(r.Created, timestampLayout),
		optString(r.Status),
		optString(r.Comment),
		r.EnrollmentCount,
	}
}

// FieldRecord 以列名为键的弱类型记录，用于部分更新与外部文件导入
type FieldRecord struct {
	RecordKind RecordKind
	Fields     map[string]string
}

func (r FieldRecord) Kind() RecordKind { return r.RecordKind }

func (r FieldRecord) Key() string {
	schema, err := SchemaFor(r.RecordKind)
	if err != nil {
		return ""
	}
	v, _ := r.lookup(schema.KeyField)
	return strings.TrimSpace(v)
}

func (r FieldRecord) Row() []any {
	schema, err := SchemaFor(r.RecordKind)
	if err != nil {
		return nil
	}
	row := make([]any, len(schema.Columns))
	for i, col := range schema.Columns {
		if v, ok := r.lookup(col); ok {
			row[i] = optString(v)
		}
	}
	return row
}

func (r FieldRecord) lookup(column string) (string, bool) {
	if v, ok := r.Fields[column]; ok {
		return v, true
	}
	want := foldName(column)
	for k, v := range r.Fields {
		if foldName(k) == want {
			return v, true
		}
	}
	return "", false
}

func optString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.TrimSpace(s)
}

func optTime(t time.Time, layout string) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(layout)
}

var (
	dateLayouts = []string{dateLayout, "2006/01/02", "2006/1/2", "2006-1-2", "01/02/2006"}
	timeLayouts = []string{timeLayout, "15:04", "3:04:05 PM", "3:04 PM"}
)

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析日期: %q", s)
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(timestampLayout, s, time.Local); err == nil {
		return t, nil
	}
	if i := strings.IndexByte(s, ' '); i > 0 {
		return combineDateTime(s[:i], s[i+1:])
	}
	return parseDate(s)
}

func combineDateTime(date, clock string) (time.Time, error) {
	d, err := parseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return d, nil
	}
	for _, layout := range timeLayouts {
		if c, err := time.ParseInLocation(layout, clock, time.Local); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, time.Local), nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析时间: %q", clock)
}

// recordFromFields 按记录类型把 "列名 -> 值" 转为强类型记录，列名大小写不敏感
func recordFromFields(kind RecordKind, fields map[string]string) (Record, error) {
	get := func(col string) string {
		return strings.TrimSpace(FieldRecord{Fields: fields}.lookupOrEmpty(col))
	}

	switch kind {
	case KindAttendance:
		rec := AttendanceRecord{ID: get("ID"), Verify: get("Verify")}
		if date := get("Date"); date != "" {
			punch, err := combineDateTime(date, get("Time"))
			if err != nil {
				return nil, fmt.Errorf("记录 %s: %w", rec.ID, err)
			}
			rec.Punch = punch
		}
		return rec, nil

	case KindEmployee:
		rec := EmployeeRecord{
			ID:         get("ID"),
			Name:       get("Name"),
			IDNumber:   get("IDNumber"),
			Department: get("Department"),
			Sex:        get("Sex"),
			Status:     get("Status"),
			Comment:    get("Comment"),
		}
		var err error
		if v := get("Birthday"); v != "" {
			if rec.Birthday, err = parseDate(v); err != nil {
				return nil, fmt.Errorf("员工 %s: %w", rec.ID, err)
			}
		}
		if v := get("Created"); v != "" {
			if rec.Created, err = parseTimestamp(v); err != nil {
				return nil, fmt.Errorf("员工 %s: %w", rec.ID, err)
			}
		}
		if v := get("EnrollmentCount"); v != "" {
			if rec.EnrollmentCount, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("员工 %s: 非法的 EnrollmentCount %q", rec.ID, v)
			}
		}
		return rec, nil

	default:
		return nil, fmt.Errorf("未知的记录类型: %s", kind)
	}
}

func (r FieldRecord) lookupOrEmpty(column string) string {
	v, _ := r.lookup(column)
	return v
}
