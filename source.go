package sheetstore

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DateRange 按日期过滤记录，两端包含。零值端点表示不限。
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains 判断 t 的日期是否落在区间内。t 为零值时视为落在区间内。
func (r DateRange) Contains(t time.Time) bool {
	if t.IsZero() {
		return true
	}
	day := truncateDay(t)
	if !r.From.IsZero() && day.Before(truncateDay(r.From)) {
		return false
	}
	if !r.To.IsZero() && day.After(truncateDay(r.To)) {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// RecordSource 记录的生产者（考勤机、导出文件、数据库等），只作为可枚举的数据来源
type RecordSource interface {
	GetRecords(ctx context.Context, rng DateRange) ([]Record, error)
	GetRecordCount(ctx context.Context, rng DateRange) (int, error)
}

// recordDate 用于日期过滤：考勤记录取打卡时间，员工记录取创建时间
func recordDate(rec Record) time.Time {
	switch r := rec.(type) {
	case AttendanceRecord:
		return r.Punch
	case EmployeeRecord:
		return r.Created
	case FieldRecord:
		col := "Date"
		if r.RecordKind == KindEmployee {
			col = "Created"
		}
		if v := strings.TrimSpace(r.lookupOrEmpty(col)); v != "" {
			if t, err := parseTimestamp(v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func filterRecords(records []Record, rng DateRange) []Record {
	if rng.From.IsZero() && rng.To.IsZero() {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if rng.Contains(recordDate(rec)) {
			out = append(out, rec)
		}
	}
	return out
}

// SliceSource 内存中的一批记录，适合测试夹具或设备 SDK 的适配层
type SliceSource struct {
	Records []Record
}

func (s *SliceSource) GetRecords(_ context.Context, rng DateRange) ([]Record, error) {
	return filterRecords(s.Records, rng), nil
}

func (s *SliceSource) GetRecordCount(ctx context.Context, rng DateRange) (int, error) {
	records, err := s.GetRecords(ctx, rng)
	return len(records), err
}

// TableSource 从工作簿中的表格读回记录
type TableSource struct {
	wb    *Workbook
	table string
	kind  RecordKind
}

func NewTableSource(wb *Workbook, table string, kind RecordKind) *TableSource {
	return &TableSource{wb: wb, table: table, kind: kind}
}

func (s *TableSource) GetRecords(_ context.Context, rng DateRange) ([]Record, error) {
	schema, err := SchemaFor(s.kind)
	if err != nil {
		return nil, err
	}
	t, err := s.wb.FindTable(s.table)
	if err != nil {
		return nil, err
	}
	res, err := Validate(t, schema)
	if err != nil {
		return nil, err
	}
	if !res.Conforms {
		return nil, res.Err(t.Name())
	}

	header, err := t.Header()
	if err != nil {
		return nil, err
	}
	rows, err := t.Rows()
	if err != nil {
		return nil, err
	}
	records, err := recordsFromRows(s.kind, header, rows)
	if err != nil {
		return nil, fmt.Errorf("读取表格 %s: %w", t.Name(), err)
	}
	return filterRecords(records, rng), nil
}

func (s *TableSource) GetRecordCount(ctx context.Context, rng DateRange) (int, error) {
	records, err := s.GetRecords(ctx, rng)
	return len(records), err
}

// recordsFromRows 以表头为列名把二维数据转成记录，整行为空的行跳过
func recordsFromRows(kind RecordKind, header []string, rows [][]string) ([]Record, error) {
	var out []Record
	for _, row := range rows {
		fields := make(map[string]string, len(header))
		blank := true
		for i, h := range header {
			if h == "" {
				continue
			}
			v := ""
			if i < len(row) {
				v = strings.TrimSpace(row[i])
			}
			if v != "" {
				blank = false
			}
			fields[h] = v
		}
		if blank {
			continue
		}
		rec, err := recordFromFields(kind, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
