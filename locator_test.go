package sheetstore

import (
	"errors"
	"reflect"
	"testing"
)

// TestFindTable 测试按名称查找表格
func TestFindTable(t *testing.T) {
	wb := newTestWorkbook(t)
	if _, err := wb.CreateTable("", "AttendanceTable", AttendanceSchema); err != nil {
		t.Fatal(err)
	}
	if _, err := wb.CreateTable("", "EmployeeTable", EmployeeSchema); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		query     string
		wantSheet string
		wantErr   error
	}{
		{"精确匹配", "AttendanceTable", "Attendance", nil},
		{"大小写不敏感", "EMPLOYEETABLE", "Employees", nil},
		{"前后空白", "  employeetable ", "Employees", nil},
		{"不存在", "MissingTable", "", ErrTableNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := wb.FindTable(tt.query)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("FindTable(%q) error = %v, want %v", tt.query, err, tt.wantErr)
			}
			if err == nil && got.Sheet() != tt.wantSheet {
				t.Errorf("Sheet() = %s, want %s", got.Sheet(), tt.wantSheet)
			}
		})
	}

	if !wb.TableExists("attendancetable") || wb.TableExists("MissingTable") {
		t.Error("TableExists 结果错误")
	}
	if got := wb.ListTableNames(); !reflect.DeepEqual(got, []string{"AttendanceTable", "EmployeeTable"}) {
		t.Errorf("ListTableNames() = %v", got)
	}
	if len(wb.Tables()) != 2 {
		t.Errorf("len(Tables()) = %d", len(wb.Tables()))
	}
}

// TestFindTable_SkipsUnreachable 不可达的注册项不会被返回
func TestFindTable_SkipsUnreachable(t *testing.T) {
	wb := newTestWorkbook(t)
	wb.reg.entries = append(wb.reg.entries, &registryEntry{name: "Lost"})
	if _, err := wb.FindTable("Lost"); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("error = %v, want ErrTableNotFound", err)
	}
}
