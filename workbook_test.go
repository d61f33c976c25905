package sheetstore

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
)

func newTestWorkbook(t *testing.T) *Workbook {
	t.Helper()
	wb := Create(zaptest.NewLogger(t))
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func openTestWorkbook(t *testing.T, path string) *Workbook {
	t.Helper()
	wb, err := Open(path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("打开 %s 失败: %v", path, err)
	}
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func attendanceBatch(t *testing.T, day string, ids ...string) []Record {
	t.Helper()
	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, AttendanceRecord{ID: id, Punch: mustTime(t, day+" 08:00:00"), Verify: "Fingerprint"})
	}
	return records
}

// TestOpen 测试打开工作簿的错误分类
func TestOpen(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.xlsx")
	if err := os.WriteFile(garbage, []byte("this is not a zip archive"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"不存在的文件", filepath.Join(dir, "missing.xlsx"), ErrWorkbookNotFound},
		{"目录", dir, ErrIOFailure},
		{"损坏的文件", garbage, ErrCorruptFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.path, zaptest.NewLogger(t))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestOpen_PlainWorkbook 没有表格定义的工作簿列出工作表名称
func TestOpen_PlainWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.xlsx")
	f := excelize.NewFile()
	_ = f.SetCellValue("Sheet1", "A1", "hello")
	if _, err := f.NewSheet("Data"); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	wb := openTestWorkbook(t, path)
	if got := wb.ListTableNames(); !reflect.DeepEqual(got, []string{"Sheet1", "Data"}) {
		t.Errorf("ListTableNames() = %v", got)
	}
	if wb.State() != StateClean {
		t.Errorf("State() = %s", wb.State())
	}
}

func TestOpenOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "new.xlsx")
	wb, err := OpenOrCreate(path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("OpenOrCreate() error = %v", err)
	}
	defer wb.Close()
	if wb.Path() != path {
		t.Errorf("Path() = %q", wb.Path())
	}
	if _, err := wb.CreateTable("", "AttendanceTable", AttendanceSchema); err != nil {
		t.Fatal(err)
	}
	if err := wb.Save(""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("文件未写入: %v", err)
	}
	// 新建工作簿的默认工作表在创建真实工作表后被移除
	if got := wb.SheetList(); !reflect.DeepEqual(got, []string{"Attendance"}) {
		t.Errorf("SheetList() = %v", got)
	}
}

func TestSave_Errors(t *testing.T) {
	wb := newTestWorkbook(t)
	if err := wb.Save(""); !errors.Is(err, ErrIOFailure) {
		t.Errorf("无路径保存 error = %v", err)
	}

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	// 父路径是普通文件，无法创建目录
	if err := wb.Save(filepath.Join(blocker, "out.xlsx")); !errors.Is(err, ErrIOFailure) {
		t.Errorf("error = %v, want ErrIOFailure", err)
	}

	_ = wb.Close()
	if err := wb.Close(); err != nil {
		t.Errorf("重复 Close error = %v", err)
	}
	if err := wb.Save(filepath.Join(dir, "closed.xlsx")); !errors.Is(err, ErrIOFailure) {
		t.Errorf("关闭后保存 error = %v", err)
	}
}

// TestSave_RoundTrip 保存后重新打开，表格、表头顺序与数据保持不变
func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.xlsx")

	wb := newTestWorkbook(t)
	att, err := wb.CreateTable("", "AttendanceTable", AttendanceSchema)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wb.Upsert(att, AttendanceSchema, attendanceBatch(t, "2025-08-01", "001", "002", "003")); err != nil {
		t.Fatal(err)
	}
	if _, err := wb.CreateTable("", "EmployeeTable", EmployeeSchema); err != nil {
		t.Fatal(err)
	}
	if err := wb.Save(path); err != nil {
		t.Fatal(err)
	}
	wantRows, _ := att.Rows()

	reopened := openTestWorkbook(t, path)
	if got := reopened.ListTableNames(); !reflect.DeepEqual(got, []string{"AttendanceTable", "EmployeeTable"}) {
		t.Errorf("ListTableNames() = %v", got)
	}

	t2, err := reopened.FindTable("attendancetable")
	if err != nil {
		t.Fatal(err)
	}
	if t2.Ref() != "A1:D4" || t2.RowCount() != 4 {
		t.Errorf("Ref() = %s, RowCount() = %d", t2.Ref(), t2.RowCount())
	}
	header, _ := t2.Header()
	if !reflect.DeepEqual(header, AttendanceSchema.Columns) {
		t.Errorf("Header() = %v", header)
	}
	gotRows, _ := t2.Rows()
	if !reflect.DeepEqual(gotRows, wantRows) {
		t.Errorf("Rows() = %v, want %v", gotRows, wantRows)
	}
	if t2.StyleName() != AttendanceSchema.StyleName {
		t.Errorf("StyleName() = %s", t2.StyleName())
	}

	// 空表在文件中带一个占位行，读回后仍然只有表头
	emp, err := reopened.FindTable("EmployeeTable")
	if err != nil {
		t.Fatal(err)
	}
	if emp.RowCount() != 1 || emp.DataRowCount() != 0 {
		t.Errorf("空表 RowCount() = %d", emp.RowCount())
	}
	if res, _ := Validate(emp, EmployeeSchema); !res.Conforms {
		t.Errorf("员工表校验失败: %+v", res)
	}
}
