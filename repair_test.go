package sheetstore

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

// seededWorkbook 一个包含 5 行数据的考勤表
func seededWorkbook(t *testing.T) (*Workbook, *Table) {
	t.Helper()
	wb := newTestWorkbook(t)
	tbl, err := wb.CreateTable("", "AttendanceTable", AttendanceSchema)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wb.Upsert(tbl, AttendanceSchema, attendanceBatch(t, "2025-08-01", "001", "002", "003", "004", "005")); err != nil {
		t.Fatal(err)
	}
	return wb, tbl
}

func snapshotEntries(wb *Workbook) []TableDescriptor {
	var out []TableDescriptor
	for _, e := range wb.reg.entries {
		if e.desc != nil {
			out = append(out, *e.desc)
		}
	}
	return out
}

// TestDetectAndRepair 各类幽灵定义的检测与修复
func TestDetectAndRepair(t *testing.T) {
	tests := []struct {
		name        string
		inject      func(t *testing.T, wb *Workbook)
		wantReason  GhostReason
		wantCleared int
	}{
		{
			name: "不可达的注册项",
			inject: func(t *testing.T, wb *Workbook) {
				wb.reg.entries = append(wb.reg.entries, &registryEntry{name: "Lost"})
			},
			wantReason: GhostUnreachable,
		},
		{
			name: "工作表已删除",
			inject: func(t *testing.T, wb *Workbook) {
				wb.reg.add(&TableDescriptor{Name: "Orphan", Sheet: "Deleted", Range: CellRange{1, 1, 4, 3}})
			},
			wantReason: GhostSheetMissing,
		},
		{
			name: "区域重叠",
			inject: func(t *testing.T, wb *Workbook) {
				wb.reg.add(&TableDescriptor{Name: "Shadow", Sheet: "Attendance", Range: CellRange{1, 1, 4, 3}})
			},
			wantReason: GhostOverlap,
		},
		{
			name: "重名",
			inject: func(t *testing.T, wb *Workbook) {
				for i, c := range AttendanceSchema.Columns {
					if err := wb.file.SetCellValue("Attendance", cellName(6+i, 1), c); err != nil {
						t.Fatal(err)
					}
				}
				wb.reg.add(&TableDescriptor{Name: "ATTENDANCETABLE", Sheet: "Attendance", Range: CellRange{6, 1, 9, 1}})
			},
			wantReason:  GhostDuplicateName,
			wantCleared: 4,
		},
		{
			name: "表头已清空",
			inject: func(t *testing.T, wb *Workbook) {
				wb.reg.add(&TableDescriptor{Name: "Blank", Sheet: "Attendance", Range: CellRange{11, 1, 12, 3}})
				if err := wb.file.SetCellValue("Attendance", "K3", "stale"); err != nil {
					t.Fatal(err)
				}
			},
			wantReason:  GhostHeaderCleared,
			wantCleared: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb, tbl := seededWorkbook(t)
			before, _ := tbl.Rows()
			tt.inject(t, wb)

			ghosts := wb.Detect()
			if len(ghosts) != 1 || ghosts[0].Reason != tt.wantReason {
				t.Fatalf("Detect() = %+v, want one %s", ghosts, tt.wantReason)
			}
			if wb.State() != StateCorrupted {
				t.Errorf("State() = %s", wb.State())
			}

			report, err := wb.Repair()
			if err != nil {
				t.Fatalf("Repair() error = %v", err)
			}
			if report.Before != StateCorrupted || report.After != StateClean || len(report.Removed) != 1 {
				t.Errorf("report = %+v", report)
			}
			if report.ClearedCells != tt.wantCleared {
				t.Errorf("ClearedCells = %d, want %d", report.ClearedCells, tt.wantCleared)
			}

			// 有效表格不受影响
			got, err := wb.FindTable("AttendanceTable")
			if err != nil {
				t.Fatal(err)
			}
			if got.Ref() != "A1:D6" {
				t.Errorf("Ref() = %s", got.Ref())
			}
			after, _ := got.Rows()
			if !reflect.DeepEqual(before, after) {
				t.Errorf("修复改动了有效数据:\n%v\n%v", before, after)
			}
			if names := wb.ListTableNames(); len(names) != 1 {
				t.Errorf("ListTableNames() = %v", names)
			}
		})
	}
}

// TestRepair_Idempotent 对干净的注册表修复不做任何改动
func TestRepair_Idempotent(t *testing.T) {
	wb, _ := seededWorkbook(t)
	wb.reg.add(&TableDescriptor{Name: "Shadow", Sheet: "Attendance", Range: CellRange{2, 2, 3, 3}})

	if _, err := wb.Repair(); err != nil {
		t.Fatal(err)
	}
	once := snapshotEntries(wb)

	report, err := wb.Repair()
	if err != nil {
		t.Fatal(err)
	}
	if report.Before != StateClean || len(report.Removed) != 0 || report.ClearedCells != 0 {
		t.Errorf("第二次修复 report = %+v", report)
	}
	if twice := snapshotEntries(wb); !reflect.DeepEqual(once, twice) {
		t.Errorf("注册表被修改:\n%v\n%v", once, twice)
	}
}

// TestRepair_NativeDefinition 文件中的表格定义通过 DeleteTable 移除
func TestRepair_NativeDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "native.xlsx")
	wb, _ := seededWorkbook(t)
	if _, err := wb.CreateTable("", "EmployeeTable", EmployeeSchema); err != nil {
		t.Fatal(err)
	}
	if err := wb.Save(path); err != nil {
		t.Fatal(err)
	}

	reopened := openTestWorkbook(t, path)
	for c := 1; c <= len(EmployeeSchema.Columns); c++ {
		if err := reopened.file.SetCellValue("Employees", cellName(c, 1), nil); err != nil {
			t.Fatal(err)
		}
	}
	report, err := reopened.Repair()
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if report.NativeRemovals != 1 || len(report.Removed) != 1 || report.Removed[0].Name != "EmployeeTable" {
		t.Errorf("report = %+v", report)
	}
	if _, err := reopened.FindTable("EmployeeTable"); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("error = %v, want ErrTableNotFound", err)
	}

	// 保存后重新打开，只剩考勤表
	if err := reopened.Save(""); err != nil {
		t.Fatal(err)
	}
	final := openTestWorkbook(t, path)
	if got := final.ListTableNames(); !reflect.DeepEqual(got, []string{"AttendanceTable"}) {
		t.Errorf("ListTableNames() = %v", got)
	}
}

// TestRepair_NativeGhostKeepsData DeleteTable 只删除定义，原有数据行留在工作表上，
// 同名表格需要显式指定锚点才能重建
func TestRepair_NativeGhostKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghost.xlsx")
	wb, _ := seededWorkbook(t)
	if err := wb.Save(path); err != nil {
		t.Fatal(err)
	}

	reopened := openTestWorkbook(t, path)
	for c := 1; c <= len(AttendanceSchema.Columns); c++ {
		if err := reopened.file.SetCellValue("Attendance", cellName(c, 1), nil); err != nil {
			t.Fatal(err)
		}
	}
	report, err := reopened.Repair()
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if report.NativeRemovals != 1 || report.ClearedCells != 0 {
		t.Errorf("report = %+v", report)
	}
	if got, _ := reopened.file.GetCellValue("Attendance", "A2"); got != "001" {
		t.Errorf("A2 = %q, want 001", got)
	}

	if _, err := reopened.CreateTable("", "AttendanceTable", AttendanceSchema); !errors.Is(err, ErrAnchorOccupied) {
		t.Fatalf("error = %v, want ErrAnchorOccupied", err)
	}
	tbl, err := reopened.CreateTableAt("", "AttendanceTable", AttendanceSchema, "F1")
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Ref() != "F1:I1" {
		t.Errorf("Ref() = %s", tbl.Ref())
	}
}

// TestSave_RepairsFirst 保存前自动修复注册表
func TestSave_RepairsFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto.xlsx")
	wb, _ := seededWorkbook(t)
	wb.reg.entries = append(wb.reg.entries, &registryEntry{name: "Lost"})
	wb.reg.add(&TableDescriptor{Name: "Shadow", Sheet: "Attendance", Range: CellRange{1, 3, 4, 4}})

	if err := wb.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if wb.State() != StateClean {
		t.Errorf("State() = %s", wb.State())
	}
	reopened := openTestWorkbook(t, path)
	if got := reopened.ListTableNames(); !reflect.DeepEqual(got, []string{"AttendanceTable"}) {
		t.Errorf("ListTableNames() = %v", got)
	}
	tbl, err := reopened.FindTable("AttendanceTable")
	if err != nil {
		t.Fatal(err)
	}
	if tbl.RowCount() != 6 {
		t.Errorf("RowCount() = %d", tbl.RowCount())
	}
}

// TestUpsert_RepairsClaimedRange 追加行落在幽灵定义区域内时先修复再写入
func TestUpsert_RepairsClaimedRange(t *testing.T) {
	wb, tbl := seededWorkbook(t)
	wb.reg.entries = append(wb.reg.entries, &registryEntry{name: "Lost"})
	// 表头为空的幽灵定义占据第 7 行以下
	wb.reg.add(&TableDescriptor{Name: "Below", Sheet: "Attendance", Range: CellRange{1, 7, 4, 8}})

	res, err := wb.Upsert(tbl, AttendanceSchema, attendanceBatch(t, "2025-08-02", "006"))
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if res.Inserted != 1 || tbl.RowCount() != 7 {
		t.Errorf("result = %+v, RowCount() = %d", res, tbl.RowCount())
	}
	if wb.State() != StateClean {
		t.Errorf("State() = %s", wb.State())
	}
}
