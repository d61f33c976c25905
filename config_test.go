package sheetstore

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.AttendanceTable != "AttendanceTable" || cfg.EmployeeTable != "EmployeeTable" {
		t.Errorf("表格名默认值 = %s / %s", cfg.AttendanceTable, cfg.EmployeeTable)
	}
	if cfg.SheetName(KindEmployee) != "Employees" || cfg.TableName(KindAttendance) != "AttendanceTable" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.XLSCharset != "utf-8" || cfg.LogLevel != "info" {
		t.Errorf("cfg = %+v", cfg)
	}
}

// TestLoadConfig 配置文件与环境变量覆盖默认值
func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sheetstore.yaml")
	content := "WORKBOOK_PATH: ' out/book.xlsx '\nLOG_LEVEL: DEBUG\nEMPLOYEE_SHEET: Staff\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHEETSTORE_ATTENDANCE_TABLE", "EnvTable")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.WorkbookPath != "out/book.xlsx" {
		t.Errorf("WorkbookPath = %q", cfg.WorkbookPath)
	}
	if cfg.LogLevel != "debug" || ParseLevel(cfg.LogLevel) != zapcore.DebugLevel {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.AttendanceTable != "EnvTable" {
		t.Errorf("AttendanceTable = %q", cfg.AttendanceTable)
	}
	if cfg.EmployeeSheet != "Staff" || cfg.EmployeeTable != "EmployeeTable" {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("指定的配置文件不存在时应返回错误")
	}
}

// TestResolve 用户设置优先于配置默认值
func TestResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user.yaml")
	if err := os.WriteFile(path, []byte("ATTENDANCE_TABLE: Mine\nWORKBOOK_PATH: '  '\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	us, err := LoadUserSettings(path)
	if err != nil {
		t.Fatal(err)
	}

	cfg := Resolve(us, DefaultConfig())
	if cfg.AttendanceTable != "Mine" {
		t.Errorf("AttendanceTable = %q", cfg.AttendanceTable)
	}
	if cfg.WorkbookPath != "data/attendance.xlsx" || cfg.EmployeeTable != "EmployeeTable" {
		t.Errorf("cfg = %+v", cfg)
	}

	empty, err := LoadUserSettings(filepath.Join(dir, "none.yaml"))
	if err != nil || empty != (UserSettings{}) {
		t.Errorf("LoadUserSettings() = %+v, %v", empty, err)
	}
	if ResolveString("", "fallback") != "fallback" || ResolveString(" x ", "fallback") != "x" {
		t.Error("ResolveString 结果错误")
	}
	if ParseLevel("nonsense") != zapcore.InfoLevel {
		t.Error("无法识别的级别应回退到 info")
	}
}
