package sheetstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 配置文件与环境变量（前缀 SHEETSTORE_）给出的默认值
type Config struct {
	WorkbookPath    string `mapstructure:"WORKBOOK_PATH"`
	AttendanceTable string `mapstructure:"ATTENDANCE_TABLE"`
	EmployeeTable   string `mapstructure:"EMPLOYEE_TABLE"`
	AttendanceSheet string `mapstructure:"ATTENDANCE_SHEET"`
	EmployeeSheet   string `mapstructure:"EMPLOYEE_SHEET"`
	XLSCharset      string `mapstructure:"XLS_CHARSET"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	LogDev          bool   `mapstructure:"LOG_DEV"`
}

// UserSettings 用户保存的设置，非空字段覆盖 Config
type UserSettings struct {
	WorkbookPath    string `mapstructure:"WORKBOOK_PATH"`
	AttendanceTable string `mapstructure:"ATTENDANCE_TABLE"`
	EmployeeTable   string `mapstructure:"EMPLOYEE_TABLE"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("WORKBOOK_PATH", "data/attendance.xlsx")
	v.SetDefault("ATTENDANCE_TABLE", "AttendanceTable")
	v.SetDefault("EMPLOYEE_TABLE", "EmployeeTable")
	v.SetDefault("ATTENDANCE_SHEET", AttendanceSchema.DefaultSheet)
	v.SetDefault("EMPLOYEE_SHEET", EmployeeSchema.DefaultSheet)
	v.SetDefault("XLS_CHARSET", "utf-8")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEV", false)
}

// DefaultConfig 不读取任何文件与环境变量时的配置
func DefaultConfig() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	Normalize(&cfg)
	return cfg
}

// LoadConfig 读取配置。path 为空时在当前目录查找可选的 sheetstore.yaml；
// path 非空时文件必须存在。
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("sheetstore")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("SHEETSTORE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("读取配置 %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	Normalize(&cfg)
	return cfg, nil
}

// LoadUserSettings 读取用户设置文件，文件不存在时返回零值
func LoadUserSettings(path string) (UserSettings, error) {
	var us UserSettings
	if strings.TrimSpace(path) == "" {
		return us, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return us, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return us, fmt.Errorf("读取用户设置 %s: %w", path, err)
	}
	if err := v.Unmarshal(&us); err != nil {
		return us, err
	}
	return us, nil
}

// ResolveString 用户设置非空时优先，否则使用配置默认值
func ResolveString(user, fallback string) string {
	if v := strings.TrimSpace(user); v != "" {
		return v
	}
	return fallback
}

// Resolve 合并两层设置，返回生效的配置
func Resolve(user UserSettings, cfg Config) Config {
	cfg.WorkbookPath = ResolveString(user.WorkbookPath, cfg.WorkbookPath)
	cfg.AttendanceTable = ResolveString(user.AttendanceTable, cfg.AttendanceTable)
	cfg.EmployeeTable = ResolveString(user.EmployeeTable, cfg.EmployeeTable)
	return cfg
}

func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.WorkbookPath = strings.TrimSpace(cfg.WorkbookPath)
	cfg.AttendanceTable = strings.TrimSpace(cfg.AttendanceTable)
	cfg.EmployeeTable = strings.TrimSpace(cfg.EmployeeTable)
	cfg.AttendanceSheet = strings.TrimSpace(cfg.AttendanceSheet)
	cfg.EmployeeSheet = strings.TrimSpace(cfg.EmployeeSheet)
	cfg.XLSCharset = strings.ToLower(strings.TrimSpace(cfg.XLSCharset))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
}

// TableName 记录类型对应的表格名
func (c Config) TableName(kind RecordKind) string {
	if kind == KindEmployee {
		return c.EmployeeTable
	}
	return c.AttendanceTable
}

// SheetName 记录类型对应的工作表名
func (c Config) SheetName(kind RecordKind) string {
	if kind == KindEmployee {
		return c.EmployeeSheet
	}
	return c.AttendanceSheet
}
