package main

import (
	"fmt"
	"os"

	"github.com/rxxx/sheetstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app 命令共享的状态，由根命令的 PersistentPreRunE 初始化
type app struct {
	configPath   string
	userSettings string
	verbose      bool

	cfg    sheetstore.Config
	logger *zap.Logger
	sync   func()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "sheetstore",
		Short:        "管理 .xlsx 工作簿中的考勤与员工表格",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.sync != nil {
				a.sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "配置文件路径（默认查找 ./sheetstore.yaml）")
	root.PersistentFlags().StringVar(&a.userSettings, "user-settings", "", "用户设置文件路径，非空字段覆盖配置")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "启用调试日志（开发模式）")

	root.AddCommand(
		newTablesCmd(a),
		newValidateCmd(a),
		newRepairCmd(a),
		newSnapshotCmd(a),
		newImportCmd(a),
		newDemoCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := sheetstore.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	us, err := sheetstore.LoadUserSettings(a.userSettings)
	if err != nil {
		return err
	}
	a.cfg = sheetstore.Resolve(us, cfg)

	// 判断是否启用调试日志
	level := sheetstore.ParseLevel(a.cfg.LogLevel)
	isDev := a.cfg.LogDev
	if a.verbose {
		level = zapcore.DebugLevel
		isDev = true
	}

	a.logger, a.sync, err = sheetstore.SetupLogger("sheetstore", level, isDev)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	return nil
}

// workbookPath 命令行参数优先，否则使用配置中的工作簿路径
func (a *app) workbookPath(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return a.cfg.WorkbookPath
}
