package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rxxx/sheetstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables [workbook.xlsx]",
		Short: "列出工作簿中的表格",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := sheetstore.Open(a.workbookPath(args), a.logger)
			if err != nil {
				return err
			}
			defer wb.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSHEET\tRANGE\tROWS\tSTYLE")
			for _, t := range wb.Tables() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", t.Name(), t.Sheet(), t.Ref(), t.DataRowCount(), t.StyleName())
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "state: %s\n", wb.State())
			return nil
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	var (
		table string
		kind  string
	)
	cmd := &cobra.Command{
		Use:   "validate [workbook.xlsx]",
		Short: "校验表格表头是否符合记录类型的列定义",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := sheetstore.ParseRecordKind(kind)
			if err != nil {
				return err
			}
			schema, _ := sheetstore.SchemaFor(k)
			table = sheetstore.ResolveString(table, a.cfg.TableName(k))

			wb, err := sheetstore.Open(a.workbookPath(args), a.logger)
			if err != nil {
				return err
			}
			defer wb.Close()

			t, err := wb.FindTable(table)
			if err != nil {
				return err
			}
			res, err := sheetstore.Validate(t, schema)
			if err != nil {
				return err
			}
			if !res.Conforms {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: 不符合 (missing=%v extra=%v)\n", t.Name(), res.Missing, res.Extra)
				return res.Err(t.Name())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: 符合 %s\n", t.Name(), k)
			return nil
		},
	}
	cmd.Flags().StringVarP(&table, "table", "t", "", "表格名称（默认取配置）")
	cmd.Flags().StringVarP(&kind, "kind", "k", "attendance", "记录类型：attendance 或 employee")
	return cmd
}

func newRepairCmd(a *app) *cobra.Command {
	var (
		output string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "repair [workbook.xlsx]",
		Short: "检测并移除幽灵表格定义",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.workbookPath(args)
			wb, err := sheetstore.Open(path, a.logger)
			if err != nil {
				return err
			}
			defer wb.Close()

			out := cmd.OutOrStdout()
			ghosts := wb.Detect()
			for _, g := range ghosts {
				fmt.Fprintf(out, "ghost %s sheet=%s range=%s reason=%s\n", g.Name, g.Sheet, g.Range, g.Reason)
			}
			if len(ghosts) == 0 {
				fmt.Fprintln(out, "state: clean")
				return nil
			}
			if dryRun {
				fmt.Fprintf(out, "state: %s (%d ghosts)\n", wb.State(), len(ghosts))
				return nil
			}

			report, err := wb.Repair()
			if err != nil {
				return err
			}
			if output == "" {
				output = path
			}
			if err := wb.Save(output); err != nil {
				return err
			}
			fmt.Fprintf(out, "state: %s -> %s, removed %d, cleared %d cells\n", report.Before, report.After, len(report.Removed), report.ClearedCells)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "修复后的保存路径（默认覆盖原文件）")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "只检测不修改")
	return cmd
}

func newSnapshotCmd(a *app) *cobra.Command {
	var (
		table  string
		output string
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "snapshot [workbook.xlsx]",
		Short: "把表格渲染为 PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := sheetstore.Open(a.workbookPath(args), a.logger)
			if err != nil {
				return err
			}
			defer wb.Close()

			var tables []*sheetstore.Table
			if all || table == "" {
				tables = wb.Tables()
			} else {
				t, err := wb.FindTable(table)
				if err != nil {
					return err
				}
				tables = []*sheetstore.Table{t}
			}
			if len(tables) == 0 {
				return fmt.Errorf("%w: 工作簿中没有表格", sheetstore.ErrTableNotFound)
			}

			renderer := sheetstore.NewTableRenderer(a.logger)
			for _, t := range tables {
				path := snapshotPath(output, t.Name(), len(tables) == 1)
				if err := renderer.RenderPNG(t, path); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&table, "table", "t", "", "要渲染的表格（默认全部）")
	cmd.Flags().StringVarP(&output, "output", "o", ".", "输出目录，渲染单个表格时可指定 .png 文件")
	cmd.Flags().BoolVar(&all, "all", false, "渲染全部表格")
	return cmd
}

// snapshotPath 确定输出文件路径
func snapshotPath(output, table string, single bool) string {
	if single && strings.EqualFold(filepath.Ext(output), ".png") {
		return output
	}
	return filepath.Join(output, table+".png")
}

func newImportCmd(a *app) *cobra.Command {
	var (
		kind        string
		table       string
		workbook    string
		sqliteTable string
		from        string
		to          string
	)
	cmd := &cobra.Command{
		Use:   "import <source.xls|source.db>",
		Short: "从 .xls 导出文件或 SQLite 日志库导入记录",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := sheetstore.ParseRecordKind(kind)
			if err != nil {
				return err
			}
			rng, err := parseDateRange(from, to)
			if err != nil {
				return err
			}

			src, closeSrc, err := a.openSource(args[0], k, sqliteTable)
			if err != nil {
				return err
			}
			defer closeSrc()

			path := sheetstore.ResolveString(workbook, a.cfg.WorkbookPath)
			store := sheetstore.NewStore(a.cfg, a.logger)
			res, err := store.ExportFrom(context.Background(), src, rng, path, table, k)
			if err != nil {
				return err
			}
			a.logger.Info("导入完成", zap.String("source", args[0]), zap.String("workbook", path), zap.Int("updated", res.Updated), zap.Int("inserted", res.Inserted))
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d, inserted %d\n", res.Updated, res.Inserted)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "attendance", "记录类型：attendance 或 employee")
	cmd.Flags().StringVarP(&table, "table", "t", "", "目标表格名称（默认取配置）")
	cmd.Flags().StringVarP(&workbook, "workbook", "w", "", "目标工作簿（默认取配置）")
	cmd.Flags().StringVar(&sqliteTable, "sqlite-table", "", "SQLite 源表名（默认与记录类型同名）")
	cmd.Flags().StringVar(&from, "from", "", "起始日期 2006-01-02")
	cmd.Flags().StringVar(&to, "to", "", "结束日期 2006-01-02")
	return cmd
}

// openSource 按扩展名选择记录来源
func (a *app) openSource(path string, kind sheetstore.RecordKind, sqliteTable string) (sheetstore.RecordSource, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xls":
		src := sheetstore.NewXLSSource(path, kind, a.logger)
		src.Charset = a.cfg.XLSCharset
		return src, func() {}, nil
	case ".db", ".sqlite", ".sqlite3":
		if sqliteTable == "" {
			sqliteTable = kind.String()
		}
		src, err := sheetstore.OpenSQLiteSource(path, sqliteTable, kind, a.logger)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("不支持的来源文件: %s", path)
	}
}

func parseDateRange(from, to string) (sheetstore.DateRange, error) {
	var rng sheetstore.DateRange
	var err error
	if from != "" {
		if rng.From, err = time.ParseInLocation("2006-01-02", from, time.Local); err != nil {
			return rng, fmt.Errorf("非法的起始日期 %q: %w", from, err)
		}
	}
	if to != "" {
		if rng.To, err = time.ParseInLocation("2006-01-02", to, time.Local); err != nil {
			return rng, fmt.Errorf("非法的结束日期 %q: %w", to, err)
		}
	}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		return rng, errors.New("结束日期早于起始日期")
	}
	return rng, nil
}
