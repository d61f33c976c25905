package sheetstore

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	minColWidth = 10.0
	maxColWidth = 60.0
)

// CreateTable 在 sheetHint 指定的工作表（为空时使用 schema 的默认工作表）中创建空表，
// 锚点自动推断。见 CreateTableAt。
func (w *Workbook) CreateTable(sheetHint, name string, schema Schema) (*Table, error) {
	return w.CreateTableAt(sheetHint, name, schema, "")
}

// CreateTableAt 创建一个只有表头的空表，表头按 schema 的规范顺序写入。
// 同名表格已存在时先修复注册表；修复后仍存在且符合 schema 则原样返回，
// 不符合则返回 *SchemaMismatchError，不会静默重建。
// anchor 为空时优先使用 A1，A1 被非表格数据占用且无法推断时返回 ErrAnchorOccupied。
func (w *Workbook) CreateTableAt(sheetHint, name string, schema Schema, anchor string) (*Table, error) {
	name = strings.TrimSpace(name)
	if err := checkTableName(name); err != nil {
		return nil, newTableError(name, "create", err)
	}
	if len(schema.Columns) == 0 {
		return nil, newTableError(name, "create", fmt.Errorf("schema 没有列"))
	}

	if w.TableExists(name) {
		if _, err := w.Repair(); err != nil {
			return nil, newTableError(name, "create", err)
		}
		if t, err := w.FindTable(name); err == nil {
			res, err := Validate(t, schema)
			if err != nil {
				return nil, err
			}
			if !res.Conforms {
				return nil, res.Err(t.Name())
			}
			w.logger.Debug("表格已存在且符合 schema", zap.String("table", t.Name()), zap.String("range", t.Ref()))
			return t, nil
		}
	}

	if strings.TrimSpace(sheetHint) == "" {
		sheetHint = schema.DefaultSheet
	}
	sheet, err := w.ensureSheet(sheetHint)
	if err != nil {
		return nil, newTableError(name, "create", err)
	}

	col, row, err := w.resolveAnchor(sheet, anchor, len(schema.Columns))
	if err != nil {
		return nil, newTableError(name, "create", err)
	}

	// 表头加一个占位数据行
	rng := CellRange{StartCol: col, StartRow: row, EndCol: col + len(schema.Columns) - 1, EndRow: row + 1}
	if err := w.claimRange(sheet, rng, nil); err != nil {
		return nil, newTableError(name, "create", err)
	}

	for i, column := range schema.Columns {
		if err := w.file.SetCellValue(sheet, cellName(col+i, row), column); err != nil {
			return nil, newTableError(name, "create", err)
		}
	}
	w.styleHeader(sheet, rng, schema)

	desc := &TableDescriptor{
		Name:      name,
		Sheet:     sheet,
		Range:     rng,
		Columns:   append([]string(nil), schema.Columns...),
		StyleName: schema.StyleName,
	}
	// 去掉占位行，得到符合 schema 的空表
	desc.Range.EndRow = desc.Range.StartRow
	w.reg.add(desc)

	widths := make([]float64, len(schema.Columns))
	for i, column := range schema.Columns {
		widths[i] = estimateTextWidth(column)
	}
	w.autoFit(sheet, col, widths)

	w.logger.Info("创建表格",
		zap.String("table", name),
		zap.String("sheet", sheet),
		zap.String("range", desc.Range.String()),
		zap.String("kind", schema.Kind.String()),
		zap.String("style", schema.StyleName))
	return &Table{wb: w, desc: desc}, nil
}

// resolveAnchor 确定表头左上角坐标
func (w *Workbook) resolveAnchor(sheet, anchor string, width int) (int, int, error) {
	sh, err := w.loadSheet(sheet)
	if err != nil {
		return 0, 0, err
	}

	if anchor = strings.TrimSpace(anchor); anchor != "" {
		col, row, err := excelize.CellNameToCoordinates(anchor)
		if err != nil {
			return 0, 0, fmt.Errorf("非法的锚点 %q: %w", anchor, err)
		}
		if sh.Occupied(CellRange{StartCol: col, StartRow: row, EndCol: col + width - 1, EndRow: row + 1}) {
			return 0, 0, fmt.Errorf("%w: %s!%s", ErrAnchorOccupied, sheet, anchor)
		}
		return col, row, nil
	}

	origin := CellRange{StartCol: 1, StartRow: 1, EndCol: width, EndRow: 2}
	if !sh.Occupied(origin) && len(w.reg.claimants(sheet, origin, nil)) == 0 {
		return 1, 1, nil
	}

	// 工作表上已有内容全部属于表格时，放在已用列右侧并空出一列
	for _, c := range sh.Cells() {
		if len(w.reg.claimants(sheet, CellRange{StartCol: c.Col, StartRow: c.Row, EndCol: c.Col, EndRow: c.Row}, nil)) == 0 {
			return 0, 0, fmt.Errorf("%w: %s!%s", ErrAnchorOccupied, sheet, c.Address)
		}
	}
	maxCol := sh.Cols
	for _, e := range w.reg.entries {
		if e.desc != nil && strings.EqualFold(e.desc.Sheet, sheet) && e.desc.Range.EndCol > maxCol {
			maxCol = e.desc.Range.EndCol
		}
	}
	return maxCol + 2, 1, nil
}

// claimRange 确认 rng 不属于 self 以外的表格。存在重叠时先运行元数据修复，
// 修复后仍被可达表格占用则返回 ErrRangeClaimed。
func (w *Workbook) claimRange(sheet string, rng CellRange, self *TableDescriptor) error {
	if len(w.reg.claimants(sheet, rng, self)) == 0 {
		return nil
	}
	w.logger.Warn("目标区域已被表格定义占用，尝试修复", zap.String("sheet", sheet), zap.String("range", rng.String()))
	if _, err := w.Repair(); err != nil {
		return err
	}
	if self != nil && !w.reg.contains(self) {
		return fmt.Errorf("%w: 表格 %s 在修复中被移除", ErrRegistryCorruption, self.Name)
	}
	if owners := w.reg.claimants(sheet, rng, self); len(owners) > 0 {
		return fmt.Errorf("%w: %s!%s 属于 %s", ErrRangeClaimed, sheet, rng, owners[0].desc.Name)
	}
	return nil
}

// styleHeader 表头样式，只影响外观
func (w *Workbook) styleHeader(sheet string, rng CellRange, schema Schema) {
	color := schema.HeaderColor
	if color == "" {
		color = "1F4E79"
	}
	styleID, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		w.logger.Debug("创建表头样式失败", zap.Error(err))
		return
	}
	_ = w.file.SetCellStyle(sheet, cellName(rng.StartCol, rng.StartRow), cellName(rng.EndCol, rng.StartRow), styleID)
}

// autoFit 按内容估算列宽，只会加宽不会收窄
func (w *Workbook) autoFit(sheet string, startCol int, widths []float64) {
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(startCol + i)
		if err != nil {
			continue
		}
		want := width + 2
		if want < minColWidth {
			want = minColWidth
		}
		if want > maxColWidth {
			want = maxColWidth
		}
		if cur, err := w.file.GetColWidth(sheet, col); err == nil && cur >= want {
			continue
		}
		_ = w.file.SetColWidth(sheet, col, col, want)
	}
}

var errCellRefName = errors.New("名称不能是单元格引用")

// checkTableName 表格名称以字母或下划线开头，只包含字母、数字、下划线和点
func checkTableName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: 名称为空", ErrInvalidTableName)
	}
	if len(name) > 255 {
		return fmt.Errorf("%w: 名称过长", ErrInvalidTableName)
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r) || r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '.'):
		default:
			return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
		}
	}
	if _, _, err := excelize.CellNameToCoordinates(name); err == nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidTableName, name, errCellRefName)
	}
	return nil
}
