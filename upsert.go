package sheetstore

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// UpsertResult 一次 upsert 更新与新增的行数
type UpsertResult struct {
	Updated  int
	Inserted int
}

// Upsert 把一批记录合并进表格：键（schema.KeyField，大小写不敏感）命中已有行时原位更新，
// 记录中缺失的字段保留原值；否则按输入顺序追加到数据区末尾。
// 同一批中重复的键只会更新一次，之后的记录追加为新行。没有键的记录总是追加。
// 完成后表格区域调整为从表头到最后一个非空行。不会删除任何已有行。
// 追加行已有非表格数据时返回 ErrRowOccupied，此时工作表不做任何修改。
func (w *Workbook) Upsert(t *Table, schema Schema, records []Record) (UpsertResult, error) {
	var result UpsertResult
	desc := t.desc
	sheet := desc.Sheet
	if !w.reg.contains(desc) {
		return result, newTableError(desc.Name, "upsert", fmt.Errorf("%w: %s", ErrTableNotFound, desc.Name))
	}

	header, err := t.Header()
	if err != nil {
		return result, newTableError(desc.Name, "upsert", err)
	}
	if res := ValidateHeader(header, schema); !res.Conforms {
		return result, res.Err(desc.Name)
	}

	// schema 列下标 -> 工作表列号，表头顺序可以与规范顺序不同
	colOf := make([]int, len(schema.Columns))
	for i, h := range header {
		if idx := schema.ColumnIndex(h); idx >= 0 && colOf[idx] == 0 {
			colOf[idx] = desc.Range.StartCol + i
		}
	}
	keyCol := colOf[schema.ColumnIndex(schema.KeyField)]

	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return result, newTableError(desc.Name, "upsert", err)
	}
	index := make(map[string]int, desc.Range.Rows())
	for r := desc.Range.StartRow + 1; r <= desc.Range.EndRow; r++ {
		key := foldName(valueAt(rows, keyCol, r))
		if key == "" {
			continue
		}
		if _, dup := index[key]; !dup {
			index[key] = r
		}
	}

	widths := make([]float64, len(schema.Columns))
	for i, c := range schema.Columns {
		widths[i] = estimateTextWidth(c)
	}

	// 先确定每条记录写到哪一行并检查追加区域，全部通过后才写入单元格
	type pending struct {
		row    int
		values []any
	}
	var plan []pending
	next := desc.Range.EndRow + 1
	for i, rec := range records {
		if rec == nil {
			continue
		}
		if rec.Kind() != schema.Kind {
			return result, newTableError(desc.Name, "upsert",
				fmt.Errorf("%w: 第 %d 条记录类型 %s，表格为 %s", ErrKindMismatch, i, rec.Kind(), schema.Kind))
		}
		values := rec.Row()
		if len(values) != len(schema.Columns) {
			return result, newTableError(desc.Name, "upsert",
				fmt.Errorf("第 %d 条记录有 %d 个字段，schema 需要 %d 个", i, len(values), len(schema.Columns)))
		}
		if allNil(values) {
			w.logger.Debug("跳过空记录", zap.String("table", desc.Name), zap.Int("index", i))
			continue
		}

		key := foldName(rec.Key())
		if row, ok := index[key]; ok && key != "" {
			plan = append(plan, pending{row: row, values: values})
			delete(index, key)
			result.Updated++
			continue
		}

		target := CellRange{StartCol: desc.Range.StartCol, StartRow: next, EndCol: desc.Range.EndCol, EndRow: next}
		if err := w.claimRange(sheet, target, desc); err != nil {
			return UpsertResult{}, newTableError(desc.Name, "upsert", err)
		}
		// 表格下方不属于任何表格的数据同样不能覆盖
		blank, err := w.rowIsBlank(sheet, desc.Range, next)
		if err != nil {
			return UpsertResult{}, newTableError(desc.Name, "upsert", err)
		}
		if !blank {
			return UpsertResult{}, newTableError(desc.Name, "upsert",
				fmt.Errorf("%w: %s!%s", ErrRowOccupied, sheet, target))
		}
		plan = append(plan, pending{row: next, values: values})
		next++
		result.Inserted++
	}

	for _, p := range plan {
		if err := w.writeRecord(sheet, p.row, colOf, p.values, widths); err != nil {
			return result, newTableError(desc.Name, "upsert", err)
		}
	}

	end := next - 1
	for end > desc.Range.StartRow {
		blank, err := w.rowIsBlank(sheet, desc.Range, end)
		if err != nil {
			return result, newTableError(desc.Name, "upsert", err)
		}
		if !blank {
			break
		}
		end--
	}
	desc.Range.EndRow = end

	w.autoFitColumns(sheet, colOf, widths)

	w.logger.Info("写入表格",
		zap.String("table", desc.Name),
		zap.String("range", desc.Range.String()),
		zap.Int("updated", result.Updated),
		zap.Int("inserted", result.Inserted))
	return result, nil
}

func (w *Workbook) writeRecord(sheet string, row int, colOf []int, values []any, widths []float64) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		if err := w.file.SetCellValue(sheet, cellName(colOf[i], row), v); err != nil {
			return err
		}
		if width := estimateTextWidth(fmt.Sprint(v)); width > widths[i] {
			widths[i] = width
		}
	}
	return nil
}

func (w *Workbook) rowIsBlank(sheet string, rng CellRange, row int) (bool, error) {
	for c := rng.StartCol; c <= rng.EndCol; c++ {
		v, err := w.file.GetCellValue(sheet, cellName(c, row))
		if err != nil {
			return false, err
		}
		if strings.TrimSpace(v) != "" {
			return false, nil
		}
	}
	return true, nil
}

// autoFitColumns 按 schema 列对应的工作表列调整宽度
func (w *Workbook) autoFitColumns(sheet string, colOf []int, widths []float64) {
	for i, col := range colOf {
		w.autoFit(sheet, col, widths[i:i+1])
	}
}

func allNil(values []any) bool {
	for _, v := range values {
		if v != nil {
			return false
		}
	}
	return true
}
