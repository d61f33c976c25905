package sheetstore

import (
	"strings"
)

// Table 工作簿中一个命名表格的句柄
type Table struct {
	wb   *Workbook
	desc *TableDescriptor
}

func (t *Table) Name() string  { return t.desc.Name }
func (t *Table) Sheet() string { return t.desc.Sheet }

// Range 返回声明的区域（表头行到最后一个数据行）
func (t *Table) Range() CellRange { return t.desc.Range }

// Ref 返回 "A1:D6" 形式的区域引用
func (t *Table) Ref() string { return t.desc.Range.String() }

// StyleName 表格样式名
func (t *Table) StyleName() string { return t.desc.StyleName }

// RowCount 表头加数据行的行数
func (t *Table) RowCount() int { return t.desc.Range.Rows() }

// DataRowCount 数据行数
func (t *Table) DataRowCount() int { return t.desc.Range.Rows() - 1 }

// Header 读取表头行的单元格值
func (t *Table) Header() ([]string, error) {
	rng := t.desc.Range
	header := make([]string, 0, rng.Cols())
	for c := rng.StartCol; c <= rng.EndCol; c++ {
		v, err := t.wb.file.GetCellValue(t.desc.Sheet, cellName(c, rng.StartRow))
		if err != nil {
			return nil, err
		}
		header = append(header, strings.TrimSpace(v))
	}
	return header, nil
}

// Rows 读取全部数据行，每行长度等于表格列数
func (t *Table) Rows() ([][]string, error) {
	rows, err := t.wb.file.GetRows(t.desc.Sheet)
	if err != nil {
		return nil, err
	}
	rng := t.desc.Range
	out := make([][]string, 0, rng.Rows()-1)
	for r := rng.StartRow + 1; r <= rng.EndRow; r++ {
		row := make([]string, rng.Cols())
		for c := rng.StartCol; c <= rng.EndCol; c++ {
			row[c-rng.StartCol] = valueAt(rows, c, r)
		}
		out = append(out, row)
	}
	return out, nil
}

// Grid 以单元格形式返回表头与数据行，第一行为表头
func (t *Table) Grid() ([][]*Cell, error) {
	rows, err := t.wb.file.GetRows(t.desc.Sheet)
	if err != nil {
		return nil, err
	}
	rng := t.desc.Range
	header := make([]string, rng.Cols())
	for c := rng.StartCol; c <= rng.EndCol; c++ {
		header[c-rng.StartCol] = strings.TrimSpace(valueAt(rows, c, rng.StartRow))
	}

	grid := make([][]*Cell, 0, rng.Rows())
	for r := rng.StartRow; r <= rng.EndRow; r++ {
		line := make([]*Cell, 0, rng.Cols())
		for c := rng.StartCol; c <= rng.EndCol; c++ {
			line = append(line, newCell(c, r, header[c-rng.StartCol], valueAt(rows, c, r)))
		}
		grid = append(grid, line)
	}
	return grid, nil
}

// Descriptor 返回描述的副本
func (t *Table) Descriptor() TableDescriptor {
	d := *t.desc
	d.Columns = append([]string(nil), t.desc.Columns...)
	return d
}
