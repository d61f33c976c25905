package sheetstore

import (
	"strconv"
	"strings"
)

// Cell 表示表格中的一个单元格
type Cell struct {
	Row     int    // 1-based，工作表中的绝对行号
	Col     int    // 1-based
	Address string // 如 "A1"
	Column  string // 所在列的表头名称
	Value   string // excelize 返回的显示值
}

func newCell(col, row int, column, value string) *Cell {
	return &Cell{
		Row:     row,
		Col:     col,
		Address: cellName(col, row),
		Column:  column,
		Value:   value,
	}
}

// IsEmpty 判断单元格是否为空
func (c *Cell) IsEmpty() bool { return c == nil || strings.TrimSpace(c.Value) == "" }

// String 返回单元格的字符串值（空则返回空串）
func (c *Cell) String() string {
	if c == nil {
		return ""
	}
	return c.Value
}

// Float64 将单元格值转为 float64
func (c *Cell) Float64() (float64, error) {
	if c == nil {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
}

// Int 将单元格值转为 int
func (c *Cell) Int() (int, error) {
	if c == nil {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(strings.TrimSpace(c.Value))
}

// IsNumeric 判断显示值是否为数字
func (c *Cell) IsNumeric() bool {
	_, err := c.Float64()
	return err == nil
}
