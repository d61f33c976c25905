package sheetstore

import (
	"strings"

	"go.uber.org/zap"
)

// Sheet 工作表已用区域的快照，用于判断锚点是否被占用
type Sheet struct {
	Name string
	Rows int
	Cols int

	// 非空单元格
	cells map[string]*Cell
}

// loadSheet 读取工作表的全部非空单元格
func (w *Workbook) loadSheet(name string) (*Sheet, error) {
	rows, err := w.file.GetRows(name)
	if err != nil {
		return nil, err
	}
	s := &Sheet{Name: name, cells: make(map[string]*Cell)}
	for rowIndex, row := range rows {
		for colIndex, value := range row {
			if strings.TrimSpace(value) == "" {
				continue
			}
			c := newCell(colIndex+1, rowIndex+1, "", value)
			s.cells[c.Address] = c
			if c.Row > s.Rows {
				s.Rows = c.Row
			}
			if c.Col > s.Cols {
				s.Cols = c.Col
			}
		}
	}
	w.logger.Debug("加载工作表", zap.String("sheet", name), zap.Int("rows", s.Rows), zap.Int("cols", s.Cols), zap.Int("cells", len(s.cells)))
	return s, nil
}

// IsEmpty 工作表是否没有任何非空单元格
func (s *Sheet) IsEmpty() bool { return len(s.cells) == 0 }

// Cells 返回全部非空单元格
func (s *Sheet) Cells() []*Cell {
	out := make([]*Cell, 0, len(s.cells))
	for _, c := range s.cells {
		out = append(out, c)
	}
	return out
}

// Occupied 区域内是否存在非空单元格
func (s *Sheet) Occupied(rng CellRange) bool {
	for _, c := range s.cells {
		if rng.Contains(c.Col, c.Row) {
			return true
		}
	}
	return false
}

// estimateTextWidth 估算文本宽度（Excel 列宽单位）
func estimateTextWidth(text string) float64 {
	if text == "" {
		return 0
	}

	// 简单估算：中文字符约2个单位，英文字符约1个单位
	width := 0.0
	for _, char := range text {
		if char > 127 {
			width += 2.0
		} else {
			width += 1.0
		}
	}
	return width
}
