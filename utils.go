package sheetstore

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellRange 表示一个矩形区域，行列均从 1 开始且包含端点
type CellRange struct {
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// ParseRange 解析 "A1:D10" 形式的区域引用，单个单元格视为 1x1 区域
func ParseRange(ref string) (CellRange, error) {
	ref = strings.ReplaceAll(strings.TrimSpace(ref), "$", "")
	if ref == "" {
		return CellRange{}, fmt.Errorf("空的区域引用")
	}
	parts := strings.Split(ref, ":")
	if len(parts) > 2 {
		return CellRange{}, fmt.Errorf("非法的区域引用: %s", ref)
	}
	sc, sr, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return CellRange{}, fmt.Errorf("非法的区域引用 %s: %w", ref, err)
	}
	ec, er := sc, sr
	if len(parts) == 2 {
		ec, er, err = excelize.CellNameToCoordinates(parts[1])
		if err != nil {
			return CellRange{}, fmt.Errorf("非法的区域引用 %s: %w", ref, err)
		}
	}
	if ec < sc {
		sc, ec = ec, sc
	}
	if er < sr {
		sr, er = er, sr
	}
	return CellRange{StartCol: sc, StartRow: sr, EndCol: ec, EndRow: er}, nil
}

// String 返回 "A1:D10" 形式的引用
func (r CellRange) String() string {
	start, _ := excelize.CoordinatesToCellName(r.StartCol, r.StartRow)
	end, _ := excelize.CoordinatesToCellName(r.EndCol, r.EndRow)
	return start + ":" + end
}

// Rows 区域包含的行数
func (r CellRange) Rows() int { return r.EndRow - r.StartRow + 1 }

// Cols 区域包含的列数
func (r CellRange) Cols() int { return r.EndCol - r.StartCol + 1 }

func (r CellRange) Contains(col, row int) bool {
	return col >= r.StartCol && col <= r.EndCol && row >= r.StartRow && row <= r.EndRow
}

func (r CellRange) Overlaps(o CellRange) bool {
	return r.StartCol <= o.EndCol && o.StartCol <= r.EndCol &&
		r.StartRow <= o.EndRow && o.StartRow <= r.EndRow
}

// withPlaceholder 返回至少包含表头下一行的区域，excelize 的表格定义至少需要两行
func (r CellRange) withPlaceholder() CellRange {
	if r.EndRow <= r.StartRow {
		r.EndRow = r.StartRow + 1
	}
	return r
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// HexToRGBA 将十六进制颜色转换为 color.RGBA
func HexToRGBA(hex string) (color.RGBA, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 8 {
		// ARGB，忽略透明度
		hex = hex[2:]
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color: %s", hex)
	}

	r, err := strconv.ParseUint(hex[0:2], 16, 8)
	if err != nil {
		return color.RGBA{}, err
	}
	g, err := strconv.ParseUint(hex[2:4], 16, 8)
	if err != nil {
		return color.RGBA{}, err
	}
	b, err := strconv.ParseUint(hex[4:6], 16, 8)
	if err != nil {
		return color.RGBA{}, err
	}

	return color.RGBA{
		R: uint8(r),
		G: uint8(g),
		B: uint8(b),
		A: 255, // 默认不透明
	}, nil
}
