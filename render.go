package sheetstore

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
)

// TableRenderer 把表格渲染成 PNG 预览，表头颜色由表格样式决定
type TableRenderer struct {
	logger   *zap.Logger
	FontSize float64
	Padding  float64
	MinWidth float64
}

func NewTableRenderer(logger *zap.Logger) *TableRenderer {
	return &TableRenderer{
		logger:   orNop(logger),
		FontSize: DefaultFontSize,
		Padding:  6,
		MinWidth: 48,
	}
}

var (
	gridColor   = color.RGBA{R: 0xD9, G: 0xD9, B: 0xD9, A: 0xFF}
	stripeColor = color.RGBA{R: 0xF2, G: 0xF2, B: 0xF2, A: 0xFF}
	textColor   = color.RGBA{A: 0xFF}
)

// headerColorFor 按样式名找到对应 schema 的表头颜色
func headerColorFor(styleName string) color.RGBA {
	for _, s := range []Schema{AttendanceSchema, EmployeeSchema} {
		if strings.EqualFold(s.StyleName, styleName) {
			if c, err := HexToRGBA(s.HeaderColor); err == nil {
				return c
			}
		}
	}
	return color.RGBA{R: 0x59, G: 0x59, B: 0x59, A: 0xFF}
}

// Render 渲染表头与全部数据行
func (r *TableRenderer) Render(t *Table) (image.Image, error) {
	grid, err := t.Grid()
	if err != nil {
		return nil, fmt.Errorf("读取表格 %s: %w", t.Name(), err)
	}
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, fmt.Errorf("表格 %s 为空", t.Name())
	}

	face, err := LoadDefaultFontWithSize(r.FontSize)
	if err != nil {
		return nil, fmt.Errorf("加载字体失败: %w", err)
	}

	// 先用一个小画布测量文本
	measure := gg.NewContext(1, 1)
	measure.SetFontFace(face)
	_, fontHeight := measure.MeasureString("Ag")
	rowHeight := fontHeight + 2*r.Padding

	cols := len(grid[0])
	colWidths := make([]float64, cols)
	for _, line := range grid {
		for c, cell := range line {
			w, _ := measure.MeasureString(cell.Value)
			w += 2 * r.Padding
			if w < r.MinWidth {
				w = r.MinWidth
			}
			if w > colWidths[c] {
				colWidths[c] = w
			}
		}
	}

	imgWidth := 1.0
	for _, w := range colWidths {
		imgWidth += w
	}
	imgHeight := rowHeight*float64(len(grid)) + 1

	dc := gg.NewContext(int(imgWidth), int(imgHeight))
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(face)

	headerColor := headerColorFor(t.StyleName())
	y := 0.0
	for r0, line := range grid {
		x := 0.0
		for c, cell := range line {
			width := colWidths[c]
			switch {
			case r0 == 0:
				dc.SetColor(headerColor)
				dc.DrawRectangle(x, y, width, rowHeight)
				dc.Fill()
			case r0%2 == 0:
				dc.SetColor(stripeColor)
				dc.DrawRectangle(x, y, width, rowHeight)
				dc.Fill()
			}

			dc.SetColor(gridColor)
			dc.SetLineWidth(1)
			dc.DrawRectangle(x, y, width, rowHeight)
			dc.Stroke()

			if !cell.IsEmpty() {
				if r0 == 0 {
					dc.SetRGB(1, 1, 1)
				} else {
					dc.SetColor(textColor)
				}
				// 与 Excel 常规对齐一致：数字右对齐，文本左对齐
				if r0 > 0 && cell.IsNumeric() {
					dc.DrawStringAnchored(cell.Value, x+width-r.Padding, y+rowHeight/2, 1, 0.35)
				} else {
					dc.DrawStringAnchored(cell.Value, x+r.Padding, y+rowHeight/2, 0, 0.35)
				}
			}
			x += width
		}
		y += rowHeight
	}

	r.logger.Debug("渲染表格", zap.String("table", t.Name()), zap.Int("rows", len(grid)), zap.Int("cols", cols), zap.Int("width", int(imgWidth)), zap.Int("height", int(imgHeight)))
	return dc.Image(), nil
}

// RenderPNG 渲染并保存为 PNG，自动创建输出目录
func (r *TableRenderer) RenderPNG(t *Table, path string) error {
	img, err := r.Render(t)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("保存 PNG 失败: %w", err)
	}
	r.logger.Info("已生成快照", zap.String("table", t.Name()), zap.String("path", path))
	return nil
}
