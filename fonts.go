package sheetstore

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const (
	DefaultFontSize = 11.0 // Excel默认字体大小
	DefaultDPI      = 96
)

var (
	defaultFont  *opentype.Font
	fontErr      error
	fontInitOnce sync.Once
)

func loadDefaultFont() (*opentype.Font, error) {
	fontInitOnce.Do(func() {
		defaultFont, fontErr = opentype.Parse(goregular.TTF)
	})
	return defaultFont, fontErr
}

// LoadDefaultFontWithSize 加载默认字体
func LoadDefaultFontWithSize(size float64) (font.Face, error) {
	f, err := loadDefaultFont()
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultFontSize
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     DefaultDPI,
		Hinting: font.HintingFull,
	})
}
