package sheetstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Workbook 一个打开的工作簿。整个文件是持久化的最小单位，保存时整体重写。
// Workbook 不是并发安全的，同一时间只允许一个写入者。
type Workbook struct {
	path   string
	file   *excelize.File
	logger *zap.Logger
	reg    *registry
	// 新建工作簿时自带的默认工作表，首次创建真实工作表后如仍为空则删除
	defaultSheet string
	closed       bool
}

// Open 打开已存在的工作簿并加载其中的表格定义
func Open(path string, logger *zap.Logger) (*Workbook, error) {
	logger = orNop(logger)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrWorkbookNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s 是目录", ErrIOFailure, path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptFormat, path, err)
	}

	reg, err := loadRegistry(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	logger.Debug("打开工作簿", zap.String("path", path), zap.Strings("sheets", f.GetSheetList()), zap.Int("tables", len(reg.entries)))
	return &Workbook{
		path:   path,
		file:   f,
		logger: logger,
		reg:    reg,
	}, nil
}

// Create 创建一个仅存在于内存中的工作簿
func Create(logger *zap.Logger) *Workbook {
	f := excelize.NewFile()
	return &Workbook{
		file:         f,
		logger:       orNop(logger),
		reg:          &registry{},
		defaultSheet: f.GetSheetName(0),
	}
}

// OpenOrCreate 路径存在时打开，否则创建新的内存工作簿（保存时写入 path）
func OpenOrCreate(path string, logger *zap.Logger) (*Workbook, error) {
	w, err := Open(path, logger)
	if errors.Is(err, ErrWorkbookNotFound) {
		w = Create(logger)
		w.path = path
		w.logger.Debug("工作簿不存在，新建", zap.String("path", path))
		return w, nil
	}
	return w, err
}

// Path 返回工作簿路径，未保存过的新工作簿返回空串
func (w *Workbook) Path() string { return w.path }

// SheetList 返回工作表列表
func (w *Workbook) SheetList() []string {
	return w.file.GetSheetList()
}

// Save 将工作簿写入 path（为空时使用打开时的路径）。
// 先写入同目录下的临时文件再重命名覆盖，写入失败时原文件保持不变。
func (w *Workbook) Save(path string) error {
	if w.closed {
		return fmt.Errorf("%w: 工作簿已关闭", ErrIOFailure)
	}
	if path == "" {
		path = w.path
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: 未指定保存路径", ErrIOFailure)
	}

	if w.State() == StateCorrupted {
		if _, err := w.Repair(); err != nil {
			return newTableError("", "save", err)
		}
	}
	if err := w.reg.flush(w.file); err != nil {
		return newTableError("", "save", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: 创建目录 %s: %v", ErrIOFailure, dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := w.file.WriteTo(tmp); err != nil {
		cleanup()
		return fmt.Errorf("%w: 写入 %s: %v", ErrIOFailure, path, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	w.path = path
	w.logger.Info("保存工作簿", zap.String("path", path), zap.Int("tables", len(w.reg.entries)))
	return nil
}

// Close 关闭工作簿，可重复调用
func (w *Workbook) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// resolveSheet 大小写不敏感地查找工作表，返回实际名称
func (w *Workbook) resolveSheet(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, s := range w.file.GetSheetList() {
		if strings.EqualFold(s, name) {
			return s, true
		}
	}
	return "", false
}

// ensureSheet 返回已存在的工作表或新建一个
func (w *Workbook) ensureSheet(name string) (string, error) {
	if s, ok := w.resolveSheet(name); ok {
		return s, nil
	}
	idx, err := w.file.NewSheet(name)
	if err != nil {
		return "", fmt.Errorf("创建工作表 %s: %w", name, err)
	}
	w.logger.Info("创建工作表", zap.String("sheet", name))

	if def := w.defaultSheet; def != "" && !strings.EqualFold(def, name) {
		w.defaultSheet = ""
		if sh, err := w.loadSheet(def); err == nil && sh.IsEmpty() && !w.reg.sheetHasTables(def) {
			if err := w.file.DeleteSheet(def); err == nil {
				w.logger.Debug("删除空的默认工作表", zap.String("sheet", def))
				if i, err := w.file.GetSheetIndex(name); err == nil && i >= 0 {
					idx = i
				}
			}
		}
	}
	w.file.SetActiveSheet(idx)
	return name, nil
}
