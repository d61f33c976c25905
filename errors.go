package sheetstore

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIOFailure 文件无法打开、创建或保存
	ErrIOFailure = errors.New("工作簿读写失败")
	// ErrCorruptFormat 文件存在但不是合法的工作簿
	ErrCorruptFormat = errors.New("工作簿格式损坏")
	// ErrWorkbookNotFound 工作簿路径不存在
	ErrWorkbookNotFound = errors.New("工作簿不存在")
	// ErrTableNotFound 请求的表格不存在
	ErrTableNotFound = errors.New("表格不存在")
	// ErrSchemaMismatch 表头列与期望的 schema 不一致
	ErrSchemaMismatch = errors.New("表头与 schema 不一致")
	// ErrRegistryCorruption 表格元数据不一致且无法修复
	ErrRegistryCorruption = errors.New("表格元数据损坏")

	ErrInvalidTableName = errors.New("非法的表格名称")
	ErrAnchorOccupied   = errors.New("锚点单元格已有数据，请显式指定锚点")
	ErrRangeClaimed     = errors.New("目标区域已属于其他表格")
	ErrRowOccupied      = errors.New("表格下方的追加行已有数据")
	ErrKindMismatch     = errors.New("记录类型与表格 schema 不匹配")
)

// TableError 记录发生错误的表格与操作
type TableError struct {
	Table string
	Op    string // "create", "upsert", "validate", "repair", "save"
	Err   error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("表格 %q %s 失败: %v", e.Table, e.Op, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

func newTableError(table, op string, err error) *TableError {
	return &TableError{Table: table, Op: op, Err: err}
}

// SchemaMismatchError 描述表头缺失与多余的列
type SchemaMismatchError struct {
	Table   string
	Missing []string
	Extra   []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("表格 %q 表头与 schema 不一致: 缺少 [%s], 多余 [%s]",
		e.Table, strings.Join(e.Missing, ", "), strings.Join(e.Extra, ", "))
}

func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}
