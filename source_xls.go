package sheetstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/extrame/xls"
	"go.uber.org/zap"
)

// 考勤机导出文件中常见的列名
var headerAliases = map[string]string{
	"no.":          "ID",
	"userid":       "ID",
	"user id":      "ID",
	"enrollnumber": "ID",
	"enroll no":    "ID",
	"verifymode":   "Verify",
	"verify mode":  "Verify",
	"verify type":  "Verify",
	"id number":    "IDNumber",
	"dept":         "Department",
	"gender":       "Sex",
}

func canonicalHeader(h string) string {
	h = strings.TrimSpace(h)
	if alias, ok := headerAliases[strings.ToLower(h)]; ok {
		return alias
	}
	return h
}

// XLSSource 读取旧版 .xls 考勤导出文件，文件只含一个工作表，第一行为表头
type XLSSource struct {
	Path    string
	Kind    RecordKind
	Charset string
	logger  *zap.Logger
}

func NewXLSSource(path string, kind RecordKind, logger *zap.Logger) *XLSSource {
	return &XLSSource{Path: path, Kind: kind, Charset: "utf-8", logger: orNop(logger)}
}

func (s *XLSSource) GetRecords(_ context.Context, rng DateRange) ([]Record, error) {
	rows, err := s.readRows()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = canonicalHeader(h)
	}
	records, err := recordsFromRows(s.Kind, header, rows[1:])
	if err != nil {
		return nil, fmt.Errorf("读取 %s: %w", s.Path, err)
	}
	s.logger.Debug("读取 xls 记录", zap.String("path", s.Path), zap.Int("records", len(records)))
	return filterRecords(records, rng), nil
}

func (s *XLSSource) GetRecordCount(ctx context.Context, rng DateRange) (int, error) {
	records, err := s.GetRecords(ctx, rng)
	return len(records), err
}

// 单个考勤导出文件的行数上限
const maxXLSRows = 100000

func (s *XLSSource) readRows() ([][]string, error) {
	charset := s.Charset
	if charset == "" {
		charset = "utf-8"
	}
	// xls.Open 不会关闭文件句柄，先整体读入内存
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: 打开 %s: %v", ErrIOFailure, s.Path, err)
	}
	wb, err := xls.OpenReader(bytes.NewReader(data), charset)
	if err != nil {
		return nil, fmt.Errorf("%w: 解析 %s: %v", ErrCorruptFormat, s.Path, err)
	}
	if wb == nil {
		return nil, fmt.Errorf("%w: %s 缺少 Workbook 数据流", ErrCorruptFormat, s.Path)
	}
	switch n := wb.NumSheets(); {
	case n == 0:
		return nil, fmt.Errorf("%w: %s 没有工作表", ErrCorruptFormat, s.Path)
	case n > 1:
		return nil, fmt.Errorf("%s 包含 %d 个工作表，考勤导出文件只能有一个", s.Path, n)
	}
	// ReadAllCells 对缺失的行返回 nil，不会像 Row(i) 那样解引用空指针
	return wb.ReadAllCells(maxXLSRows), nil
}
