package sheetstore

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Store 串起一次完整的导出：打开或创建工作簿、查找或创建表格、校验、upsert、保存。
// 每次调用都重新打开文件，不跨调用持有句柄。同一路径的并发调用需要调用方串行化。
type Store struct {
	cfg    Config
	logger *zap.Logger
}

func NewStore(cfg Config, logger *zap.Logger) *Store {
	return &Store{cfg: cfg, logger: orNop(logger)}
}

// Export 把 records 写入 path 中名为 table 的表格并保存。
// 失败时不写盘，磁盘上的文件保持不变。
func (s *Store) Export(path, table string, kind RecordKind, records []Record) (UpsertResult, error) {
	schema, err := SchemaFor(kind)
	if err != nil {
		return UpsertResult{}, err
	}
	if table == "" {
		table = s.cfg.TableName(kind)
	}

	wb, err := OpenOrCreate(path, s.logger)
	if err != nil {
		return UpsertResult{}, err
	}
	defer wb.Close()

	t, err := wb.FindTable(table)
	switch {
	case errors.Is(err, ErrTableNotFound):
		t, err = wb.CreateTable(s.cfg.SheetName(kind), table, schema)
		if err != nil {
			return UpsertResult{}, err
		}
	case err != nil:
		return UpsertResult{}, err
	default:
		res, err := Validate(t, schema)
		if err != nil {
			return UpsertResult{}, err
		}
		if !res.Conforms {
			return UpsertResult{}, res.Err(t.Name())
		}
	}

	result, err := wb.Upsert(t, schema, records)
	if err != nil {
		return result, err
	}
	if err := wb.Save(path); err != nil {
		return UpsertResult{}, err
	}
	return result, nil
}

// ExportFrom 从 src 读取 rng 内的记录后导出
func (s *Store) ExportFrom(ctx context.Context, src RecordSource, rng DateRange, path, table string, kind RecordKind) (UpsertResult, error) {
	records, err := src.GetRecords(ctx, rng)
	if err != nil {
		return UpsertResult{}, err
	}
	s.logger.Info("读取记录", zap.Int("records", len(records)), zap.String("kind", kind.String()))
	return s.Export(path, table, kind, records)
}

// Import 读回 path 中表格的全部记录
func (s *Store) Import(ctx context.Context, path, table string, kind RecordKind) ([]Record, error) {
	if table == "" {
		table = s.cfg.TableName(kind)
	}
	wb, err := Open(path, s.logger)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	return NewTableSource(wb, table, kind).GetRecords(ctx, DateRange{})
}
