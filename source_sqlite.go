package sheetstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteSource 从 SQLite 考勤日志库的一张表读取记录，列名与 schema 列名对应（大小写不敏感）
type SQLiteSource struct {
	db     *sql.DB
	table  string
	kind   RecordKind
	owned  bool
	logger *zap.Logger
}

// OpenSQLiteSource 打开 path 处的数据库，Close 时一并关闭
func OpenSQLiteSource(path, table string, kind RecordKind, logger *zap.Logger) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	s := NewSQLiteSource(db, table, kind, logger)
	s.owned = true
	return s, nil
}

// NewSQLiteSource 使用调用方持有的连接
func NewSQLiteSource(db *sql.DB, table string, kind RecordKind, logger *zap.Logger) *SQLiteSource {
	return &SQLiteSource{db: db, table: table, kind: kind, logger: orNop(logger)}
}

func (s *SQLiteSource) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteSource) GetRecords(ctx context.Context, rng DateRange) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT * FROM `+quoteIdent(s.table))
	if err != nil {
		return nil, fmt.Errorf("查询 %s: %w", s.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = canonicalHeader(c)
	}

	var data [][]string
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make([]string, len(cols))
		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			}
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	records, err := recordsFromRows(s.kind, header, data)
	if err != nil {
		return nil, fmt.Errorf("读取 %s: %w", s.table, err)
	}
	s.logger.Debug("读取 sqlite 记录", zap.String("table", s.table), zap.Int("records", len(records)))
	return filterRecords(records, rng), nil
}

func (s *SQLiteSource) GetRecordCount(ctx context.Context, rng DateRange) (int, error) {
	records, err := s.GetRecords(ctx, rng)
	return len(records), err
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
