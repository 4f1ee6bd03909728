package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"directory-agent/internal/model"
)

// Table 行存储：整表读取与单元格写入（由 Google Sheets 客户端实现）
type Table interface {
	ReadAll(ctx context.Context) ([][]string, error)
	WriteCell(ctx context.Context, row, col int, value string) error
}

// Store 用户目录适配层
type Store struct {
	table Table
}

// NewStore 创建用户目录
func NewStore(table Table) *Store {
	return &Store{table: table}
}

// ApplyFieldUpdate 读表 -> 定位行 -> 定位列 -> 写单元格。
// 单元格写入无并发控制，最后写入者获胜。
func (s *Store) ApplyFieldUpdate(ctx context.Context, field, newValue string, ident *model.Identifier, fallback model.SessionContext) (model.FieldUpdate, error) {
	rows, err := s.table.ReadAll(ctx)
	if err != nil {
		return model.FieldUpdate{}, fmt.Errorf("read directory: %w", err)
	}
	if len(rows) <= 1 {
		return model.FieldUpdate{}, model.ErrEmptyTable
	}
	row, ok := ResolveRow(rows, ident, fallback)
	if !ok {
		return model.FieldUpdate{}, fmt.Errorf("%w: no candidate identifier matched", model.ErrRecordNotFound)
	}
	headers := NormalizeHeaders(rows[0])
	col, ok := ResolveColumn(headers, field)
	if !ok {
		return model.FieldUpdate{}, fmt.Errorf("%w: %q", model.ErrFieldNotFound, field)
	}
	update := model.FieldUpdate{
		Row:      row,
		Col:      col,
		Column:   headers[col],
		OldValue: cell(rows, row, col),
		NewValue: newValue,
	}
	if err := s.table.WriteCell(ctx, row, col, newValue); err != nil {
		return model.FieldUpdate{}, fmt.Errorf("write directory cell: %w", err)
	}
	zerolog.Ctx(ctx).Info().
		Int("row", row).
		Str("column", update.Column).
		Msg("directory cell updated")
	return update, nil
}

// FindUser 按电话（或包含 @ 时按邮箱）查找用户
func (s *Store) FindUser(ctx context.Context, key string) (model.UserRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return model.UserRecord{}, fmt.Errorf("%w: empty lookup key", model.ErrBadRequest)
	}
	rows, err := s.table.ReadAll(ctx)
	if err != nil {
		return model.UserRecord{}, fmt.Errorf("read directory: %w", err)
	}
	ident := &model.Identifier{Key: "telefone", Value: key}
	if strings.Contains(key, "@") {
		ident.Key = "email"
	}
	row, ok := ResolveRow(rows, ident, model.SessionContext{})
	if !ok {
		return model.UserRecord{}, fmt.Errorf("%w: %s", model.ErrRecordNotFound, ident.Key)
	}
	return recordAt(rows, row), nil
}

func recordAt(rows [][]string, row int) model.UserRecord {
	headers := NormalizeHeaders(rows[0])
	rec := model.UserRecord{Row: row, Fields: make(map[string]string, len(headers))}
	for i, h := range headers {
		if h != "" {
			rec.Fields[h] = strings.TrimSpace(cell(rows, row, i))
		}
	}
	if col, ok := ResolveColumn(headers, "nome"); ok {
		rec.Name = strings.TrimSpace(cell(rows, row, col))
	}
	if col, ok := ResolveColumn(headers, "telefone"); ok {
		rec.Phone = strings.TrimSpace(cell(rows, row, col))
	}
	if col, ok := ResolveColumn(headers, "email"); ok {
		rec.Email = strings.TrimSpace(cell(rows, row, col))
	}
	return rec
}
