package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"directory-agent/internal/model"
)

// Config Google Sheets 客户端配置
type Config struct {
	SpreadsheetID   string
	Range           string // A1 表示法，如 Usuarios!A:Z；表头为区域的第一行
	CredentialsFile string
	Timeout         time.Duration
}

// Client 用户目录表格客户端，实现 directory.Table
type Client struct {
	cfg Config
	svc *gsheets.Service
}

// NewClient 创建 Sheets 客户端；CredentialsFile 为空时使用默认凭据
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets new service: %w", err)
	}
	return &Client{cfg: cfg, svc: svc}, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// ReadAll 读取整个区域，第 0 行为表头
func (c *Client) ReadAll(ctx context.Context) ([][]string, error) {
	if c.cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("%w: %w", model.ErrIntegration, model.ErrTableNotConfigured)
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	resp, err := c.svc.Spreadsheets.Values.Get(c.cfg.SpreadsheetID, c.cfg.Range).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: sheets get %s: %v", model.ErrIntegration, c.cfg.Range, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		rows[i] = make([]string, len(r))
		for j, v := range r {
			rows[i][j] = fmt.Sprint(v)
		}
	}
	return rows, nil
}

// WriteCell 单元格写入，无批量、无乐观锁
func (c *Client) WriteCell(ctx context.Context, row, col int, value string) error {
	if c.cfg.SpreadsheetID == "" {
		return fmt.Errorf("%w: %w", model.ErrIntegration, model.ErrTableNotConfigured)
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	cellRange := CellRange(c.cfg.Range, row, col)
	body := &gsheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := c.svc.Spreadsheets.Values.Update(c.cfg.SpreadsheetID, cellRange, body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%w: sheets update %s: %v", model.ErrIntegration, cellRange, err)
	}
	return nil
}

// CellRange 将相对于区域左上角的 0 基行列下标转为 A1 表示法。
// ReadAll 返回的下标从区域起点算起，如 Usuarios!B3:Z 的 (0,0) 是 B3。
func CellRange(tableRange string, row, col int) string {
	prefix, originRow, originCol := rangeOrigin(tableRange)
	return fmt.Sprintf("%s%s%d", prefix, ColumnLetter(originCol+col), originRow+row+1)
}

// rangeOrigin 解析区域的工作表前缀与左上角（0 基）；只有表名时起点为 A1
func rangeOrigin(tableRange string) (prefix string, row, col int) {
	ref := tableRange
	if i := strings.LastIndex(tableRange, "!"); i >= 0 {
		prefix, ref = tableRange[:i+1], tableRange[i+1:]
	} else if !strings.Contains(tableRange, ":") {
		// 没有 ! 也没有 : 时视为工作表名
		if tableRange == "" {
			return "", 0, 0
		}
		return tableRange + "!", 0, 0
	}
	start := ref
	if i := strings.Index(ref, ":"); i >= 0 {
		start = ref[:i]
	}
	start = strings.ToUpper(strings.ReplaceAll(start, "$", ""))

	i := 0
	for i < len(start) && start[i] >= 'A' && start[i] <= 'Z' {
		col = col*26 + int(start[i]-'A'+1)
		i++
	}
	letters := i
	for i < len(start) && start[i] >= '0' && start[i] <= '9' {
		row = row*10 + int(start[i]-'0')
		i++
	}
	if i != len(start) {
		return prefix, 0, 0
	}
	if letters > 0 {
		col--
	}
	if row > 0 {
		row--
	}
	return prefix, row, col
}

// ColumnLetter 0 -> A, 25 -> Z, 26 -> AA
func ColumnLetter(col int) string {
	var b []byte
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}
