package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"directory-agent/internal/model"
)

// Config 会话历史服务配置
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client 会话历史客户端：按 session_id 查询有序消息日志
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient 创建历史客户端
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// logEntry 历史服务返回的单条日志，event 区分用户发来与智能体发出的消息
type logEntry struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
	Responses []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"responses"`
}

type messagesResp struct {
	Messages []logEntry `json:"messages"`
}

// checkHTTPStatus 读取 body 并检查 HTTP 状态码；非 2xx 时直接返回错误，不解析 JSON
func (c *Client) checkHTTPStatus(resp *http.Response, apiName string) ([]byte, error) {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", apiName, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: http status %d, body: %.200s", apiName, resp.StatusCode, string(b))
	}
	return b, nil
}

// Fetch 拉取会话的消息日志，按时间顺序返回
// API: GET {base_url}/sessions/{session_id}/messages
func (c *Client) Fetch(ctx context.Context, sessionID string) ([]model.Message, error) {
	if c.cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: history base url not configured", model.ErrIntegration)
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/sessions/" + url.PathEscape(sessionID) + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: history fetch: %v", model.ErrIntegration, err)
	}
	b, err := c.checkHTTPStatus(resp, "history fetch")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrIntegration, err)
	}
	var result messagesResp
	if err := json.Unmarshal(b, &result); err != nil {
		return nil, fmt.Errorf("%w: history parse response: %v", model.ErrIntegration, err)
	}
	return toMessages(result.Messages), nil
}

func toMessages(entries []logEntry) []model.Message {
	out := make([]model.Message, 0, len(entries))
	allTimed := true
	for _, e := range entries {
		var msg model.Message
		switch strings.ToLower(e.Event) {
		case "received", "message_received":
			msg.Origin = model.OriginUser
			msg.Fragments = []string{e.Text}
		case "sent", "message_sent":
			msg.Origin = model.OriginAgent
			if e.Text != "" {
				msg.Fragments = append(msg.Fragments, e.Text)
			}
			for _, r := range e.Responses {
				if r.Type == "" || r.Type == "text" {
					msg.Fragments = append(msg.Fragments, r.Text)
				}
			}
		default:
			continue
		}
		if ts, err := time.Parse(time.RFC3339Nano, e.Timestamp); err == nil {
			msg.EmittedAt = ts
		} else {
			allTimed = false
		}
		out = append(out, msg)
	}
	if allTimed {
		sort.SliceStable(out, func(i, j int) bool { return out[i].EmittedAt.Before(out[j].EmittedAt) })
	}
	return out
}
