package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"directory-agent/internal/metrics"
	"directory-agent/internal/model"
)

// HistoryStore 会话历史：按 session_id 返回有序消息
type HistoryStore interface {
	Fetch(ctx context.Context, sessionID string) ([]model.Message, error)
}

// Reconciler 合并持久化的会话历史与本次请求的实时消息。
// 历史写入可能滞后于当前轮次，因此必要时把实时消息追加到末尾。
type Reconciler struct {
	history     HistoryStore
	settleDelay time.Duration
}

// NewReconciler settleDelay > 0 时在拉取历史前等待，给历史写入留出时间
func NewReconciler(history HistoryStore, settleDelay time.Duration) *Reconciler {
	return &Reconciler{history: history, settleDelay: settleDelay}
}

// Reconcile 返回 "U: ..." / "A: ..." 逐行拼接的对话文本。
// 拉取历史失败时记录日志并按空历史继续；结果为空时调用方不得调用分类器。
func (r *Reconciler) Reconcile(ctx context.Context, sessionID, liveText string) string {
	var messages []model.Message
	if sessionID != "" && r.history != nil {
		messages = r.fetch(ctx, sessionID)
	}
	lines := Flatten(messages)

	live := strings.TrimSpace(liveText)
	if live != "" {
		liveLine := userPrefix + live
		if len(lines) == 0 || lines[len(lines)-1] != liveLine {
			lines = append(lines, liveLine)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (r *Reconciler) fetch(ctx context.Context, sessionID string) []model.Message {
	logger := zerolog.Ctx(ctx)
	if r.settleDelay > 0 {
		select {
		case <-time.After(r.settleDelay):
		case <-ctx.Done():
			return nil
		}
	}
	messages, err := r.history.Fetch(ctx, sessionID)
	if err != nil {
		metrics.HistoryFetchFailures.Inc()
		logger.Warn().Err(err).Str("session_id", sessionID).Msg("history fetch failed, continuing with empty history")
		return nil
	}
	logger.Debug().Str("session_id", sessionID).Int("messages", len(messages)).Msg("history fetched")
	return messages
}

const (
	userPrefix  = "U: "
	agentPrefix = "A: "
)

// Flatten 把消息转成带角色前缀的行，丢弃没有文本的轮次
func Flatten(messages []model.Message) []string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		text := m.Text()
		if text == "" {
			continue
		}
		switch m.Origin {
		case model.OriginUser:
			lines = append(lines, userPrefix+text)
		case model.OriginAgent:
			lines = append(lines, agentPrefix+text)
		}
	}
	return lines
}
