package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"directory-agent/internal/metrics"
	"directory-agent/internal/model"
)

// Classifier 把对话文本映射为 JSON 指令文本。调用方只依赖这一个接口，
// 模型供应商或提示词的替换不影响执行逻辑。
type Classifier interface {
	Classify(ctx context.Context, transcript, scopingKey string) (string, error)
}

// Resolver 调用分类器并把输出解析为结构化指令
type Resolver struct {
	classifier Classifier
}

// NewResolver 创建指令解析器
func NewResolver(classifier Classifier) *Resolver {
	return &Resolver{classifier: classifier}
}

// Resolve 对非空 transcript 调用一次分类器。
// 分类器失败返回 ErrClassifierUnavailable，输出无法解析返回 ErrMalformedInstruction，
// 两种情况下返回的指令 Action 都是 ActionUnknown。
func (r *Resolver) Resolve(ctx context.Context, transcript, scopingKey string) (model.Instruction, error) {
	unknown := model.Instruction{Action: model.ActionUnknown}
	if strings.TrimSpace(transcript) == "" {
		return unknown, model.ErrEmptyTranscript
	}
	logger := zerolog.Ctx(ctx)

	raw, err := r.classifier.Classify(ctx, transcript, scopingKey)
	if err != nil {
		metrics.ClassifierCalls.WithLabelValues("unavailable").Inc()
		logger.Error().Err(err).Msg("classifier call failed")
		if errors.Is(err, context.Canceled) {
			return unknown, err
		}
		return unknown, fmt.Errorf("%w: %v", model.ErrClassifierUnavailable, err)
	}

	in, err := model.ParseInstruction([]byte(ExtractJSON(raw)))
	if err != nil {
		metrics.ClassifierCalls.WithLabelValues("malformed").Inc()
		logger.Warn().Err(err).Str("raw", truncate(raw, 200)).Msg("classifier output is not a JSON object")
		return unknown, err
	}
	metrics.ClassifierCalls.WithLabelValues("ok").Inc()
	logger.Info().Str("action", string(in.Action)).Str("raw_action", in.RawAction).Msg("instruction resolved")
	return in, nil
}

// ExtractJSON 从回复中提取 JSON（大模型可能带 markdown 代码块）
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			return s[start : end+1]
		}
	}
	return s
}

// truncate 按字符截断，不会切开多字节字符
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
