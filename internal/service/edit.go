package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"directory-agent/internal/lock"
	"directory-agent/internal/metrics"
	"directory-agent/internal/model"
	"directory-agent/internal/service/executor"
)

// MsgHistoryUnavailable 对话文本为空时的固定提示，此时不调用分类器
const MsgHistoryUnavailable = "Não foi possível recuperar o histórico da conversa."

// Reconciler 对话整理（由 conversation.Reconciler 实现）
type Reconciler interface {
	Reconcile(ctx context.Context, sessionID, liveText string) string
}

// InstructionResolver 指令解析（由 llm.Resolver 实现）
type InstructionResolver interface {
	Resolve(ctx context.Context, transcript, scopingKey string) (model.Instruction, error)
}

// ActionExecutor 指令执行（由 executor.Executor 实现）
type ActionExecutor interface {
	Execute(ctx context.Context, in model.Instruction, sess model.SessionContext) (model.ActionResult, error)
}

// EditService 编排：整理对话 -> 分类为指令 -> 执行动作
type EditService struct {
	reconciler Reconciler
	resolver   InstructionResolver
	executor   ActionExecutor
	locker     lock.Locker
}

// NewEditService 创建编辑编排服务；locker 为 nil 时不加锁
func NewEditService(reconciler Reconciler, resolver InstructionResolver, exec ActionExecutor, locker lock.Locker) *EditService {
	if locker == nil {
		locker = lock.Noop{}
	}
	return &EditService{
		reconciler: reconciler,
		resolver:   resolver,
		executor:   exec,
		locker:     locker,
	}
}

// Process 处理一次编辑请求。各阶段的失败都在本阶段转换为用户可读的提示，
// 因此总是返回可直接响应 200 的结果。
func (s *EditService) Process(ctx context.Context, req model.WebhookRequest) model.EditResponse {
	sess := req.Session()
	logger := zerolog.Ctx(ctx).With().Str("session_id", sess.SessionID).Logger()
	ctx = logger.WithContext(ctx)

	release, err := s.locker.Acquire(ctx, sess.SessionID)
	switch {
	case errors.Is(err, model.ErrSessionBusy):
		logger.Warn().Msg("concurrent edit for session rejected")
		return failure(executor.FailureMessage(err))
	case err != nil:
		// 锁服务不可用时不阻塞编辑
		logger.Error().Err(err).Msg("session lock unavailable, continuing without lock")
	default:
		defer release()
	}

	// 1. 合并历史与实时消息
	transcript := s.reconciler.Reconcile(ctx, sess.SessionID, req.Input.Text)
	if transcript == "" {
		metrics.EmptyTranscripts.Inc()
		logger.Warn().Msg("empty transcript, classifier skipped")
		return failure(MsgHistoryUnavailable)
	}

	// 2. 分类；失败时指令为 unknown，由执行器给出"无法处理"提示
	in, err := s.resolver.Resolve(ctx, transcript, sess.UserPhone)
	if err != nil {
		logger.Warn().Err(err).Msg("instruction resolution failed")
	}

	// 3. 执行
	res, err := s.executor.Execute(ctx, in, sess)
	if err != nil {
		return failure(res.Message)
	}
	return model.EditResponse{
		Output:  model.EditOutput{LiveInstructions: res.Message},
		Context: model.NewResponseContext(res.SessionPatch),
	}
}

func failure(msg string) model.EditResponse {
	return model.EditResponse{
		Output: model.EditOutput{
			LiveInstructions: msg,
			Responses:        model.TextResponse(msg),
		},
	}
}
