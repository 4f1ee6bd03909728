package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"directory-agent/internal/metrics"
	"directory-agent/internal/model"
)

// MsgEditFailed 动作失败时播报给用户的统一前缀
const MsgEditFailed = "Não foi possível processar a edição solicitada"

// Executor 根据指令的 action 分发到表格或日历执行器。无状态，每个请求独立。
type Executor struct {
	sheet    *SheetExecutor
	calendar *CalendarExecutor
}

// NewExecutor 组装各存储的执行器
func NewExecutor(directory Directory, agenda Agenda) *Executor {
	return &Executor{
		sheet:    NewSheetExecutor(directory),
		calendar: NewCalendarExecutor(agenda),
	}
}

// Execute 执行单条指令。所有动作级错误都在这里转换为面向用户的提示文本，
// 返回的 error 仅用于日志与指标，调用方始终以 200 响应。
func (e *Executor) Execute(ctx context.Context, in model.Instruction, sess model.SessionContext) (model.ActionResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("action", string(in.Action)).Logger()

	res, err := e.dispatch(ctx, in, sess)
	if err != nil {
		metrics.EditActions.WithLabelValues(string(in.Action), outcome(err)).Inc()
		if isUserError(err) {
			logger.Warn().Err(err).Msg("edit action rejected")
		} else {
			logger.Error().Err(err).Str("session_id", sess.SessionID).Msg("edit action failed")
		}
		return model.ActionResult{Message: FailureMessage(err)}, err
	}
	metrics.EditActions.WithLabelValues(string(in.Action), "ok").Inc()
	logger.Info().Msg("edit action executed")
	return res, nil
}

func (e *Executor) dispatch(ctx context.Context, in model.Instruction, sess model.SessionContext) (model.ActionResult, error) {
	// update/delete 既无 id 也无标题时，沿用本会话上次操作的事件
	if (in.Action == model.ActionUpdateEvent || in.Action == model.ActionDeleteEvent) &&
		in.Event.EventID == "" && in.Event.Summary == "" {
		in.Event.EventID = sess.LastEventID
	}
	if err := in.Validate(); err != nil {
		return model.ActionResult{}, err
	}
	switch in.Action {
	case model.ActionUpdatePhone, model.ActionUpdateEmail, model.ActionUpdateName, model.ActionUpdateSheetField:
		return e.sheet.Execute(ctx, in, sess)
	case model.ActionCreateEvent:
		return e.calendar.ExecuteCreate(ctx, in, sess)
	case model.ActionUpdateEvent:
		return e.calendar.ExecuteUpdate(ctx, in, sess)
	case model.ActionDeleteEvent:
		return e.calendar.ExecuteDelete(ctx, in, sess)
	default:
		return model.ActionResult{}, fmt.Errorf("%w: %s", model.ErrActionNotSupport, in.Action)
	}
}

// FailureMessage 统一失败提示：固定前缀 + 不含内部细节的简短原因
func FailureMessage(err error) string {
	return fmt.Sprintf("%s: %s.", MsgEditFailed, model.UserDetail(err))
}

// isUserError 由用户输入或数据导致的失败，不属于集成故障
func isUserError(err error) bool {
	for _, target := range []error{
		model.ErrBadInstruction, model.ErrActionNotSupport, model.ErrMalformedInstruction,
		model.ErrRecordNotFound, model.ErrFieldNotFound, model.ErrEventNotFound, model.ErrEmptyTable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func outcome(err error) string {
	switch {
	case errors.Is(err, model.ErrActionNotSupport):
		return "unsupported"
	case isUserError(err):
		return "rejected"
	default:
		return "failed"
	}
}
