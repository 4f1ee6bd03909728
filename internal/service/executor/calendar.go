package executor

import (
	"context"
	"fmt"
	"time"

	"directory-agent/internal/model"
	"directory-agent/internal/service/agenda"
)

// Agenda 日程服务（由 agenda.Service 实现）
type Agenda interface {
	Create(ctx context.Context, scope string, p model.EventPayload) (model.CalendarEvent, error)
	Update(ctx context.Context, scope string, p model.EventPayload) (model.CalendarEvent, error)
	Delete(ctx context.Context, scope string, p model.EventPayload) (model.CalendarEvent, error)
	Location() *time.Location
}

// 会话变量：本会话最近一次操作的事件
const sessionLastEventID = "last_event_id"

// CalendarExecutor 日历相关动作执行器
type CalendarExecutor struct {
	agenda Agenda
}

// NewCalendarExecutor 创建日历执行器
func NewCalendarExecutor(agenda Agenda) *CalendarExecutor {
	return &CalendarExecutor{agenda: agenda}
}

// ExecuteCreate 创建事件
func (e *CalendarExecutor) ExecuteCreate(ctx context.Context, in model.Instruction, sess model.SessionContext) (model.ActionResult, error) {
	scope := agenda.ResolveScope(in.Event.CalendarScope, sess)
	ev, err := e.agenda.Create(ctx, scope, in.Event)
	if err != nil {
		return model.ActionResult{}, err
	}
	return model.ActionResult{
		Message:      fmt.Sprintf("Compromisso criado: %s.", agenda.FormatEvent(ev, e.agenda.Location())),
		SessionPatch: map[string]string{sessionLastEventID: ev.ID},
	}, nil
}

// ExecuteUpdate 更新事件
func (e *CalendarExecutor) ExecuteUpdate(ctx context.Context, in model.Instruction, sess model.SessionContext) (model.ActionResult, error) {
	scope := agenda.ResolveScope(in.Event.CalendarScope, sess)
	ev, err := e.agenda.Update(ctx, scope, in.Event)
	if err != nil {
		return model.ActionResult{}, err
	}
	return model.ActionResult{
		Message:      fmt.Sprintf("Compromisso atualizado: %s.", agenda.FormatEvent(ev, e.agenda.Location())),
		SessionPatch: map[string]string{sessionLastEventID: ev.ID},
	}, nil
}

// ExecuteDelete 删除事件，并清空会话中记录的事件 id
func (e *CalendarExecutor) ExecuteDelete(ctx context.Context, in model.Instruction, sess model.SessionContext) (model.ActionResult, error) {
	scope := agenda.ResolveScope(in.Event.CalendarScope, sess)
	ev, err := e.agenda.Delete(ctx, scope, in.Event)
	if err != nil {
		return model.ActionResult{}, err
	}
	name := ev.Summary
	if name == "" {
		name = ev.ID
	}
	res := model.ActionResult{Message: fmt.Sprintf("Compromisso \"%s\" removido.", name)}
	if ev.ID == sess.LastEventID {
		res.SessionPatch = map[string]string{sessionLastEventID: ""}
	}
	return res, nil
}
