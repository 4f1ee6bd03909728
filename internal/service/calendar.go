package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"directory-agent/internal/model"
	"directory-agent/internal/service/agenda"
)

const MsgAgendaUnavailable = "Desculpe, não foi possível consultar a agenda agora. Tente novamente em instantes."

// UpcomingLister 未来事件查询（由 agenda.Service 实现）
type UpcomingLister interface {
	Upcoming(ctx context.Context, scope string) ([]model.CalendarEvent, error)
	Location() *time.Location
}

// CalendarService 列出用户未来几天的日程
type CalendarService struct {
	agenda UpcomingLister
}

// NewCalendarService 创建日程查询服务
func NewCalendarService(agenda UpcomingLister) *CalendarService {
	return &CalendarService{agenda: agenda}
}

// List 日历取会话 calendar_id，其次 user_email；都为空返回 ErrBadRequest
func (s *CalendarService) List(ctx context.Context, req model.WebhookRequest) (model.LookupResponse, error) {
	sess := req.Session()
	scope := strings.TrimSpace(sess.CalendarScope)
	if scope == "" {
		scope = strings.TrimSpace(sess.UserEmail)
	}
	if scope == "" {
		return model.LookupResponse{}, fmt.Errorf("%w: user_email is required", model.ErrBadRequest)
	}

	events, err := s.agenda.Upcoming(ctx, scope)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("session_id", sess.SessionID).Str("calendar", scope).Msg("list agenda failed")
		return liveInstructions(map[string]string{"agenda": MsgAgendaUnavailable}, nil), nil
	}
	return liveInstructions(map[string]string{"agenda": agenda.FormatAgenda(events, s.agenda.Location())}, nil), nil
}
