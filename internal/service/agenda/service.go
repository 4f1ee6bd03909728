package agenda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"directory-agent/internal/model"
)

// Store 事件存储（由 Google Calendar 客户端实现）；scope 为日历 ID
type Store interface {
	Insert(ctx context.Context, scope string, ev model.CalendarEvent) (model.CalendarEvent, error)
	List(ctx context.Context, scope string, q model.EventQuery) ([]model.CalendarEvent, error)
	Get(ctx context.Context, scope, eventID string) (model.CalendarEvent, error)
	Patch(ctx context.Context, scope, eventID string, p model.EventPatch) (model.CalendarEvent, error)
	Delete(ctx context.Context, scope, eventID string) error
}

// Config 日程服务配置
type Config struct {
	DefaultTimezone string
	LookaheadDays   int
	ListLimit       int
	SearchLimit     int
}

// Service 日程适配层：默认值、时间解析、按标题定位事件
type Service struct {
	store Store
	cfg   Config
	loc   *time.Location
	now   func() time.Time
}

// NewService 创建日程服务；时区无效时回退 UTC
func NewService(store Store, cfg Config) *Service {
	loc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		loc = time.UTC
		cfg.DefaultTimezone = "UTC"
	}
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = 7
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 10
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 50
	}
	return &Service{store: store, cfg: cfg, loc: loc, now: time.Now}
}

// Location 默认时区
func (s *Service) Location() *time.Location {
	return s.loc
}

// ResolveScope 日历优先级：指令显式指定 -> 会话日历 -> 用户邮箱 -> primary
func ResolveScope(explicit string, sess model.SessionContext) string {
	for _, s := range []string{explicit, sess.CalendarScope, sess.UserEmail} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return model.PrimaryCalendar
}

// location 指令时区优先，无效或为空时使用默认时区
func (s *Service) location(tz string) (*time.Location, string) {
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc, tz
		}
	}
	return s.loc, s.cfg.DefaultTimezone
}

// Create 创建事件，summary/start/end 必填
func (s *Service) Create(ctx context.Context, scope string, p model.EventPayload) (model.CalendarEvent, error) {
	if p.Summary == "" || p.Start == "" || p.End == "" {
		return model.CalendarEvent{}, fmt.Errorf("%w: summary, start and end are required", model.ErrBadInstruction)
	}
	loc, tz := s.location(p.Timezone)
	start, startAllDay, err := ParseTime(p.Start, loc)
	if err != nil {
		return model.CalendarEvent{}, err
	}
	end, endAllDay, err := ParseTime(p.End, loc)
	if err != nil {
		return model.CalendarEvent{}, err
	}
	allDay := startAllDay && endAllDay
	if allDay && !end.After(start) {
		// 全天事件的结束日期不包含在内
		end = start.AddDate(0, 0, 1)
	}
	if end.Before(start) {
		return model.CalendarEvent{}, fmt.Errorf("%w: end before start", model.ErrBadInstruction)
	}
	if scope == "" {
		scope = model.PrimaryCalendar
	}
	created, err := s.store.Insert(ctx, scope, model.CalendarEvent{
		Summary:     p.Summary,
		Description: p.Description,
		Location:    p.Location,
		Attendees:   p.Attendees,
		Start:       start,
		End:         end,
		AllDay:      allDay,
		Timezone:    tz,
	})
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("create event: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("calendar", scope).Str("event_id", created.ID).Msg("calendar event created")
	return created, nil
}

// Upcoming 未来 LookaheadDays 天内的事件
func (s *Service) Upcoming(ctx context.Context, scope string) ([]model.CalendarEvent, error) {
	now := s.now().In(s.loc)
	return s.List(ctx, scope, model.EventQuery{
		TimeMin: now,
		TimeMax: now.AddDate(0, 0, s.cfg.LookaheadDays),
		Limit:   s.cfg.ListLimit,
	})
}

// List 查询事件，按开始时间排序
func (s *Service) List(ctx context.Context, scope string, q model.EventQuery) ([]model.CalendarEvent, error) {
	if scope == "" {
		scope = model.PrimaryCalendar
	}
	if q.Limit <= 0 {
		q.Limit = s.cfg.ListLimit
	}
	events, err := s.store.List(ctx, scope, q)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// FindBySummary 在一天的窗口内按标题搜索，取第一条结果；多条匹配时不做消歧
func (s *Service) FindBySummary(ctx context.Context, scope string, p model.EventPayload) (model.CalendarEvent, error) {
	if p.Summary == "" {
		return model.CalendarEvent{}, fmt.Errorf("%w: summary is required to search", model.ErrBadInstruction)
	}
	loc, _ := s.location(p.Timezone)
	day := s.now()
	switch {
	case p.Date != "":
		t, _, err := ParseTime(p.Date, loc)
		if err != nil {
			return model.CalendarEvent{}, err
		}
		day = t
	case p.Start != "":
		t, _, err := ParseTime(p.Start, loc)
		if err != nil {
			return model.CalendarEvent{}, err
		}
		day = t
	}
	from, to := dayWindow(day, loc)
	events, err := s.List(ctx, scope, model.EventQuery{
		Text:    p.Summary,
		TimeMin: from,
		TimeMax: to,
		Limit:   s.cfg.SearchLimit,
	})
	if err != nil {
		return model.CalendarEvent{}, err
	}
	if len(events) == 0 {
		return model.CalendarEvent{}, fmt.Errorf("%w: %q on %s", model.ErrEventNotFound, p.Summary, from.Format(time.DateOnly))
	}
	if len(events) > 1 {
		zerolog.Ctx(ctx).Warn().Int("matches", len(events)).Str("summary", p.Summary).
			Msg("multiple events matched summary, using first")
	}
	return events[0], nil
}

// Update 部分更新；未给 event_id 时按标题定位。
// 先读取目标事件，只改开始时间时保持原时长，结束早于开始时拒绝。
func (s *Service) Update(ctx context.Context, scope string, p model.EventPayload) (model.CalendarEvent, error) {
	if scope == "" {
		scope = model.PrimaryCalendar
	}
	if !p.HasPatch() {
		return model.CalendarEvent{}, fmt.Errorf("%w: nothing to update", model.ErrBadInstruction)
	}
	var target model.CalendarEvent
	if p.EventID != "" {
		found, err := s.store.Get(ctx, scope, p.EventID)
		if err != nil {
			return model.CalendarEvent{}, fmt.Errorf("get event: %w", err)
		}
		target = found
	} else {
		found, err := s.FindBySummary(ctx, scope, p)
		if err != nil {
			return model.CalendarEvent{}, err
		}
		target = found
	}
	loc, tz := s.location(p.Timezone)
	patch := model.EventPatch{
		Summary:     p.NewSummary,
		Description: p.Description,
		Location:    p.Location,
		Attendees:   p.Attendees,
	}
	if p.Start != "" {
		t, _, err := ParseTime(p.Start, loc)
		if err != nil {
			return model.CalendarEvent{}, err
		}
		patch.Start = t
		patch.Timezone = tz
	}
	if p.End != "" {
		t, _, err := ParseTime(p.End, loc)
		if err != nil {
			return model.CalendarEvent{}, err
		}
		patch.End = t
		patch.Timezone = tz
	}
	// 只改开始时间时保持原时长
	if !patch.Start.IsZero() && patch.End.IsZero() && !target.Start.IsZero() && !target.End.IsZero() {
		patch.End = patch.Start.Add(target.End.Sub(target.Start))
	}
	start, end := target.Start, target.End
	if !patch.Start.IsZero() {
		start = patch.Start
	}
	if !patch.End.IsZero() {
		end = patch.End
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return model.CalendarEvent{}, fmt.Errorf("%w: end before start", model.ErrBadInstruction)
	}
	if patch.IsEmpty() {
		return model.CalendarEvent{}, fmt.Errorf("%w: nothing to update", model.ErrBadInstruction)
	}
	updated, err := s.store.Patch(ctx, scope, target.ID, patch)
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("update event: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("calendar", scope).Str("event_id", target.ID).Msg("calendar event updated")
	return updated, nil
}

// Delete 删除事件；未给 event_id 时按标题定位。事件已不存在时返回错误。
func (s *Service) Delete(ctx context.Context, scope string, p model.EventPayload) (model.CalendarEvent, error) {
	if scope == "" {
		scope = model.PrimaryCalendar
	}
	target := model.CalendarEvent{ID: p.EventID, Summary: p.Summary}
	if p.EventID == "" {
		found, err := s.FindBySummary(ctx, scope, p)
		if err != nil {
			return model.CalendarEvent{}, err
		}
		target = found
	}
	if err := s.store.Delete(ctx, scope, target.ID); err != nil {
		return model.CalendarEvent{}, fmt.Errorf("delete event: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("calendar", scope).Str("event_id", target.ID).Msg("calendar event deleted")
	return target, nil
}
