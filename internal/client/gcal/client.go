package gcal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"directory-agent/internal/model"
)

// Config Google Calendar 客户端配置
type Config struct {
	CredentialsFile string
	Timeout         time.Duration
}

// Client 日历客户端，实现 agenda.Store；calendar scope 即 Google 日历 ID
type Client struct {
	cfg Config
	svc *gcalendar.Service
}

// NewClient 创建日历客户端；CredentialsFile 为空时使用默认凭据
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	opts := []option.ClientOption{option.WithScopes(gcalendar.CalendarScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	svc, err := gcalendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar new service: %w", err)
	}
	return &Client{cfg: cfg, svc: svc}, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// Insert 创建事件
func (c *Client) Insert(ctx context.Context, scope string, ev model.CalendarEvent) (model.CalendarEvent, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	created, err := c.svc.Events.Insert(scope, toAPIEvent(ev)).Context(ctx).Do()
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("%w: calendar insert: %v", model.ErrIntegration, err)
	}
	return fromAPIEvent(created), nil
}

// List 按开始时间排序，重复事件展开为单次
func (c *Client) List(ctx context.Context, scope string, q model.EventQuery) ([]model.CalendarEvent, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	call := c.svc.Events.List(scope).SingleEvents(true).OrderBy("startTime")
	if !q.TimeMin.IsZero() {
		call = call.TimeMin(q.TimeMin.Format(time.RFC3339))
	}
	if !q.TimeMax.IsZero() {
		call = call.TimeMax(q.TimeMax.Format(time.RFC3339))
	}
	if q.Text != "" {
		call = call.Q(q.Text)
	}
	if q.Limit > 0 {
		call = call.MaxResults(int64(q.Limit))
	}
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: calendar list: %v", model.ErrIntegration, err)
	}
	out := make([]model.CalendarEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		out = append(out, fromAPIEvent(item))
	}
	return out, nil
}

// Get 读取单个事件；不存在时返回 ErrEventNotFound
func (c *Client) Get(ctx context.Context, scope, eventID string) (model.CalendarEvent, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	ev, err := c.svc.Events.Get(scope, eventID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
			return model.CalendarEvent{}, fmt.Errorf("%w: %s", model.ErrEventNotFound, eventID)
		}
		return model.CalendarEvent{}, fmt.Errorf("%w: calendar get %s: %v", model.ErrIntegration, eventID, err)
	}
	return fromAPIEvent(ev), nil
}

// Patch 部分更新，只发送非零字段
func (c *Client) Patch(ctx context.Context, scope, eventID string, p model.EventPatch) (model.CalendarEvent, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	patched, err := c.svc.Events.Patch(scope, eventID, toAPIPatch(p)).Context(ctx).Do()
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("%w: calendar patch %s: %v", model.ErrIntegration, eventID, err)
	}
	return fromAPIEvent(patched), nil
}

// Delete 删除事件；事件已不存在时 API 返回错误，原样上抛
func (c *Client) Delete(ctx context.Context, scope, eventID string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := c.svc.Events.Delete(scope, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: calendar delete %s: %v", model.ErrIntegration, eventID, err)
	}
	return nil
}

func toAPIEvent(ev model.CalendarEvent) *gcalendar.Event {
	out := &gcalendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Attendees:   toAPIAttendees(ev.Attendees),
		Start:       toAPITime(ev.Start, ev.Timezone, ev.AllDay),
		End:         toAPITime(ev.End, ev.Timezone, ev.AllDay),
	}
	return out
}

func toAPIPatch(p model.EventPatch) *gcalendar.Event {
	out := &gcalendar.Event{
		Summary:     p.Summary,
		Description: p.Description,
		Location:    p.Location,
		Attendees:   toAPIAttendees(p.Attendees),
	}
	if !p.Start.IsZero() {
		out.Start = toAPITime(p.Start, p.Timezone, false)
	}
	if !p.End.IsZero() {
		out.End = toAPITime(p.End, p.Timezone, false)
	}
	return out
}

func toAPIAttendees(emails []string) []*gcalendar.EventAttendee {
	if len(emails) == 0 {
		return nil
	}
	out := make([]*gcalendar.EventAttendee, 0, len(emails))
	for _, e := range emails {
		out = append(out, &gcalendar.EventAttendee{Email: e})
	}
	return out
}

func toAPITime(t time.Time, tz string, allDay bool) *gcalendar.EventDateTime {
	if allDay {
		return &gcalendar.EventDateTime{Date: t.Format(time.DateOnly)}
	}
	return &gcalendar.EventDateTime{DateTime: t.Format(time.RFC3339), TimeZone: tz}
}

func fromAPIEvent(item *gcalendar.Event) model.CalendarEvent {
	if item == nil {
		return model.CalendarEvent{}
	}
	ev := model.CalendarEvent{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Link:        item.HtmlLink,
	}
	for _, a := range item.Attendees {
		if a != nil && a.Email != "" {
			ev.Attendees = append(ev.Attendees, a.Email)
		}
	}
	ev.Start, ev.AllDay, ev.Timezone = fromAPITime(item.Start)
	ev.End, _, _ = fromAPITime(item.End)
	return ev
}

func fromAPITime(dt *gcalendar.EventDateTime) (time.Time, bool, string) {
	if dt == nil {
		return time.Time{}, false, ""
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err == nil {
			if loc, lerr := time.LoadLocation(dt.TimeZone); dt.TimeZone != "" && lerr == nil {
				t = t.In(loc)
			}
		}
		return t, false, dt.TimeZone
	}
	if dt.Date != "" {
		t, _ := time.Parse(time.DateOnly, dt.Date)
		return t, true, dt.TimeZone
	}
	return time.Time{}, false, dt.TimeZone
}
