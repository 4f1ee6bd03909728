// Package testutil 提供各外部协作方的内存实现，用于单元测试
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"directory-agent/internal/model"
)

// MemoryTable 内存表格，实现 directory.Table
type MemoryTable struct {
	mu       sync.Mutex
	rows     [][]string
	ReadErr  error
	WriteErr error
	Reads    int
	Writes   int
}

// NewMemoryTable rows[0] 为表头
func NewMemoryTable(rows ...[]string) *MemoryTable {
	t := &MemoryTable{}
	for _, r := range rows {
		t.rows = append(t.rows, append([]string(nil), r...))
	}
	return t
}

func (t *MemoryTable) ReadAll(_ context.Context) ([][]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Reads++
	if t.ReadErr != nil {
		return nil, t.ReadErr
	}
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (t *MemoryTable) WriteCell(_ context.Context, row, col int, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.WriteErr != nil {
		return t.WriteErr
	}
	if row < 0 || row >= len(t.rows) || col < 0 {
		return fmt.Errorf("cell out of range: row=%d col=%d", row, col)
	}
	for len(t.rows[row]) <= col {
		t.rows[row] = append(t.rows[row], "")
	}
	t.rows[row][col] = value
	t.Writes++
	return nil
}

// Cell 读取单元格
func (t *MemoryTable) Cell(row, col int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if row >= len(t.rows) || col >= len(t.rows[row]) {
		return ""
	}
	return t.rows[row][col]
}

// MemoryCalendar 内存日历，实现 agenda.Store
type MemoryCalendar struct {
	mu        sync.Mutex
	events    map[string][]model.CalendarEvent
	nextID    int
	Err       error
	Mutations int
	Queries   []model.EventQuery
}

func NewMemoryCalendar() *MemoryCalendar {
	return &MemoryCalendar{events: make(map[string][]model.CalendarEvent)}
}

// Seed 直接放入事件，不计入 Mutations
func (c *MemoryCalendar) Seed(scope string, events ...model.CalendarEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range events {
		if ev.ID == "" {
			c.nextID++
			ev.ID = fmt.Sprintf("evt-%d", c.nextID)
		}
		c.events[scope] = append(c.events[scope], ev)
	}
}

// Events 返回某个日历下的全部事件
func (c *MemoryCalendar) Events(scope string) []model.CalendarEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.CalendarEvent(nil), c.events[scope]...)
}

func (c *MemoryCalendar) Insert(_ context.Context, scope string, ev model.CalendarEvent) (model.CalendarEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return model.CalendarEvent{}, c.Err
	}
	c.nextID++
	ev.ID = fmt.Sprintf("evt-%d", c.nextID)
	c.events[scope] = append(c.events[scope], ev)
	c.Mutations++
	return ev, nil
}

func (c *MemoryCalendar) List(_ context.Context, scope string, q model.EventQuery) ([]model.CalendarEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Queries = append(c.Queries, q)
	if c.Err != nil {
		return nil, c.Err
	}
	var out []model.CalendarEvent
	for _, ev := range c.events[scope] {
		if !q.TimeMin.IsZero() && ev.End.Before(q.TimeMin) {
			continue
		}
		if !q.TimeMax.IsZero() && !ev.Start.Before(q.TimeMax) {
			continue
		}
		if q.Text != "" && !strings.Contains(strings.ToLower(ev.Summary), strings.ToLower(q.Text)) {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (c *MemoryCalendar) Get(_ context.Context, scope, id string) (model.CalendarEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return model.CalendarEvent{}, c.Err
	}
	for _, ev := range c.events[scope] {
		if ev.ID == id {
			return ev, nil
		}
	}
	return model.CalendarEvent{}, fmt.Errorf("%w: %s", model.ErrEventNotFound, id)
}

// Patch 与 Google Calendar 一致：结果的结束时间早于开始时间时拒绝
func (c *MemoryCalendar) Patch(_ context.Context, scope, id string, p model.EventPatch) (model.CalendarEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return model.CalendarEvent{}, c.Err
	}
	for i, ev := range c.events[scope] {
		if ev.ID != id {
			continue
		}
		if p.Summary != "" {
			ev.Summary = p.Summary
		}
		if p.Description != "" {
			ev.Description = p.Description
		}
		if p.Location != "" {
			ev.Location = p.Location
		}
		if len(p.Attendees) > 0 {
			ev.Attendees = p.Attendees
		}
		if !p.Start.IsZero() {
			ev.Start = p.Start
		}
		if !p.End.IsZero() {
			ev.End = p.End
		}
		if p.Timezone != "" {
			ev.Timezone = p.Timezone
		}
		if ev.End.Before(ev.Start) {
			return model.CalendarEvent{}, fmt.Errorf("event %s: end before start", id)
		}
		c.events[scope][i] = ev
		c.Mutations++
		return ev, nil
	}
	return model.CalendarEvent{}, fmt.Errorf("event %s not found", id)
}

func (c *MemoryCalendar) Delete(_ context.Context, scope, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	events := c.events[scope]
	for i, ev := range events {
		if ev.ID == id {
			c.events[scope] = append(events[:i], events[i+1:]...)
			c.Mutations++
			return nil
		}
	}
	return fmt.Errorf("event %s not found", id)
}

// StaticHistory 固定的会话历史
type StaticHistory struct {
	Messages []model.Message
	Err      error
	Calls    int
}

func (h *StaticHistory) Fetch(_ context.Context, _ string) ([]model.Message, error) {
	h.Calls++
	if h.Err != nil {
		return nil, h.Err
	}
	return h.Messages, nil
}

// FixedClassifier 按 transcript 查表返回固定结果，并记录调用次数
type FixedClassifier struct {
	Responses      map[string]string
	Default        string
	Err            error
	Calls          int
	LastTranscript string
	LastScopingKey string
}

func (c *FixedClassifier) Classify(_ context.Context, transcript, scopingKey string) (string, error) {
	c.Calls++
	c.LastTranscript = transcript
	c.LastScopingKey = scopingKey
	if c.Err != nil {
		return "", c.Err
	}
	if raw, ok := c.Responses[transcript]; ok {
		return raw, nil
	}
	return c.Default, nil
}
