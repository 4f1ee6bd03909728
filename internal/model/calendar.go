package model

import "time"

// PrimaryCalendar 无法确定日历时使用的默认日历
const PrimaryCalendar = "primary"

// CalendarEvent 日历事件，仅在一次请求内持有
type CalendarEvent struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Attendees   []string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Timezone    string
	Link        string
}

// EventQuery 日程查询条件
type EventQuery struct {
	Text    string
	TimeMin time.Time
	TimeMax time.Time
	Limit   int
}

// EventPatch 部分更新；零值字段不发送
type EventPatch struct {
	Summary     string
	Description string
	Location    string
	Attendees   []string
	Start       time.Time
	End         time.Time
	Timezone    string
}

// IsEmpty 是否没有任何需要更新的字段
func (p EventPatch) IsEmpty() bool {
	return p.Summary == "" && p.Description == "" && p.Location == "" &&
		len(p.Attendees) == 0 && p.Start.IsZero() && p.End.IsZero()
}
