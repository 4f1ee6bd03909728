package agenda

import (
	"fmt"
	"strings"
	"time"

	"directory-agent/internal/model"
)

// NoUpcomingEvents 未来几天没有事件时的提示
const NoUpcomingEvents = "Nenhum compromisso encontrado para os próximos dias."

// FormatAgenda 生成播报用的日程列表，每行一个事件
func FormatAgenda(events []model.CalendarEvent, loc *time.Location) string {
	if len(events) == 0 {
		return NoUpcomingEvents
	}
	lines := make([]string, 0, len(events)+1)
	lines = append(lines, "Seus próximos compromissos:")
	for _, ev := range events {
		lines = append(lines, "- "+FormatEvent(ev, loc))
	}
	return strings.Join(lines, "\n")
}

// FormatEvent 单个事件的简短描述，如 "10/05 às 14:00 - Consulta (Clínica)"
func FormatEvent(ev model.CalendarEvent, loc *time.Location) string {
	var when string
	switch {
	case ev.Start.IsZero():
		when = ""
	case ev.AllDay:
		when = ev.Start.Format("02/01") + " (dia todo)"
	default:
		when = ev.Start.In(loc).Format("02/01 às 15:04")
	}
	summary := ev.Summary
	if summary == "" {
		summary = "(sem título)"
	}
	out := summary
	if when != "" {
		out = fmt.Sprintf("%s - %s", when, summary)
	}
	if ev.Location != "" {
		out += fmt.Sprintf(" (%s)", ev.Location)
	}
	return out
}
