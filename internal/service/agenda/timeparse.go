package agenda

import (
	"fmt"
	"strings"
	"time"

	"directory-agent/internal/model"
)

var dateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04",
}

var dateLayouts = []string{
	time.DateOnly,
	"02/01/2006",
}

// ParseTime 解析分类器给出的时间。带时区偏移的 RFC3339 原样保留；
// 不带时区的按 loc 解释；只有日期时 allDay 为 true。
func ParseTime(s string, loc *time.Location) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, false, nil
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: unrecognized time %q", model.ErrBadInstruction, s)
}

// dayWindow 返回 t 所在自然日 [00:00, 次日 00:00)
func dayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
