package model

import (
	"strings"
	"time"
)

// Origin 消息来源
type Origin string

const (
	OriginUser  Origin = "USER"
	OriginAgent Origin = "AGENT"
)

// Message 会话历史中的一条消息；智能体一轮回复可能包含多个片段
type Message struct {
	Origin    Origin
	Fragments []string
	EmittedAt time.Time
}

// Text 片段去空白后以空格拼接
func (m Message) Text() string {
	parts := make([]string, 0, len(m.Fragments))
	for _, f := range m.Fragments {
		if s := strings.TrimSpace(f); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
