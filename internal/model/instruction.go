package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ActionKind 指令动作类型，取值封闭
type ActionKind string

const (
	ActionUpdatePhone      ActionKind = "update_phone"
	ActionUpdateEmail      ActionKind = "update_email"
	ActionUpdateName       ActionKind = "update_name"
	ActionUpdateSheetField ActionKind = "update_sheet_field"
	ActionCreateEvent      ActionKind = "create_event"
	ActionUpdateEvent      ActionKind = "update_event"
	ActionDeleteEvent      ActionKind = "delete_event"
	ActionUnknown          ActionKind = "unknown"
)

var knownActions = map[string]ActionKind{
	string(ActionUpdatePhone):      ActionUpdatePhone,
	string(ActionUpdateEmail):      ActionUpdateEmail,
	string(ActionUpdateName):       ActionUpdateName,
	string(ActionUpdateSheetField): ActionUpdateSheetField,
	string(ActionCreateEvent):      ActionCreateEvent,
	string(ActionUpdateEvent):      ActionUpdateEvent,
	string(ActionDeleteEvent):      ActionDeleteEvent,
}

// IsSheetAction 是否为修改用户表格的动作
func (a ActionKind) IsSheetAction() bool {
	switch a {
	case ActionUpdatePhone, ActionUpdateEmail, ActionUpdateName, ActionUpdateSheetField:
		return true
	}
	return false
}

// IsCalendarAction 是否为日历动作
func (a ActionKind) IsCalendarAction() bool {
	switch a {
	case ActionCreateEvent, ActionUpdateEvent, ActionDeleteEvent:
		return true
	}
	return false
}

// Identifier 定位用户行的键值，如 {"key": "telefone", "value": "+5511..."}
type Identifier struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Instruction 分类器返回的结构化指令。每条指令只有一个动作；
// 未识别的动作不会被执行，多余字段保存在 Extra 中但不参与分发。
type Instruction struct {
	Action ActionKind
	// RawAction 分类器给出的原始动作名，便于日志排查
	RawAction  string
	NewValue   string
	Field      string
	Identifier *Identifier
	Event      EventPayload
	Extra      map[string]any
}

// EventPayload 日历动作的参数
type EventPayload struct {
	EventID string
	// Summary 创建时为标题；更新/删除时用于按标题查找
	Summary       string
	NewSummary    string
	Date          string
	Start         string
	End           string
	Description   string
	Location      string
	Attendees     []string
	Timezone      string
	CalendarScope string
}

// HasPatch 更新动作是否携带了要修改的字段
func (p EventPayload) HasPatch() bool {
	return p.NewSummary != "" || p.Start != "" || p.End != "" || p.Description != "" ||
		p.Location != "" || len(p.Attendees) > 0
}

// 已知字段，其余字段进入 Extra
var instructionKeys = map[string]bool{
	"action": true, "new_value": true, "field": true, "identifier": true,
	"event_id": true, "eventId": true, "summary": true, "new_summary": true, "date": true,
	"start": true, "end": true, "description": true, "location": true, "attendees": true,
	"timezone": true, "calendar_id": true, "calendar_scope": true, "payload": true, "params": true,
}

// ParseInstruction 将分类器的 JSON 文本解析为 Instruction。
// 非 JSON 对象返回 ErrMalformedInstruction；缺少或无法识别的 action 解析为 ActionUnknown。
func ParseInstruction(raw []byte) (Instruction, error) {
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return Instruction{Action: ActionUnknown}, fmt.Errorf("%w: %v", ErrMalformedInstruction, err)
	}
	if params == nil {
		return Instruction{Action: ActionUnknown}, fmt.Errorf("%w: null payload", ErrMalformedInstruction)
	}
	// 部分模型会把参数放在 payload/params 下，顶层字段优先
	for _, nestedKey := range []string{"payload", "params"} {
		if nested, ok := params[nestedKey].(map[string]any); ok {
			for k, v := range nested {
				if _, exists := params[k]; !exists {
					params[k] = v
				}
			}
		}
	}

	out := Instruction{Action: ActionUnknown}
	out.RawAction = strings.TrimSpace(stringValue(params["action"]))
	if kind, ok := knownActions[strings.ToLower(out.RawAction)]; ok {
		out.Action = kind
	}
	out.NewValue = stringValue(params["new_value"])
	out.Field = stringValue(params["field"])

	if ident, ok := params["identifier"].(map[string]any); ok {
		id := Identifier{Key: stringValue(ident["key"]), Value: stringValue(ident["value"])}
		if id.Key != "" && id.Value != "" {
			out.Identifier = &id
		}
	}

	out.Event = EventPayload{
		EventID:       firstString(params, "event_id", "eventId"),
		Summary:       stringValue(params["summary"]),
		NewSummary:    stringValue(params["new_summary"]),
		Date:          stringValue(params["date"]),
		Start:         stringValue(params["start"]),
		End:           stringValue(params["end"]),
		Description:   stringValue(params["description"]),
		Location:      stringValue(params["location"]),
		Attendees:     parseAttendees(params["attendees"]),
		Timezone:      stringValue(params["timezone"]),
		CalendarScope: firstString(params, "calendar_id", "calendar_scope"),
	}

	for k, v := range params {
		if instructionKeys[k] {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]any)
		}
		out.Extra[k] = v
	}
	return out, nil
}

// Validate 校验指令是否携带该动作必需的字段，不访问任何存储
func (in Instruction) Validate() error {
	switch in.Action {
	case ActionUpdatePhone, ActionUpdateEmail, ActionUpdateName:
		if in.NewValue == "" {
			return fmt.Errorf("%w: %s requires new_value", ErrBadInstruction, in.Action)
		}
	case ActionUpdateSheetField:
		if in.Field == "" || in.NewValue == "" {
			return fmt.Errorf("%w: %s requires field and new_value", ErrBadInstruction, in.Action)
		}
	case ActionCreateEvent:
		if in.Event.Summary == "" || in.Event.Start == "" || in.Event.End == "" {
			return fmt.Errorf("%w: %s requires summary, start and end", ErrBadInstruction, in.Action)
		}
	case ActionUpdateEvent:
		if in.Event.EventID == "" && in.Event.Summary == "" {
			return fmt.Errorf("%w: %s requires event_id or summary", ErrBadInstruction, in.Action)
		}
		if !in.Event.HasPatch() {
			return fmt.Errorf("%w: %s has nothing to change", ErrBadInstruction, in.Action)
		}
	case ActionDeleteEvent:
		if in.Event.EventID == "" && in.Event.Summary == "" {
			return fmt.Errorf("%w: %s requires event_id or summary", ErrBadInstruction, in.Action)
		}
	default:
		return fmt.Errorf("%w: %q", ErrActionNotSupport, in.RawAction)
	}
	return nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func firstString(params map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringValue(params[k]); s != "" {
			return s
		}
	}
	return ""
}

// parseAttendees 支持 ["a@b.com"]、[{"email": "a@b.com"}] 和逗号分隔字符串
func parseAttendees(v any) []string {
	var out []string
	switch val := v.(type) {
	case string:
		for _, part := range strings.Split(val, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range val {
			switch a := item.(type) {
			case string:
				if s := strings.TrimSpace(a); s != "" {
					out = append(out, s)
				}
			case map[string]any:
				if s := stringValue(a["email"]); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
