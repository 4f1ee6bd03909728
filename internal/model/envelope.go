package model

// WebhookRequest 对话平台调用 webhook 时的请求体（三个接口共用）
type WebhookRequest struct {
	Context RequestContext `json:"context"`
	Input   RequestInput   `json:"input"`
}

type RequestContext struct {
	SessionID        string           `json:"session_id"`
	SessionVariables SessionVariables `json:"session_variables"`
}

// SessionVariables 平台侧持久化的会话变量
type SessionVariables struct {
	UserEmail  string `json:"user_email,omitempty"`
	UserPhone  string `json:"user_phone,omitempty"`
	UserName   string `json:"user_name,omitempty"`
	CalendarID string `json:"calendar_id,omitempty"`
	// LastEventID 最近一次创建/修改的日程，供后续更新/删除时兜底
	LastEventID string `json:"last_event_id,omitempty"`
}

type RequestInput struct {
	Text string `json:"text,omitempty"`
}

// SessionContext 单次请求的会话上下文，仅来源于请求体，服务端不持久化
type SessionContext struct {
	SessionID     string
	UserName      string
	UserEmail     string
	UserPhone     string
	CalendarScope string
	LastEventID   string
}

// Session 从请求体构造会话上下文
func (r WebhookRequest) Session() SessionContext {
	v := r.Context.SessionVariables
	return SessionContext{
		SessionID:     r.Context.SessionID,
		UserName:      v.UserName,
		UserEmail:     v.UserEmail,
		UserPhone:     v.UserPhone,
		CalendarScope: v.CalendarID,
		LastEventID:   v.LastEventID,
	}
}

// LookupResponse 用户查询与日程查询接口的响应
type LookupResponse struct {
	Output  LookupOutput     `json:"output"`
	Context *ResponseContext `json:"context,omitempty"`
}

type LookupOutput struct {
	LiveInstructions map[string]string `json:"live_instructions"`
}

// EditResponse 编辑接口的响应：live_instructions 为单个字符串
type EditResponse struct {
	Output  EditOutput       `json:"output"`
	Context *ResponseContext `json:"context,omitempty"`
}

type EditOutput struct {
	LiveInstructions string            `json:"live_instructions"`
	Responses        []ResponseGeneric `json:"responses,omitempty"`
}

// ResponseGeneric 硬失败时直接给用户播报的文本
type ResponseGeneric struct {
	Type  string   `json:"type"`
	Texts []string `json:"texts"`
}

// ResponseContext 需要调用方写回会话存储的变量补丁
type ResponseContext struct {
	SessionVariables map[string]string `json:"session_variables"`
}

// NewResponseContext patch 为空时返回 nil，响应中省略 context
func NewResponseContext(patch map[string]string) *ResponseContext {
	if len(patch) == 0 {
		return nil
	}
	return &ResponseContext{SessionVariables: patch}
}

// TextResponse 构造单条文本 responses
func TextResponse(text string) []ResponseGeneric {
	return []ResponseGeneric{{Type: "text", Texts: []string{text}}}
}
