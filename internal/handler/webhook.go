package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"directory-agent/internal/middleware"
	"directory-agent/internal/model"
	"directory-agent/internal/service"
)

// MsgMissingInput 查询接口缺少必填字段时的提示
const MsgMissingInput = "Informe o telefone ou e-mail do usuário."

// WebhookHandler 对话平台 webhook
type WebhookHandler struct {
	edit     *service.EditService
	lookup   *service.LookupService
	calendar *service.CalendarService
}

// NewWebhookHandler 创建 webhook 处理器
func NewWebhookHandler(edit *service.EditService, lookup *service.LookupService, calendar *service.CalendarService) *WebhookHandler {
	return &WebhookHandler{edit: edit, lookup: lookup, calendar: calendar}
}

// UserLookup 按电话查询用户
// POST /api/v1/user/lookup
func (h *WebhookHandler) UserLookup(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}
	resp, err := h.lookup.Lookup(c.Request.Context(), req)
	if err != nil {
		lookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CalendarList 列出未来几天的日程
// POST /api/v1/calendar/list
func (h *WebhookHandler) CalendarList(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}
	resp, err := h.calendar.List(c.Request.Context(), req)
	if err != nil {
		lookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Edit 根据对话内容修改用户表格或日程，所有业务结果都以 200 返回
// POST /api/v1/edit
func (h *WebhookHandler) Edit(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.edit.Process(c.Request.Context(), req))
}

// bindRequest 请求体无法解析属于外层失败，返回 500 与中性提示
func bindRequest(c *gin.Context) (model.WebhookRequest, bool) {
	var req model.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("invalid webhook body")
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": middleware.MsgInternalError})
		return req, false
	}
	return req, true
}

func lookupError(c *gin.Context, err error) {
	if errors.Is(err, model.ErrBadRequest) {
		c.JSON(http.StatusBadRequest, model.LookupResponse{
			Output: model.LookupOutput{LiveInstructions: map[string]string{"error": MsgMissingInput}},
		})
		return
	}
	zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("lookup failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": middleware.MsgInternalError})
}
