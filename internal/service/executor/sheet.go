package executor

import (
	"context"
	"fmt"
	"strings"

	"directory-agent/internal/model"
	"directory-agent/internal/service/directory"
)

// Directory 用户目录（由 directory.Store 实现）
type Directory interface {
	ApplyFieldUpdate(ctx context.Context, field, newValue string, ident *model.Identifier, fallback model.SessionContext) (model.FieldUpdate, error)
}

// SheetExecutor 用户表格相关动作执行器
type SheetExecutor struct {
	directory Directory
}

// NewSheetExecutor 创建表格执行器
func NewSheetExecutor(directory Directory) *SheetExecutor {
	return &SheetExecutor{directory: directory}
}

// 身份字段：规范列名 -> 会话变量名与播报用的字段名
var identityFields = map[string]struct {
	sessionKey string
	label      string
}{
	"telefone": {sessionKey: "user_phone", label: "Telefone"},
	"email":    {sessionKey: "user_email", label: "E-mail"},
	"nome":     {sessionKey: "user_name", label: "Nome"},
}

// Execute 修改用户表格中的一个单元格；修改身份字段时同时返回会话变量补丁
func (e *SheetExecutor) Execute(ctx context.Context, in model.Instruction, sess model.SessionContext) (model.ActionResult, error) {
	field := in.Field
	switch in.Action {
	case model.ActionUpdatePhone:
		field = "telefone"
	case model.ActionUpdateEmail:
		field = "email"
	case model.ActionUpdateName:
		field = "nome"
	}
	update, err := e.directory.ApplyFieldUpdate(ctx, field, in.NewValue, in.Identifier, sess)
	if err != nil {
		return model.ActionResult{}, err
	}

	res := model.ActionResult{
		Message: fmt.Sprintf("Campo %s atualizado para %s.", update.Column, update.NewValue),
	}
	// 以实际写入的列判断是否为身份字段，而不是按请求的字段名
	if id, ok := identityFields[directory.IdentityColumn(update.Column)]; ok {
		res.Message = fmt.Sprintf("%s atualizado para %s.", id.label, update.NewValue)
		// 只有修改的是当前会话用户自己的行时才回写会话变量
		if ownsRow(in.Identifier, sess) {
			res.SessionPatch = map[string]string{id.sessionKey: update.NewValue}
		}
	}
	return res, nil
}

// ownsRow identifier 为空或指向当前会话用户时视为修改本人记录
func ownsRow(ident *model.Identifier, sess model.SessionContext) bool {
	if ident == nil {
		return true
	}
	switch directory.CanonicalField(ident.Key) {
	case "telefone":
		return sess.UserPhone == "" || directory.PhoneKey(ident.Value) == directory.PhoneKey(sess.UserPhone)
	case "email":
		return sess.UserEmail == "" || equalFold(ident.Value, sess.UserEmail)
	case "nome":
		return sess.UserName == "" || equalFold(ident.Value, sess.UserName)
	}
	return false
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
