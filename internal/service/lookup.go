package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"directory-agent/internal/model"
)

const (
	MsgUserNotFound    = "Usuário não encontrado. Por favor, verifique ou atualize o telefone informado."
	MsgUserUnavailable = "Desculpe, não foi possível consultar o cadastro agora. Tente novamente em instantes."
)

// UserFinder 用户查询（由 directory.Store 实现）
type UserFinder interface {
	FindUser(ctx context.Context, key string) (model.UserRecord, error)
}

// LookupService 按电话（或邮箱）查询用户
type LookupService struct {
	users UserFinder
}

// NewLookupService 创建用户查询服务
func NewLookupService(users UserFinder) *LookupService {
	return &LookupService{users: users}
}

// Lookup 查询键取 input.text，为空时使用会话中的 user_phone；两者都为空返回 ErrBadRequest。
// 未找到与集成失败都返回 200 友好提示。
func (s *LookupService) Lookup(ctx context.Context, req model.WebhookRequest) (model.LookupResponse, error) {
	sess := req.Session()
	key := strings.TrimSpace(req.Input.Text)
	if key == "" {
		key = strings.TrimSpace(sess.UserPhone)
	}
	if key == "" {
		return model.LookupResponse{}, fmt.Errorf("%w: input.text or user_phone is required", model.ErrBadRequest)
	}

	rec, err := s.users.FindUser(ctx, key)
	switch {
	case errors.Is(err, model.ErrRecordNotFound):
		zerolog.Ctx(ctx).Info().Str("session_id", sess.SessionID).Msg("user not found")
		return liveInstructions(map[string]string{"user": MsgUserNotFound}, nil), nil
	case err != nil:
		zerolog.Ctx(ctx).Error().Err(err).Str("session_id", sess.SessionID).Msg("user lookup failed")
		return liveInstructions(map[string]string{"user": MsgUserUnavailable}, nil), nil
	}

	found := map[string]string{
		"user_name":  rec.Name,
		"user_email": rec.Email,
		"user_phone": rec.Phone,
	}
	patch := make(map[string]string, len(found))
	for k, v := range found {
		if v != "" {
			patch[k] = v
		}
	}
	return liveInstructions(found, patch), nil
}

func liveInstructions(out, patch map[string]string) model.LookupResponse {
	return model.LookupResponse{
		Output:  model.LookupOutput{LiveInstructions: out},
		Context: model.NewResponseContext(patch),
	}
}
