package model

import "errors"

var (
	ErrBadRequest            = errors.New("bad request")
	ErrRecordNotFound        = errors.New("record not found")
	ErrEventNotFound         = errors.New("event not found")
	ErrFieldNotFound         = errors.New("field not found")
	ErrEmptyTable            = errors.New("table has no data rows")
	ErrTableNotConfigured    = errors.New("table identity not configured")
	ErrIntegration           = errors.New("integration error")
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrMalformedInstruction  = errors.New("malformed instruction")
	ErrBadInstruction        = errors.New("instruction missing required fields")
	ErrEmptyTranscript       = errors.New("empty transcript")
	ErrActionNotSupport      = errors.New("action type not supported")
	ErrSessionBusy           = errors.New("another edit in progress for session")
)

// UserDetail 将错误映射为可以展示给终端用户的简短说明，不包含任何内部细节
func UserDetail(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRecordNotFound):
		return "usuário não encontrado na planilha, verifique o telefone, e-mail ou nome informado"
	case errors.Is(err, ErrFieldNotFound):
		return "o campo informado não existe na planilha"
	case errors.Is(err, ErrEmptyTable):
		return "a planilha de usuários está vazia"
	case errors.Is(err, ErrEventNotFound):
		return "compromisso não encontrado, verifique o título e a data"
	case errors.Is(err, ErrBadInstruction):
		return "faltam informações na solicitação"
	case errors.Is(err, ErrMalformedInstruction),
		errors.Is(err, ErrClassifierUnavailable),
		errors.Is(err, ErrActionNotSupport):
		return "não consegui entender o pedido"
	case errors.Is(err, ErrSessionBusy):
		return "outra edição está em andamento, tente novamente em instantes"
	default:
		return "serviço temporariamente indisponível"
	}
}
