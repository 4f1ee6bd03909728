package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Chatter 大模型对话接口，由 client/llm.Client 实现
type Chatter interface {
	Chat(ctx context.Context, systemPrompt, userContent string) (string, error)
}

// Service 调用大模型把对话文本分类为单条编辑指令
type Service struct {
	client Chatter
	now    func() time.Time
	loc    *time.Location
}

// NewService 创建 LLM 服务；loc 用于在提示中告知模型"今天"的日期
func NewService(client Chatter, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{client: client, now: time.Now, loc: loc}
}

// 系统提示：要求大模型只返回一个 JSON 指令对象
const systemPrompt = `Você é um classificador de pedidos de edição. Você recebe a transcrição de uma conversa
entre um usuário (linhas "U:") e um assistente (linhas "A:") e deve identificar UMA única ação a executar.
Responda apenas com um objeto JSON, sem texto adicional, no formato:
{
  "action": "update_phone | update_email | update_name | update_sheet_field | create_event | update_event | delete_event | unknown",
  ...campos da ação
}

Ações sobre a planilha de usuários:
1. update_phone - alterar o telefone do usuário. Campos: new_value (obrigatório), identifier (opcional)
2. update_email - alterar o e-mail do usuário. Campos: new_value (obrigatório), identifier (opcional)
3. update_name - alterar o nome do usuário. Campos: new_value (obrigatório), identifier (opcional)
4. update_sheet_field - alterar outra coluna da planilha. Campos: field (nome da coluna, obrigatório), new_value (obrigatório), identifier (opcional)
   identifier tem o formato {"key": "telefone | email | nome", "value": "..."} e indica qual linha alterar.
   Se o usuário não indicar outra pessoa, use o telefone atual informado abaixo.

Ações sobre a agenda:
5. create_event - criar compromisso. Campos: summary, start, end (obrigatórios, formato 2006-01-02T15:04:05),
   description, location, attendees (lista de e-mails), timezone (opcionais)
6. update_event - alterar compromisso. Campos: event_id ou summary + date (2006-01-02) para localizar;
   new_summary, start, end, description, location, attendees para alterar
7. delete_event - remover compromisso. Campos: event_id ou summary + date (2006-01-02)

Use "unknown" quando o pedido não corresponder a nenhuma ação acima ou estiver ambíguo.
Considere sempre o pedido mais recente do usuário na conversa.
`

// Classify 实现 Classifier：transcript 为整理后的对话，scopingKey 为当前用户电话
func (s *Service) Classify(ctx context.Context, transcript, scopingKey string) (string, error) {
	var b strings.Builder
	b.WriteString("Data de hoje: ")
	b.WriteString(s.now().In(s.loc).Format("2006-01-02 (Monday)"))
	b.WriteString("\n")
	if scopingKey != "" {
		b.WriteString("Telefone atual do usuário: ")
		b.WriteString(scopingKey)
		b.WriteString("\n")
	}
	b.WriteString("\nConversa:\n")
	b.WriteString(transcript)

	raw, err := s.client.Chat(ctx, systemPrompt, b.String())
	if err != nil {
		return "", fmt.Errorf("llm chat: %w", err)
	}
	return raw, nil
}
