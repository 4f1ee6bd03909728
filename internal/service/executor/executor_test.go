package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"directory-agent/internal/model"
	"directory-agent/internal/service/agenda"
	"directory-agent/internal/service/directory"
	"directory-agent/internal/testutil"
)

type fixture struct {
	table    *testutil.MemoryTable
	calendar *testutil.MemoryCalendar
	exec     *Executor
}

func newFixture() *fixture {
	table := testutil.NewMemoryTable(
		[]string{"Nome", "Telefone", "E-mail", "Cargo"},
		[]string{"Ana", "11988887777", "ana@example.com", "Analista"},
		[]string{"Bruno", "11977776666", "bruno@example.com", "Gerente"},
	)
	calendar := testutil.NewMemoryCalendar()
	svc := agenda.NewService(calendar, agenda.Config{DefaultTimezone: "America/Sao_Paulo"})
	return &fixture{
		table:    table,
		calendar: calendar,
		exec:     NewExecutor(directory.NewStore(table), svc),
	}
}

func TestExecuteUpdatePhone(t *testing.T) {
	f := newFixture()
	in := model.Instruction{
		Action:     model.ActionUpdatePhone,
		NewValue:   "+5511999998888",
		Identifier: &model.Identifier{Key: "telefone", Value: "+5511988887777"},
	}
	res, err := f.exec.Execute(context.Background(), in, model.SessionContext{UserPhone: "+55 11 98888-7777"})
	require.NoError(t, err)
	assert.Equal(t, "+5511999998888", f.table.Cell(1, 1))
	assert.Contains(t, res.Message, "+5511999998888")
	assert.Equal(t, map[string]string{"user_phone": "+5511999998888"}, res.SessionPatch)
}

func TestExecuteSheetFieldByFallbackIdentity(t *testing.T) {
	f := newFixture()
	in := model.Instruction{Action: model.ActionUpdateSheetField, Field: "cargo", NewValue: "Diretor"}
	res, err := f.exec.Execute(context.Background(), in, model.SessionContext{UserEmail: "BRUNO@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Diretor", f.table.Cell(2, 3))
	assert.Equal(t, "Campo cargo atualizado para Diretor.", res.Message)
	assert.Nil(t, res.SessionPatch)
}

func TestExecuteSheetFieldAliasPatchesSession(t *testing.T) {
	f := newFixture()
	in := model.Instruction{Action: model.ActionUpdateSheetField, Field: "user_email", NewValue: "ana@novo.com"}
	res, err := f.exec.Execute(context.Background(), in, model.SessionContext{UserPhone: "11988887777"})
	require.NoError(t, err)
	assert.Equal(t, "ana@novo.com", f.table.Cell(1, 2))
	assert.Equal(t, map[string]string{"user_email": "ana@novo.com"}, res.SessionPatch)
}

func TestExecuteSimilarColumnIsNotIdentity(t *testing.T) {
	tests := []struct {
		field string
		col   int
	}{
		{"sobrenome", 1},
		{"email_secundario", 3},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			table := testutil.NewMemoryTable(
				[]string{"Nome", "Sobrenome", "Telefone", "Email Secundario", "E-mail"},
				[]string{"Ana", "Silva", "11988887777", "ana@pessoal.com", "ana@example.com"},
			)
			calendar := testutil.NewMemoryCalendar()
			exec := NewExecutor(directory.NewStore(table), agenda.NewService(calendar, agenda.Config{}))

			in := model.Instruction{Action: model.ActionUpdateSheetField, Field: tt.field, NewValue: "NOVO"}
			res, err := exec.Execute(context.Background(), in, model.SessionContext{UserPhone: "11988887777"})
			require.NoError(t, err)
			assert.Equal(t, "NOVO", table.Cell(1, tt.col))
			assert.Equal(t, "Ana", table.Cell(1, 0))
			assert.Equal(t, "ana@example.com", table.Cell(1, 4))
			assert.Equal(t, "Campo "+tt.field+" atualizado para NOVO.", res.Message)
			assert.Nil(t, res.SessionPatch)
		})
	}
}

func TestExecuteOtherUserRowDoesNotPatchSession(t *testing.T) {
	f := newFixture()
	in := model.Instruction{
		Action:     model.ActionUpdateName,
		NewValue:   "Bruno Souza",
		Identifier: &model.Identifier{Key: "email", Value: "bruno@example.com"},
	}
	res, err := f.exec.Execute(context.Background(), in, model.SessionContext{UserEmail: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Bruno Souza", f.table.Cell(2, 0))
	assert.Equal(t, "Nome atualizado para Bruno Souza.", res.Message)
	assert.Nil(t, res.SessionPatch)
}

func TestExecuteFailuresNeverTouchStore(t *testing.T) {
	tests := []struct {
		name    string
		in      model.Instruction
		wantErr error
	}{
		{"未知动作", model.Instruction{Action: model.ActionUnknown, RawAction: "transfer_money"}, model.ErrActionNotSupport},
		{"缺少 new_value", model.Instruction{Action: model.ActionUpdateEmail}, model.ErrBadInstruction},
		{"通用字段缺少 field", model.Instruction{Action: model.ActionUpdateSheetField, NewValue: "x"}, model.ErrBadInstruction},
		{"创建事件缺少 end", model.Instruction{Action: model.ActionCreateEvent, Event: model.EventPayload{Summary: "a", Start: "2024-05-10T10:00:00"}}, model.ErrBadInstruction},
		{"删除事件无法定位", model.Instruction{Action: model.ActionDeleteEvent}, model.ErrBadInstruction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			res, err := f.exec.Execute(context.Background(), tt.in, model.SessionContext{UserPhone: "11988887777"})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, res.Message, MsgEditFailed)
			assert.Nil(t, res.SessionPatch)
			assert.Equal(t, 0, f.table.Reads)
			assert.Equal(t, 0, f.table.Writes)
			assert.Equal(t, 0, f.calendar.Mutations)
		})
	}
}

func TestExecuteHidesIntegrationErrors(t *testing.T) {
	f := newFixture()
	f.table.ReadErr = errors.New("googleapi: Error 403: credentials file /etc/secret.json rejected")
	in := model.Instruction{Action: model.ActionUpdatePhone, NewValue: "11900000000"}
	res, err := f.exec.Execute(context.Background(), in, model.SessionContext{UserPhone: "11988887777"})
	require.Error(t, err)
	assert.Equal(t, MsgEditFailed+": serviço temporariamente indisponível.", res.Message)
	assert.NotContains(t, res.Message, "secret")
}

func TestExecuteRecordNotFound(t *testing.T) {
	f := newFixture()
	in := model.Instruction{Action: model.ActionUpdatePhone, NewValue: "11900000000"}
	res, err := f.exec.Execute(context.Background(), in, model.SessionContext{UserPhone: "21911112222"})
	assert.ErrorIs(t, err, model.ErrRecordNotFound)
	assert.Contains(t, res.Message, "usuário não encontrado")
	assert.Equal(t, 0, f.table.Writes)
}

func TestExecuteCalendarLifecycle(t *testing.T) {
	f := newFixture()
	sess := model.SessionContext{UserEmail: "ana@example.com"}
	ctx := context.Background()

	res, err := f.exec.Execute(ctx, model.Instruction{
		Action: model.ActionCreateEvent,
		Event:  model.EventPayload{Summary: "Consulta", Start: "2024-05-10T14:00:00", End: "2024-05-10T15:00:00"},
	}, sess)
	require.NoError(t, err)
	assert.Equal(t, "Compromisso criado: 10/05 às 14:00 - Consulta.", res.Message)
	eventID := res.SessionPatch["last_event_id"]
	require.NotEmpty(t, eventID)
	require.Len(t, f.calendar.Events("ana@example.com"), 1)

	// 没有 id 和标题时使用会话中的 last_event_id
	sess.LastEventID = eventID
	res, err = f.exec.Execute(ctx, model.Instruction{
		Action: model.ActionUpdateEvent,
		Event:  model.EventPayload{Location: "Clínica"},
	}, sess)
	require.NoError(t, err)
	assert.Contains(t, res.Message, "(Clínica)")

	res, err = f.exec.Execute(ctx, model.Instruction{
		Action: model.ActionDeleteEvent,
		Event:  model.EventPayload{Summary: "Consulta", Date: "2024-05-10"},
	}, sess)
	require.NoError(t, err)
	assert.Equal(t, `Compromisso "Consulta" removido.`, res.Message)
	assert.Equal(t, map[string]string{"last_event_id": ""}, res.SessionPatch)
	assert.Empty(t, f.calendar.Events("ana@example.com"))
}

func TestExecuteDeleteMissingEvent(t *testing.T) {
	f := newFixture()
	f.calendar.Seed("primary", model.CalendarEvent{
		ID: "evt-x", Summary: "Reunião",
		Start: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC),
	})
	res, err := f.exec.Execute(context.Background(), model.Instruction{
		Action: model.ActionDeleteEvent,
		Event:  model.EventPayload{EventID: "evt-gone"},
	}, model.SessionContext{})
	require.Error(t, err)
	assert.Contains(t, res.Message, MsgEditFailed)
	assert.Len(t, f.calendar.Events("primary"), 1)
}
