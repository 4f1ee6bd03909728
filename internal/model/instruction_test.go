package model

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseInstruction(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Instruction
	}{
		{
			name: "update phone with identifier",
			raw:  `{"action":"update_phone","new_value":"+5511999998888","identifier":{"key":"telefone","value":"+5511988887777"}}`,
			expected: Instruction{
				Action:     ActionUpdatePhone,
				RawAction:  "update_phone",
				NewValue:   "+5511999998888",
				Identifier: &Identifier{Key: "telefone", Value: "+5511988887777"},
			},
		},
		{
			name: "generic sheet field",
			raw:  `{"action":"update_sheet_field","field":"cidade","new_value":"Campinas"}`,
			expected: Instruction{
				Action:    ActionUpdateSheetField,
				RawAction: "update_sheet_field",
				Field:     "cidade",
				NewValue:  "Campinas",
			},
		},
		{
			name: "create event with nested payload and attendees objects",
			raw: `{"action":"create_event","payload":{"summary":"Consulta","start":"2024-05-10T10:00:00",
				"end":"2024-05-10T11:00:00","attendees":[{"email":"a@b.com"},"c@d.com"],"calendar_id":"agenda@x.com"}}`,
			expected: Instruction{
				Action:    ActionCreateEvent,
				RawAction: "create_event",
				Event: EventPayload{
					Summary:       "Consulta",
					Start:         "2024-05-10T10:00:00",
					End:           "2024-05-10T11:00:00",
					Attendees:     []string{"a@b.com", "c@d.com"},
					CalendarScope: "agenda@x.com",
				},
			},
		},
		{
			name: "unknown action keeps extra fields",
			raw:  `{"action":"send_email","reply":"ok"}`,
			expected: Instruction{
				Action:    ActionUnknown,
				RawAction: "send_email",
				Extra:     map[string]any{"reply": "ok"},
			},
		},
		{
			name: "numeric new value",
			raw:  `{"action":"update_sheet_field","field":"idade","new_value":42}`,
			expected: Instruction{
				Action:    ActionUpdateSheetField,
				RawAction: "update_sheet_field",
				Field:     "idade",
				NewValue:  "42",
			},
		},
		{
			name:     "missing action",
			raw:      `{}`,
			expected: Instruction{Action: ActionUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseInstruction([]byte(tt.raw))
			if err != nil {
				t.Fatalf("ParseInstruction() error = %v", err)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("ParseInstruction() = %+v, want %+v", result, tt.expected)
			}
		})
	}
}

func TestParseInstructionMalformed(t *testing.T) {
	for _, raw := range []string{"not json", "[1,2]", "null", ""} {
		in, err := ParseInstruction([]byte(raw))
		if !errors.Is(err, ErrMalformedInstruction) {
			t.Errorf("ParseInstruction(%q) error = %v, want ErrMalformedInstruction", raw, err)
		}
		if in.Action != ActionUnknown {
			t.Errorf("ParseInstruction(%q) action = %s, want unknown", raw, in.Action)
		}
	}
}

func TestInstructionValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      Instruction
		wantErr error
	}{
		{"phone ok", Instruction{Action: ActionUpdatePhone, NewValue: "1"}, nil},
		{"phone missing value", Instruction{Action: ActionUpdatePhone}, ErrBadInstruction},
		{"field missing name", Instruction{Action: ActionUpdateSheetField, NewValue: "x"}, ErrBadInstruction},
		{"create missing end", Instruction{Action: ActionCreateEvent, Event: EventPayload{Summary: "a", Start: "b"}}, ErrBadInstruction},
		{"update without target", Instruction{Action: ActionUpdateEvent, Event: EventPayload{Location: "x"}}, ErrBadInstruction},
		{"update without patch", Instruction{Action: ActionUpdateEvent, Event: EventPayload{EventID: "e1"}}, ErrBadInstruction},
		{"update ok", Instruction{Action: ActionUpdateEvent, Event: EventPayload{Summary: "a", Location: "x"}}, nil},
		{"delete by summary", Instruction{Action: ActionDeleteEvent, Event: EventPayload{Summary: "a"}}, nil},
		{"unknown", Instruction{Action: ActionUnknown, RawAction: "x"}, ErrActionNotSupport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserDetailHidesInternals(t *testing.T) {
	err := errors.New("googleapi: Error 403: credentials /secret/key.json rejected")
	if got := UserDetail(err); got != "serviço temporariamente indisponível" {
		t.Errorf("UserDetail() = %q", got)
	}
}

func TestMessageText(t *testing.T) {
	m := Message{Origin: OriginAgent, Fragments: []string{" Olá! ", "", "Como posso ajudar?"}}
	if got := m.Text(); got != "Olá! Como posso ajudar?" {
		t.Errorf("Text() = %q", got)
	}
}
