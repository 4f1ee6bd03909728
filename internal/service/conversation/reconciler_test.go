package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"directory-agent/internal/model"
	"directory-agent/internal/testutil"
)

func history() *testutil.StaticHistory {
	return &testutil.StaticHistory{Messages: []model.Message{
		{Origin: model.OriginUser, Fragments: []string{"Oi"}},
		{Origin: model.OriginAgent, Fragments: []string{"Olá!", "Como posso ajudar?"}},
		{Origin: model.OriginAgent, Fragments: []string{"  "}},
		{Origin: model.OriginUser, Fragments: []string{"Quero trocar meu telefone"}},
	}}
}

func TestReconcileNoDuplicateWhenLiveMatchesTail(t *testing.T) {
	r := NewReconciler(history(), 0)
	got := r.Reconcile(context.Background(), "s1", " Quero trocar meu telefone ")
	want := "U: Oi\nA: Olá! Como posso ajudar?\nU: Quero trocar meu telefone"
	assert.Equal(t, want, got)
}

func TestReconcileAppendsExactlyOneLine(t *testing.T) {
	r := NewReconciler(history(), 0)
	got := r.Reconcile(context.Background(), "s1", "para 11 99999-8888")
	lines := strings.Split(got, "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "U: para 11 99999-8888", lines[3])
}

func TestReconcileHistoryFailureFailsSoft(t *testing.T) {
	h := &testutil.StaticHistory{Err: errors.New("timeout")}
	r := NewReconciler(h, 0)
	assert.Equal(t, "U: mudar email", r.Reconcile(context.Background(), "s1", "mudar email"))
	assert.Equal(t, 1, h.Calls)
}

func TestReconcileEmpty(t *testing.T) {
	r := NewReconciler(&testutil.StaticHistory{}, 0)
	assert.Empty(t, r.Reconcile(context.Background(), "s1", "   "))
}

func TestReconcileSkipsFetchWithoutSession(t *testing.T) {
	h := history()
	r := NewReconciler(h, 0)
	assert.Equal(t, "U: oi", r.Reconcile(context.Background(), "", "oi"))
	assert.Equal(t, 0, h.Calls)
}

func TestReconcileSettleDelayHonorsCancel(t *testing.T) {
	h := history()
	r := NewReconciler(h, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, "U: oi", r.Reconcile(ctx, "s1", "oi"))
	assert.Equal(t, 0, h.Calls)
}
