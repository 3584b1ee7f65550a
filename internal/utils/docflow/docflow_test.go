package docflow

import (
	"testing"

	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestInitialStage(t *testing.T) {
	assert.Equal(t, domain.StageWaiting, InitialStage(domain.Credit))
	assert.Equal(t, domain.StageReady, InitialStage(domain.Debit))
}

func TestNextStage_TransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		current domain.DocumentStage
		ev      Event
		want    domain.DocumentStage
	}{
		{"approved credit is received", domain.StageWaiting, Event{Status: domain.StatusApproved, Type: domain.Credit}, domain.StageReceived},
		{"approved debit is sent", domain.StageReady, Event{Status: domain.StatusApproved, Type: domain.Debit}, domain.StageSent},
		{"recurring maps to recurring", domain.StageReady, Event{Status: domain.StatusRecurring, Type: domain.Debit}, domain.StageRecurring},
		{"declined cancels", domain.StageWaiting, Event{Status: domain.StatusDeclined, Type: domain.Credit}, domain.StageCancelled},
		{"voided cancels", domain.StageRecurring, Event{Status: domain.StatusVoided, Type: domain.Debit}, domain.StageCancelled},
		{"operations deleted forces review over any status", domain.StageSent, Event{Status: domain.StatusApproved, Type: domain.Debit, OperationsDeleted: true}, domain.StageReview},
		{"pending leaves stage unchanged", domain.StageClient, Event{Status: domain.StatusPending, Type: domain.Credit}, domain.StageClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStage(tt.current, tt.ev))
		})
	}
}

// NextStage is a pure function: identical inputs always produce identical
// outputs across repeated calls.
func TestNextStage_Deterministic(t *testing.T) {
	ev := Event{Status: domain.StatusApproved, Type: domain.Debit}
	first := NextStage(domain.StageReady, ev)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, NextStage(domain.StageReady, ev))
	}
}

func TestStatusText(t *testing.T) {
	assert.Equal(t,
		"Funds sent to account ending 6789, wire confirmation WX-1",
		StatusText(domain.StageSent, domain.Debit, "6789", "WX-1"))
	assert.Equal(t, "Funds sent", StatusText(domain.StageSent, domain.Debit, "", ""))
	assert.Equal(t, "Funds received from account ending 4321", StatusText(domain.StageReceived, domain.Credit, "4321", ""))
	assert.Equal(t, "Operations under review", StatusText(domain.StageReview, domain.Debit, "", ""))
	assert.Equal(t, "No document required", StatusText(domain.StageReady, domain.Debit, "", ""))
	assert.Equal(t, "Transfer cancelled", StatusText(domain.StageCancelled, domain.Credit, "", ""))
}
