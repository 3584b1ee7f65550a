// Package docflow holds the document stage transition table and the derived
// status text. Every call site that moves paperwork between stages goes
// through NextStage so the mapping can never drift between callers.
package docflow

import (
	"fmt"

	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
)

// Event is the tagged input of the transition table: the request status being
// applied, the transfer type, and whether the request's operations were just
// deleted (which forces a review regardless of status).
type Event struct {
	Status            domain.RequestStatus
	Type              domain.TransferType
	OperationsDeleted bool
}

// InitialStage is the stage a document is created in. A debit needs no
// paperwork before posting, so it starts terminal-ready; a credit waits on the
// client's signed instruction.
func InitialStage(t domain.TransferType) domain.DocumentStage {
	if t == domain.Credit {
		return domain.StageWaiting
	}
	return domain.StageReady
}

// NextStage maps a request transition onto the document stage. It is pure and
// total: inputs outside the table leave the current stage unchanged.
func NextStage(current domain.DocumentStage, ev Event) domain.DocumentStage {
	if ev.OperationsDeleted {
		return domain.StageReview
	}
	switch ev.Status {
	case domain.StatusApproved:
		if ev.Type == domain.Credit {
			return domain.StageReceived
		}
		return domain.StageSent
	case domain.StatusRecurring:
		return domain.StageRecurring
	case domain.StatusDeclined, domain.StatusVoided:
		return domain.StageCancelled
	}
	return current
}

// StatusText regenerates the human-readable document status from the stage and
// its context. bankEnding and wireConfirmation may be empty; text degrades
// gracefully without them.
func StatusText(stage domain.DocumentStage, t domain.TransferType, bankEnding, wireConfirmation string) string {
	switch stage {
	case domain.StageRequested:
		return "Document requested from client"
	case domain.StageClient:
		return "Document with client"
	case domain.StageManager:
		return "Document with fund manager"
	case domain.StageReview:
		return "Operations under review"
	case domain.StageWaiting:
		return "Waiting for signed transfer instruction"
	case domain.StageCancelled:
		return "Transfer cancelled"
	case domain.StageReady:
		return "No document required"
	case domain.StageRecurring:
		return "Recurring transfer active"
	case domain.StageSent:
		text := "Funds sent"
		if bankEnding != "" {
			text = fmt.Sprintf("%s to account ending %s", text, bankEnding)
		}
		if wireConfirmation != "" {
			text = fmt.Sprintf("%s, wire confirmation %s", text, wireConfirmation)
		}
		return text
	case domain.StageReceived:
		if bankEnding != "" {
			return fmt.Sprintf("Funds received from account ending %s", bankEnding)
		}
		return "Funds received"
	}
	return string(stage)
}
