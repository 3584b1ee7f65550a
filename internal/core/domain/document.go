package domain

import "time"

// DocumentStage is the paperwork workflow stage attached to a transfer request.
// Values are wire-stable.
type DocumentStage string

const (
	StageRequested DocumentStage = "requested"
	StageClient    DocumentStage = "client"
	StageManager   DocumentStage = "manager"
	StageReview    DocumentStage = "review"
	StageWaiting   DocumentStage = "waiting"
	StageCancelled DocumentStage = "cancelled"
	StageReady     DocumentStage = "ready"
	StageRecurring DocumentStage = "recurring"
	StageSent      DocumentStage = "sent"
	StageReceived  DocumentStage = "received"
)

// ValidDocumentStage reports whether s is a member of the closed stage set.
func ValidDocumentStage(s DocumentStage) bool {
	switch s {
	case StageRequested, StageClient, StageManager, StageReview, StageWaiting,
		StageCancelled, StageReady, StageRecurring, StageSent, StageReceived:
		return true
	}
	return false
}

// Document tracks the paperwork workflow for one transfer request,
// independently of the money movement. At most one exists per request.
// Status is derived display text, regenerated whenever the stage changes;
// it is only ever hand-set through the manual-edit override.
type Document struct {
	DocumentID   int64         `json:"documentID"`
	RequestID    int64         `json:"requestID"`
	AccountID    int64         `json:"accountID"`
	Stage        DocumentStage `json:"stage"`
	Status       string        `json:"status"`
	DocumentLink string        `json:"documentLink"`
	SendBy       time.Time     `json:"sendBy"`
	AuditFields
}
