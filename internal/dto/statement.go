package dto

import (
	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountResult carries one account's externally supplied trade results for a
// statement run: gain/loss and fees come from the trading system, not from
// this service.
type AccountResult struct {
	AccountID  int64           `json:"accountID" binding:"required"`
	GainLoss   decimal.Decimal `json:"gainLoss"`
	PerfFee    decimal.Decimal `json:"perfFee"`
	FmFee      decimal.Decimal `json:"fmFee"`
	Percentage decimal.Decimal `json:"percentage"`
}

// GenerateStatementsRequest starts a statement batch run. An empty AccountIDs
// targets every open account.
type GenerateStatementsRequest struct {
	Month      int             `json:"month" binding:"required,month"`
	Year       int             `json:"year" binding:"required,min=1970"`
	AccountIDs []int64         `json:"accountIDs"`
	Results    []AccountResult `json:"results"`
	SendEmail  bool            `json:"sendEmail"`
}

// ResultFor returns the supplied trade results for an account, or a zero
// result when the trading system reported nothing for it.
func (r GenerateStatementsRequest) ResultFor(accountID int64) AccountResult {
	for _, res := range r.Results {
		if res.AccountID == accountID {
			return res
		}
	}
	return AccountResult{AccountID: accountID}
}

// StatementResponse is the API shape of a monthly statement.
type StatementResponse struct {
	StatementID int64           `json:"statementID"`
	AccountID   int64           `json:"accountID"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	EndBalance  decimal.Decimal `json:"endBalance"`
	GainLoss    decimal.Decimal `json:"gainLoss"`
	PerfFee     decimal.Decimal `json:"perfFee"`
	FmFee       decimal.Decimal `json:"fmFee"`
	Percentage  decimal.Decimal `json:"percentage"`
}

// ToStatementResponse converts a domain.Statement to its API shape.
func ToStatementResponse(s *domain.Statement) StatementResponse {
	return StatementResponse{
		StatementID: s.StatementID,
		AccountID:   s.AccountID,
		Month:       s.Month,
		Year:        s.Year,
		EndBalance:  s.EndBalance,
		GainLoss:    s.GainLoss,
		PerfFee:     s.PerfFee,
		FmFee:       s.FmFee,
		Percentage:  s.Percentage,
	}
}

// ToStatementResponses converts a slice of statements.
func ToStatementResponses(statements []domain.Statement) []StatementResponse {
	out := make([]StatementResponse, len(statements))
	for i := range statements {
		out[i] = ToStatementResponse(&statements[i])
	}
	return out
}

// ProgressEventType enumerates batch progress events. Values are wire-stable.
type ProgressEventType string

const (
	EventPopulateStarted    ProgressEventType = "populate_started"
	EventPopulatedStatement ProgressEventType = "populated_statement"
	EventPopulateInfo       ProgressEventType = "populate_info"
	EventPopulateError      ProgressEventType = "populate_error"
	EventPopulateComplete   ProgressEventType = "populate_complete"
	EventEmailStarted       ProgressEventType = "email_started"
	EventEmailSent          ProgressEventType = "email_sent"
	EventEmailComplete      ProgressEventType = "email_complete"
)

// ProgressEvent is one entry in the ordered batch progress stream. Only the
// fields relevant to the event type are populated.
type ProgressEvent struct {
	Type      ProgressEventType  `json:"type"`
	Statement *StatementResponse `json:"statement,omitempty"` // populated_statement
	Message   string             `json:"message,omitempty"`   // populate_info / populate_error
	Total     int                `json:"total,omitempty"`     // email_started
	EachMS    int                `json:"eachMS,omitempty"`    // email_started
	AccountID int64              `json:"accountId,omitempty"` // email_sent
	Emailed   *bool              `json:"emailed,omitempty"`   // email_sent
}
