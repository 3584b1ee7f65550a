package services

import (
	portsrepo "github.com/harborpoint/fund_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/harborpoint/fund_backoffice_app/internal/core/ports/services"
	"github.com/harborpoint/fund_backoffice_app/internal/platform/config"
	"github.com/harborpoint/fund_backoffice_app/internal/platform/email"
	"github.com/harborpoint/fund_backoffice_app/internal/utils/reconciliation"
	"github.com/shopspring/decimal"
)

// NewServiceContainer wires all application services from the repository
// provider and runtime configuration.
func NewServiceContainer(cfg *config.Config, repos *portsrepo.RepositoryProvider, sender email.Sender) *portssvc.ServiceContainer {
	if sender == nil {
		sender = email.NopSender{}
	}

	tolerance := reconciliation.DefaultTolerance
	if parsed, err := decimal.NewFromString(cfg.ReconTolerance); err == nil && parsed.IsPositive() {
		tolerance = parsed
	}

	accountSvc := NewAccountService(
		repos.AccountRepo,
		repos.RequestRepo,
		repos.OperationRepo,
		repos.StatementRepo,
		tolerance,
	)
	requestSvc := NewRequestService(
		repos.RequestRepo,
		repos.OperationRepo,
		repos.DocumentRepo,
		repos.AccountRepo,
		repos.StatementRepo,
		repos.UserRepo,
		WithEmailSender(sender),
	)
	statementSvc := NewStatementService(
		repos.AccountRepo,
		repos.StatementRepo,
		repos.OperationRepo,
		sender,
		cfg.EmailPace,
	)
	userSvc := NewUserService(repos.UserRepo)
	tokenSvc := NewTokenService(cfg.JWTSecret, cfg.JWTExpiryDuration, cfg.JWTIssuer)

	return &portssvc.ServiceContainer{
		Account:   accountSvc,
		Request:   requestSvc,
		Statement: statementSvc,
		User:      userSvc,
		Token:     tokenSvc,
	}
}
