// Package command runs the write side: every operation that changes users,
// accounts or transactions, followed by read model upkeep and event
// publication once the change has committed.
package command

import (
	"context"

	"github.com/accountz/ledger-service/internal/ledger"
	"github.com/accountz/ledger-service/shared/cqrs"
	"github.com/accountz/ledger-service/shared/events"
	"github.com/accountz/ledger-service/shared/models"
	"go.uber.org/zap"
)

// AccountViewStore keeps the account read model in sync with the ledger.
type AccountViewStore interface {
	CacheAccountView(ctx context.Context, view *models.AccountView)
	InvalidateAccountView(ctx context.Context, accountNumbers ...string)
	RefreshAccountView(ctx context.Context, accountNumber string) error
	IsEventProcessed(ctx context.Context, eventID string) bool
	MarkEventProcessed(ctx context.Context, eventID string)
}

type TransactionViewStore interface {
	CacheTransactionView(ctx context.Context, view *models.TransactionView)
	InvalidateTransactionView(ctx context.Context, transactionIDs ...string)
}

// LedgerCommandService applies account and money movement commands through
// the ledger, then refreshes the read model and publishes domain events.
// Read model and publish failures are logged and never fail the command.
type LedgerCommandService struct {
	ledger       *ledger.Ledger
	accounts     AccountViewStore
	transactions TransactionViewStore
	publisher    events.Publisher
	logger       *zap.Logger
}

func NewLedgerCommandService(
	l *ledger.Ledger,
	accounts AccountViewStore,
	transactions TransactionViewStore,
	publisher events.Publisher,
	logger *zap.Logger,
) *LedgerCommandService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerCommandService{
		ledger:       l,
		accounts:     accounts,
		transactions: transactions,
		publisher:    publisher,
		logger:       logger,
	}
}

func (s *LedgerCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error) {
	account, err := s.ledger.CreateAccount(ctx, ledger.Caller{UserID: cmd.UserID})
	if err != nil {
		s.logFailure("create account", err, zap.String("userId", cmd.UserID))
		return nil, err
	}
	s.accounts.CacheAccountView(ctx, models.NewAccountView(account))
	s.publish(ctx, events.AccountEventsStream, events.AccountCreated, events.AccountCreatedEvent{
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
	})
	return account, nil
}

func (s *LedgerCommandService) CloseAccount(ctx context.Context, cmd cqrs.CloseAccountCommand) (*models.Account, error) {
	account, err := s.ledger.CloseAccount(ctx, ledger.Caller{UserID: cmd.RequestingUserID}, cmd.AccountNumber)
	if err != nil {
		s.logFailure("close account", err, zap.String("accountNumber", cmd.AccountNumber))
		return nil, err
	}
	s.accounts.CacheAccountView(ctx, models.NewAccountView(account))
	s.publish(ctx, events.AccountEventsStream, events.AccountClosed, events.AccountClosedEvent{
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
	})
	return account, nil
}

func (s *LedgerCommandService) Deposit(ctx context.Context, cmd cqrs.DepositCommand) (*models.Transaction, error) {
	caller := ledger.Caller{UserID: cmd.UserID}
	txn, err := s.ledger.Deposit(ctx, caller, cmd.AccountNumber, cmd.Amount)
	if err != nil {
		s.recordFailure(ctx, "deposit", caller, ledger.FailureRequest{AccountNumber: cmd.AccountNumber, Amount: cmd.Amount}, err)
		return nil, err
	}
	s.afterMovement(ctx, txn, events.TransactionSucceeded, cmd.AccountNumber)
	return txn, nil
}

func (s *LedgerCommandService) Withdraw(ctx context.Context, cmd cqrs.WithdrawCommand) (*models.Transaction, error) {
	caller := ledger.Caller{UserID: cmd.UserID}
	txn, err := s.ledger.Withdraw(ctx, caller, cmd.AccountNumber, cmd.Amount)
	if err != nil {
		s.recordFailure(ctx, "withdraw", caller, ledger.FailureRequest{AccountNumber: cmd.AccountNumber, Amount: cmd.Amount}, err)
		return nil, err
	}
	s.afterMovement(ctx, txn, events.TransactionSucceeded, cmd.AccountNumber)
	return txn, nil
}

func (s *LedgerCommandService) Transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.Transaction, error) {
	caller := ledger.Caller{UserID: cmd.UserID}
	req := ledger.TransferRequest{
		SenderAccountNumber:   cmd.SenderAccountNumber,
		ReceiverAccountNumber: cmd.ReceiverAccountNumber,
		Amount:                cmd.Amount,
	}
	if cmd.Identity != nil {
		req.Identity = &ledger.Identity{
			Name:      cmd.Identity.Name,
			BirthDate: cmd.Identity.BirthDate,
			Email:     cmd.Identity.Email,
			Password:  cmd.Identity.Password,
		}
	}
	txn, err := s.ledger.Transfer(ctx, caller, req)
	if err != nil {
		s.recordFailure(ctx, "transfer", caller, ledger.FailureRequest{
			AccountNumber:         cmd.SenderAccountNumber,
			ReceiverAccountNumber: cmd.ReceiverAccountNumber,
			Amount:                cmd.Amount,
		}, err)
		return nil, err
	}
	s.afterMovement(ctx, txn, events.TransactionSucceeded, cmd.SenderAccountNumber, cmd.ReceiverAccountNumber)
	return txn, nil
}

func (s *LedgerCommandService) CancelTransaction(ctx context.Context, cmd cqrs.CancelTransactionCommand) (*models.Transaction, error) {
	caller := ledger.Caller{UserID: cmd.UserID}
	txn, err := s.ledger.Cancel(ctx, caller, ledger.CancelRequest{
		TransactionID:         cmd.TransactionID,
		SenderAccountNumber:   cmd.SenderAccountNumber,
		ReceiverAccountNumber: cmd.ReceiverAccountNumber,
		Amount:                cmd.Amount,
	})
	if err != nil {
		s.recordFailure(ctx, "cancel", caller, ledger.FailureRequest{
			AccountNumber:         cmd.SenderAccountNumber,
			ReceiverAccountNumber: cmd.ReceiverAccountNumber,
			Amount:                cmd.Amount,
		}, err)
		return nil, err
	}

	s.transactions.InvalidateTransactionView(ctx, cmd.TransactionID)
	s.accounts.InvalidateAccountView(ctx, cmd.SenderAccountNumber, cmd.ReceiverAccountNumber)
	s.transactions.CacheTransactionView(ctx, models.NewTransactionView(txn))
	s.publish(ctx, events.TransactionEventsStream, events.TransactionCancelled, events.TransactionCancelledEvent{
		TransactionEvent:       transactionEvent(txn, cmd.SenderAccountNumber, cmd.ReceiverAccountNumber),
		CancelledTransactionID: cmd.TransactionID,
	})
	return txn, nil
}

// recordFailure appends a FAIL record for a rejected money movement. Nothing
// is recorded when the accounts could not be resolved or storage failed.
func (s *LedgerCommandService) recordFailure(ctx context.Context, op string, caller ledger.Caller, req ledger.FailureRequest, cause error) {
	s.logFailure(op, cause,
		zap.String("userId", caller.UserID),
		zap.String("accountNumber", req.AccountNumber),
		zap.Int64("amount", req.Amount),
	)
	switch ledger.KindOf(cause) {
	case ledger.KindNotFound, ledger.KindPersistence:
		return
	}
	if req.Amount <= 0 {
		return
	}

	txn, err := s.ledger.RecordFailure(ctx, caller, req)
	if err != nil {
		s.logger.Error("failed to record failed transaction",
			zap.String("operation", op),
			zap.String("accountNumber", req.AccountNumber),
			zap.Error(err),
		)
		return
	}
	s.transactions.CacheTransactionView(ctx, models.NewTransactionView(txn))
	s.publish(ctx, events.TransactionEventsStream, events.TransactionFailed,
		transactionEvent(txn, txn.AccountNumber))
}

func (s *LedgerCommandService) afterMovement(ctx context.Context, txn *models.Transaction, eventType string, accountNumbers ...string) {
	s.accounts.InvalidateAccountView(ctx, accountNumbers...)
	s.transactions.CacheTransactionView(ctx, models.NewTransactionView(txn))
	s.publish(ctx, events.TransactionEventsStream, eventType, transactionEvent(txn, accountNumbers...))
}

// HandleLedgerEvent refreshes the account read model from committed state.
// Duplicate deliveries are detected through the processed-event marker.
func (s *LedgerCommandService) HandleLedgerEvent(ctx context.Context, event events.Event) error {
	var (
		key      string
		accounts []string
	)
	switch event.Type {
	case events.TransactionSucceeded, events.TransactionFailed, events.TransactionCancelled:
		var data events.TransactionEvent
		if err := event.Decode(&data); err != nil {
			return err
		}
		key, accounts = event.Type+":"+data.TransactionID, data.AccountNumbers
	case events.AccountCreated, events.AccountClosed:
		var data events.AccountCreatedEvent
		if err := event.Decode(&data); err != nil {
			return err
		}
		key, accounts = event.Type+":"+data.AccountNumber, []string{data.AccountNumber}
	default:
		return nil
	}

	if s.accounts.IsEventProcessed(ctx, key) {
		s.logger.Debug("event already processed, skipping", zap.String("event", key))
		return nil
	}
	for _, n := range accounts {
		if err := s.accounts.RefreshAccountView(ctx, n); err != nil {
			return err
		}
	}
	s.accounts.MarkEventProcessed(ctx, key)
	return nil
}

func (s *LedgerCommandService) publish(ctx context.Context, stream, eventType string, data any) {
	if err := s.publisher.Publish(ctx, stream, eventType, data); err != nil {
		s.logger.Error("failed to publish event", zap.String("eventType", eventType), zap.Error(err))
	}
}

// logFailure logs business rule rejections at Warn and everything else at Error.
func (s *LedgerCommandService) logFailure(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("operation", op), zap.String("code", ledger.CodeOf(err)), zap.Error(err))
	if ledger.KindOf(err) == ledger.KindPersistence {
		s.logger.Error("ledger operation failed", fields...)
		return
	}
	s.logger.Warn("ledger operation rejected", fields...)
}

func transactionEvent(txn *models.Transaction, accountNumbers ...string) events.TransactionEvent {
	return events.TransactionEvent{
		TransactionID:             txn.TransactionID,
		UserID:                    txn.UserID,
		AccountNumber:             txn.AccountNumber,
		CounterpartyAccountNumber: txn.CounterpartyAccountNumber,
		Type:                      string(txn.Type),
		Result:                    string(txn.Result),
		Amount:                    txn.Amount,
		BalanceSnapshot:           txn.BalanceSnapshot,
		AccountNumbers:            accountNumbers,
	}
}
