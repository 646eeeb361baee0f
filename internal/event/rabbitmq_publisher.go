package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/domain/payment"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RoutingKeyPaymentRecorded = "payment.recorded"
	RoutingKeyPaymentReversed = "payment.reversed"
	RoutingKeyLoanReconciled  = "loan.reconciled"
	RoutingKeyLoanPaid        = "loan.paid"
	RoutingKeyLoanReopened    = "loan.reopened"
	publisherAppID            = "microfinance-backend"
)

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// ChannelOpener opens a fresh channel per publish.
type ChannelOpener func() (Channel, error)

// ConnectionOpener adapts a live connection.
func ConnectionOpener(conn *amqp.Connection) ChannelOpener {
	return func() (Channel, error) {
		return conn.Channel()
	}
}

type RabbitMQEventPublisher struct {
	open         ChannelOpener
	exchangeName string
	logger       *slog.Logger
}

var (
	_ payment.EventPublisher = (*RabbitMQEventPublisher)(nil)
	_ loan.Observer          = (*RabbitMQEventPublisher)(nil)
)

type PaymentEvent struct {
	PaymentID      string       `json:"paymentId"`
	LoanID         string       `json:"loanId"`
	BorrowerID     string       `json:"borrowerId"`
	AgentID        string       `json:"agentId"`
	Amount         string       `json:"amount"`
	Mode           payment.Mode `json:"mode"`
	Reversed       bool         `json:"reversed"`
	ReversedBy     string       `json:"reversedBy,omitempty"`
	ReversalReason string       `json:"reversalReason,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
}

type LoanReconciledEvent struct {
	LoanID            string      `json:"loanId"`
	BorrowerID        string      `json:"borrowerId"`
	Status            loan.Status `json:"status"`
	PreviousStatus    loan.Status `json:"previousStatus"`
	TotalPaid         string      `json:"totalPaid"`
	PreviousTotalPaid string      `json:"previousTotalPaid"`
	RemainingAmount   string      `json:"remainingAmount"`
	Timestamp         time.Time   `json:"timestamp"`
}

func NewRabbitMQEventPublisher(open ChannelOpener, exchangeName string, logger *slog.Logger) (*RabbitMQEventPublisher, error) {
	if open == nil {
		return nil, fmt.Errorf("RabbitMQ channel opener cannot be nil")
	}
	if exchangeName == "" {
		return nil, fmt.Errorf("RabbitMQ exchange name cannot be empty")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	tempCh, err := open()
	if err != nil {
		return nil, fmt.Errorf("failed to open temporary channel for exchange declaration: %w", err)
	}
	defer tempCh.Close()

	err = tempCh.ExchangeDeclare(
		exchangeName,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchangeName, err)
	}
	logger.Info("Ensured RabbitMQ exchange exists", "exchange", exchangeName, "type", amqp.ExchangeTopic)

	return &RabbitMQEventPublisher{
		open:         open,
		exchangeName: exchangeName,
		logger:       logger.With("component", "RabbitMQEventPublisher", "exchange", exchangeName),
	}, nil
}

func newPaymentEvent(p *payment.Payment) PaymentEvent {
	return PaymentEvent{
		PaymentID:      p.ID,
		LoanID:         p.LoanID,
		BorrowerID:     p.BorrowerID,
		AgentID:        p.AgentID,
		Amount:         p.Amount.StringFixed(2),
		Mode:           p.Mode,
		Reversed:       p.Reversed,
		ReversedBy:     p.ReversedBy,
		ReversalReason: p.ReversalReason,
		Timestamp:      time.Now().UTC(),
	}
}

func (p *RabbitMQEventPublisher) PaymentRecorded(ctx context.Context, pay *payment.Payment) error {
	return p.publish(ctx, RoutingKeyPaymentRecorded, newPaymentEvent(pay))
}

func (p *RabbitMQEventPublisher) PaymentReversed(ctx context.Context, pay *payment.Payment) error {
	return p.publish(ctx, RoutingKeyPaymentReversed, newPaymentEvent(pay))
}

// reconciledRoutingKey picks loan.paid or loan.reopened on a paid-state
// flip and loan.reconciled otherwise.
func reconciledRoutingKey(rec loan.Reconciliation) string {
	switch {
	case rec.Loan.Status == loan.StatusPaid && rec.PreviousStatus != loan.StatusPaid:
		return RoutingKeyLoanPaid
	case rec.Reopened():
		return RoutingKeyLoanReopened
	}
	return RoutingKeyLoanReconciled
}

// LoanReconciled publishes only when the reconciliation changed something.
// Failures are logged; the loan is already committed.
func (p *RabbitMQEventPublisher) LoanReconciled(ctx context.Context, rec loan.Reconciliation) {
	if rec.Loan == nil || !rec.Changed() {
		return
	}
	event := LoanReconciledEvent{
		LoanID:            rec.Loan.ID,
		BorrowerID:        rec.Loan.BorrowerID,
		Status:            rec.Loan.Status,
		PreviousStatus:    rec.PreviousStatus,
		TotalPaid:         rec.Loan.TotalPaid.StringFixed(2),
		PreviousTotalPaid: rec.PreviousTotalPaid.StringFixed(2),
		RemainingAmount:   rec.Loan.RemainingAmount.StringFixed(2),
		Timestamp:         time.Now().UTC(),
	}
	if err := p.publish(ctx, reconciledRoutingKey(rec), event); err != nil {
		p.logger.WarnContext(ctx, "Dropped loan reconciliation event", "loanID", rec.Loan.ID, "error", err)
	}
}

func (p *RabbitMQEventPublisher) publish(ctx context.Context, routingKey string, payload any) error {
	logCtx := p.logger.With(slog.String("routingKey", routingKey))

	channel, err := p.open()
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to open RabbitMQ channel", slog.Any("error", err))
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer channel.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to marshal event payload to JSON", slog.Any("error", err))
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	logCtx.DebugContext(ctx, "Publishing message", "bodySize", len(body))

	err = channel.PublishWithContext(
		ctx,
		p.exchangeName,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
			AppId:        publisherAppID,
		},
	)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to publish message to RabbitMQ", slog.Any("error", err))
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logCtx.InfoContext(ctx, "Successfully published message")
	return nil
}
