package event

import (
	"context"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/domain/payment"
)

// NopPublisher is used when RabbitMQ is disabled.
type NopPublisher struct{}

var (
	_ payment.EventPublisher = NopPublisher{}
	_ loan.Observer          = NopPublisher{}
)

func (NopPublisher) PaymentRecorded(context.Context, *payment.Payment) error { return nil }

func (NopPublisher) PaymentReversed(context.Context, *payment.Payment) error { return nil }

func (NopPublisher) LoanReconciled(context.Context, loan.Reconciliation) {}
