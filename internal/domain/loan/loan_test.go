package loan

import (
	"microfinance-backend/internal/pkg/apperrors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoan(t *testing.T) {
	l, err := NewLoan(NewLoanParams{BorrowerID: "b-1", Amount: d("25000"), TenureMonths: 12})
	require.NoError(t, err)

	assert.True(t, l.TotalPaid.IsZero())
	assert.True(t, l.RemainingAmount.Equal(d("25000")))
	assert.Equal(t, FrequencyMonthly, l.Frequency)
	assert.Equal(t, StatusPending, l.Status)
}

func TestNewLoan_Invalid(t *testing.T) {
	_, err := NewLoan(NewLoanParams{Amount: decimal.Zero})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = NewLoan(NewLoanParams{Amount: d("10"), TenureMonths: -1})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = NewLoan(NewLoanParams{Amount: d("10"), Frequency: "yearly"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestBorrowerContactDisplayName(t *testing.T) {
	assert.Equal(t, "Asha", (&BorrowerContact{Name: "Asha", FirstName: "X"}).DisplayName())
	assert.Equal(t, "Asha Rao", (&BorrowerContact{FirstName: "Asha", LastName: "Rao"}).DisplayName())
	assert.Equal(t, "Rao", (&BorrowerContact{LastName: "Rao"}).DisplayName())
	assert.Equal(t, "Borrower", (&BorrowerContact{}).DisplayName())
	assert.Equal(t, "Borrower", (*BorrowerContact)(nil).DisplayName())
}
