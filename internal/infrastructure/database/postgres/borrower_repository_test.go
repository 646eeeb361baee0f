package postgres

import (
	"microfinance-backend/internal/domain/borrower"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/pkg/apperrors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var borrowerColumnNames = []string{
	"id", "name", "first_name", "last_name", "email", "phone", "date_of_birth", "address", "city", "state",
	"pincode", "assigned_agent", "status", "approval_status", "approved_by", "approved_at", "rejected_by", "rejected_at",
	"rejection_reason", "created_at",
}

func testBorrower() *borrower.Borrower {
	return &borrower.Borrower{
		ID:             "0f2d4c36-8f0e-4d5a-a1d4-0a5f7c1e9b22",
		Name:           "Asha Rao",
		FirstName:      "Asha",
		LastName:       "Rao",
		Phone:          "9876543210",
		Address:        "12 MG Road",
		City:           "Pune",
		State:          "MH",
		Pincode:        "411001",
		AssignedAgent:  "AG123456",
		Status:         borrower.StatusActive,
		ApprovalStatus: borrower.ApprovalPending,
		CreatedAt:      time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC),
	}
}

func borrowerRow(b *borrower.Borrower) []any {
	return []any{
		b.ID, b.Name, b.FirstName, b.LastName, b.Email, b.Phone, b.DateOfBirth, b.Address, b.City, b.State,
		b.Pincode, b.AssignedAgent, b.Status, b.ApprovalStatus, b.ApprovedBy, b.ApprovedAt, b.RejectedBy, b.RejectedAt,
		b.RejectionReason, b.CreatedAt,
	}
}

func TestCreateBorrowerWithLoan(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewBorrowerRepository(mockPool, logger)

	b := testBorrower()
	l := testLoan()
	l.ID = ""
	l.BorrowerID = ""
	stored := testLoan()

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO borrowers")).
		WithArgs(b.ID, b.Name, b.FirstName, b.LastName, b.Email, b.Phone, b.DateOfBirth, b.Address, b.City, b.State,
			b.Pincode, b.AssignedAgent, b.Status, b.ApprovalStatus).
		WillReturnRows(pgxmock.NewRows(borrowerColumnNames).AddRow(borrowerRow(b)...))
	mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO loans AS l")).
		WithArgs(pgxmock.AnyArg(), b.ID, l.Amount, l.TotalPaid, l.RemainingAmount, l.InterestRatePercent,
			l.TenureMonths, l.Frequency, l.Purpose, l.AssignedAgent, l.Status).
		WillReturnRows(pgxmock.NewRows(loanColumnNames).AddRow(loanRow(stored)...))
	mockPool.ExpectCommit()

	created, err := repo.CreateBorrower(ctx, b, l)

	require.NoError(t, err)
	assert.Equal(t, b.ID, created.ID)
	require.Len(t, created.Loans, 1)
	assert.Equal(t, stored.ID, created.Loans[0].ID)
	assert.NotEmpty(t, l.ID)
	assert.Equal(t, b.ID, l.BorrowerID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCreateBorrowerRollsBackWhenLoanFails(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewBorrowerRepository(mockPool, logger)
	b := testBorrower()

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO borrowers")).
		WillReturnRows(pgxmock.NewRows(borrowerColumnNames).AddRow(borrowerRow(b)...))
	mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO loans AS l")).
		WillReturnError(assert.AnError)
	mockPool.ExpectRollback()

	_, err := repo.CreateBorrower(ctx, b, testLoan())

	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestGetBorrowerByIDNotFound(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewBorrowerRepository(mockPool, logger)

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM borrowers WHERE id = $1")).
		WithArgs("nobody").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetBorrowerByID(ctx, "nobody")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListLoansByBorrowerIDsGroups(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewBorrowerRepository(mockPool, logger)

	newer := testLoan()
	newer.ID = "l-new"
	older := testLoan()
	older.ID = "l-old"
	other := testLoan()
	other.ID = "l-other"
	other.BorrowerID = "b-2"

	mockPool.ExpectQuery(regexp.QuoteMeta("WHERE l.borrower_id = ANY($1) ORDER BY l.created_at DESC")).
		WithArgs([]string{newer.BorrowerID, "b-2"}).
		WillReturnRows(pgxmock.NewRows(loanColumnNames).
			AddRow(loanRow(newer)...).
			AddRow(loanRow(other)...).
			AddRow(loanRow(older)...))

	grouped, err := repo.ListLoansByBorrowerIDs(ctx, []string{newer.BorrowerID, "b-2"})

	require.NoError(t, err)
	require.Len(t, grouped[newer.BorrowerID], 2)
	assert.Equal(t, "l-new", grouped[newer.BorrowerID][0].ID)
	assert.Equal(t, "l-old", grouped[newer.BorrowerID][1].ID)
	assert.Len(t, grouped["b-2"], 1)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestListLoansByBorrowerIDsEmptySkipsQuery(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewBorrowerRepository(mockPool, logger)

	grouped, err := repo.ListLoansByBorrowerIDs(ctx, nil)

	assert.NoError(t, err)
	assert.Empty(t, grouped)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateBorrowerWritesOnlyGivenFields(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewBorrowerRepository(mockPool, logger)

	b := testBorrower()
	name := "Asha R."
	status := borrower.StatusSuspended
	b.Name = name
	b.Status = status

	mockPool.ExpectQuery(regexp.QuoteMeta("UPDATE borrowers SET name = $1, status = $2 WHERE id = $3 RETURNING")).
		WithArgs(name, status, b.ID).
		WillReturnRows(pgxmock.NewRows(borrowerColumnNames).AddRow(borrowerRow(b)...))

	updated, err := repo.UpdateBorrower(ctx, b.ID, borrower.Update{Name: &name, Status: &status})

	require.NoError(t, err)
	assert.Equal(t, borrower.StatusSuspended, updated.Status)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDeleteBorrowerCascade(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewBorrowerRepository(mockPool, logger)

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM payments")).
		WithArgs("b-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM loans WHERE borrower_id = $1")).
		WithArgs("b-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM borrowers WHERE id = $1")).
		WithArgs("b-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mockPool.ExpectCommit()

	err := repo.DeleteBorrowerCascade(ctx, "b-1")

	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDeleteBorrowerCascadeNotFoundRollsBack(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewBorrowerRepository(mockPool, logger)

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM payments")).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM loans")).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM borrowers")).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectRollback()

	err := repo.DeleteBorrowerCascade(ctx, "b-404")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSetApprovalInTxApproved(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewBorrowerRepository(mockPool, logger)
	tx := beginTx(t, ctx, mockPool)

	b := testBorrower()
	approvedAt := time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC)
	b.ApprovalStatus = borrower.ApprovalApproved
	b.ApprovedBy = "manager"
	b.ApprovedAt = &approvedAt

	mockPool.ExpectQuery(regexp.QuoteMeta("SET approval_status = $1, approved_by = $2, approved_at = NOW()")).
		WithArgs(borrower.ApprovalApproved, "manager", b.ID).
		WillReturnRows(pgxmock.NewRows(borrowerColumnNames).AddRow(borrowerRow(b)...))

	got, err := repo.SetApprovalInTx(ctx, tx, b.ID, borrower.ApprovalApproved, "manager", "")

	require.NoError(t, err)
	assert.Equal(t, borrower.ApprovalApproved, got.ApprovalStatus)
	assert.Equal(t, &approvedAt, got.ApprovedAt)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSetApprovalInTxRejectsUnknownDecision(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewBorrowerRepository(mockPool, logger)
	tx := beginTx(t, ctx, mockPool)

	_, err := repo.SetApprovalInTx(ctx, tx, "b-1", borrower.ApprovalPending, "manager", "")

	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestSetLoanStatusesInTxSkipsLockedStatuses(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewBorrowerRepository(mockPool, logger)
	tx := beginTx(t, ctx, mockPool)

	mockPool.ExpectExec(regexp.QuoteMeta("WHERE borrower_id = $2 AND NOT (status = ANY($3))")).
		WithArgs(loan.StatusRejected, "b-1", []string{"paid", "cancelled", "closed"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	n, err := repo.SetLoanStatusesInTx(ctx, tx, "b-1", loan.StatusRejected,
		[]loan.Status{loan.StatusPaid, loan.StatusCancelled, loan.StatusClosed})

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
