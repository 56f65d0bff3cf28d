package circulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestFineFor(t *testing.T) {
	due := day(0)

	tests := []struct {
		name       string
		returnedAt time.Time
		want       float64
	}{
		{"on time", due, 0},
		{"one hour early", due.Add(-time.Hour), 0},
		{"one hour late counts as one day", due.Add(time.Hour), 0.50},
		{"ten days late", day(10), 5.00},
		{"fifty days late hits the cap", day(50), 25.00},
		{"sixty days late stays capped", day(60), 25.00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FineFor(due, tt.returnedAt), 1e-9)
		})
	}
}

func TestDaysOverdue(t *testing.T) {
	due := day(0)
	assert.Equal(t, 0, DaysOverdue(due, due))
	assert.Equal(t, 1, DaysOverdue(due, due.Add(time.Minute)))
	assert.Equal(t, 1, DaysOverdue(due, due.Add(24*time.Hour)))
	assert.Equal(t, 2, DaysOverdue(due, due.Add(25*time.Hour)))
	assert.Equal(t, 0, DaysOverdue(time.Time{}, due))
}

func TestIsOverdue(t *testing.T) {
	due := day(0)
	assert.True(t, IsOverdue(StatusActive, due, day(1)))
	assert.False(t, IsOverdue(StatusActive, due, day(-1)))
	assert.False(t, IsOverdue(StatusCompleted, due, day(1)))
	assert.False(t, IsOverdue(StatusPending, due, day(1)))
	assert.False(t, IsOverdue(StatusLost, due, day(1)))
}

func TestLoanPeriodDays(t *testing.T) {
	assert.Equal(t, 21, LoanPeriodDays("physical"))
	assert.Equal(t, 14, LoanPeriodDays("digital"))
	assert.Equal(t, day(21), LoanDueDate(day(0), "physical"))
	assert.Equal(t, day(14), LoanDueDate(day(0), "digital"))
	assert.Equal(t, day(7), ReservationExpiry(day(0)))
}

func okBorrow() BorrowCheck {
	return BorrowCheck{
		BookActive:    true,
		BookCondition: "good",
		Available:     2,
		MemberActive:  true,
		ActiveLoans:   0,
		LoanLimit:     3,
	}
}

func TestCheckBorrow(t *testing.T) {
	require.NoError(t, CheckBorrow(okBorrow()))

	tests := []struct {
		name   string
		mutate func(*BorrowCheck)
		code   Code
	}{
		{"inactive member", func(b *BorrowCheck) { b.MemberActive = false }, CodeConflict},
		{"deleted book", func(b *BorrowCheck) { b.BookDeleted = true }, CodeUnavailable},
		{"inactive book", func(b *BorrowCheck) { b.BookActive = false }, CodeUnavailable},
		{"damaged book", func(b *BorrowCheck) { b.BookCondition = "damaged" }, CodeUnavailable},
		{"no copies", func(b *BorrowCheck) { b.Available = 0 }, CodeUnavailable},
		{"duplicate loan", func(b *BorrowCheck) { b.HasActiveLoan = true }, CodeDuplicateLoan},
		{"at loan limit", func(b *BorrowCheck) { b.ActiveLoans = 3 }, CodeLimitExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := okBorrow()
			tt.mutate(&in)
			err := CheckBorrow(in)
			require.Error(t, err)
			api, ok := err.(*APIError)
			require.True(t, ok)
			assert.Equal(t, tt.code, api.Code)
		})
	}
}

func TestCheckBorrowLimitCheckedAfterDuplicate(t *testing.T) {
	// A member at the limit who already holds the book gets the
	// duplicate error, not the limit error.
	in := okBorrow()
	in.HasActiveLoan = true
	in.ActiveLoans = 3
	err := CheckBorrow(in)
	require.Error(t, err)
	assert.Equal(t, CodeDuplicateLoan, err.(*APIError).Code)
}

func TestCheckReturn(t *testing.T) {
	require.NoError(t, CheckReturn(StatusActive))

	for _, status := range []string{StatusCompleted, StatusPending, StatusCancelled, StatusLost, StatusDamaged} {
		t.Run(status, func(t *testing.T) {
			err := CheckReturn(status)
			require.Error(t, err)
			assert.Equal(t, CodeNotActive, err.(*APIError).Code)
		})
	}
}

func okReserve() ReserveCheck {
	return ReserveCheck{
		BookActive:   true,
		MemberActive: true,
	}
}

func TestCheckReserve(t *testing.T) {
	require.NoError(t, CheckReserve(okReserve()))

	tests := []struct {
		name   string
		mutate func(*ReserveCheck)
		code   Code
	}{
		{"deleted book", func(r *ReserveCheck) { r.BookDeleted = true }, CodeNotFound},
		{"inactive book", func(r *ReserveCheck) { r.BookActive = false }, CodeUnavailable},
		{"inactive member", func(r *ReserveCheck) { r.MemberActive = false }, CodeConflict},
		{"already borrowed", func(r *ReserveCheck) { r.HasActiveLoan = true }, CodeDuplicateLoan},
		{"already reserved", func(r *ReserveCheck) { r.HasPendingReservation = true }, CodeDuplicateLoan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := okReserve()
			tt.mutate(&in)
			err := CheckReserve(in)
			require.Error(t, err)
			api, ok := err.(*APIError)
			require.True(t, ok)
			assert.Equal(t, tt.code, api.Code)
		})
	}
}

func TestCheckRenew(t *testing.T) {
	due := day(7)
	now := day(0)

	require.NoError(t, CheckRenew(StatusActive, TypeBorrow, 0, due, now))
	require.NoError(t, CheckRenew(StatusActive, TypeRenew, 2, due, now))

	err := CheckRenew(StatusActive, TypeBorrow, MaxRenewals, due, now)
	require.Error(t, err)
	assert.Equal(t, CodeNotRenewable, err.(*APIError).Code)

	err = CheckRenew(StatusCompleted, TypeReturn, 0, due, now)
	require.Error(t, err)
	assert.Equal(t, CodeNotRenewable, err.(*APIError).Code)

	// An overdue loan must be returned, not renewed.
	err = CheckRenew(StatusActive, TypeBorrow, 0, day(-1), now)
	require.Error(t, err)
	assert.Equal(t, CodeNotRenewable, err.(*APIError).Code)

	err = CheckRenew(StatusPending, TypeReserve, 0, due, now)
	require.Error(t, err)
	assert.Equal(t, CodeNotRenewable, err.(*APIError).Code)
}

func TestCheckFineTransition(t *testing.T) {
	require.NoError(t, CheckFineTransition(FinePending, FinePaid))
	require.NoError(t, CheckFineTransition(FinePending, FineWaived))
	require.NoError(t, CheckFineTransition(FinePending, FineDisputed))
	require.NoError(t, CheckFineTransition(FineDisputed, FinePaid))
	require.NoError(t, CheckFineTransition(FineDisputed, FineWaived))

	err := CheckFineTransition(FineDisputed, FineDisputed)
	require.Error(t, err)
	assert.Equal(t, CodeConflict, err.(*APIError).Code)

	err = CheckFineTransition(FinePaid, FineWaived)
	require.Error(t, err)
	assert.Equal(t, CodeConflict, err.(*APIError).Code)

	err = CheckFineTransition(FinePending, "forgiven")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)
}
