package circulation

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDGen struct{ n int }

func (g *seqIDGen) NewULID() (string, error) {
	g.n++
	return "01TESTULID" + string(rune('A'+g.n-1)), nil
}

// fakeLoanStore records the last call and plays back canned results.
type fakeLoanStore struct {
	borrowErr  error
	borrowed   *Transaction
	returned   *Transaction
	returnErr  error
	renewed    *Transaction
	renewErr   error
	renewDays  int
	reserveErr error
	got        *Transaction
	closed     *Transaction
	closeFee   float64
	closeKind  string
}

func (f *fakeLoanStore) ExecBorrow(_ context.Context, t *Transaction, now time.Time) error {
	if f.borrowErr != nil {
		return f.borrowErr
	}
	t.Status = StatusActive
	t.BorrowDate = sql.NullTime{Time: now, Valid: true}
	t.DueDate = sql.NullTime{Time: now.AddDate(0, 0, PhysicalLoanDays), Valid: true}
	t.FineStatus = FineNone
	f.borrowed = t
	return nil
}

func (f *fakeLoanStore) ExecReturn(context.Context, string, *string, *string, time.Time) (*Transaction, error) {
	return f.returned, f.returnErr
}

func (f *fakeLoanStore) ExecRenew(_ context.Context, _ string, days int, _ time.Time) (*Transaction, error) {
	f.renewDays = days
	return f.renewed, f.renewErr
}

func (f *fakeLoanStore) ExecReserve(_ context.Context, t *Transaction, now time.Time) error {
	if f.reserveErr != nil {
		return f.reserveErr
	}
	t.Status = StatusPending
	t.ReservationDate = sql.NullTime{Time: now, Valid: true}
	t.ReservationExpiry = sql.NullTime{Time: ReservationExpiry(now), Valid: true}
	t.FineStatus = FineNone
	return nil
}

func (f *fakeLoanStore) ExecCancelReservation(context.Context, int64, int64) (*Transaction, error) {
	return f.got, nil
}

func (f *fakeLoanStore) ExecCloseLoan(_ context.Context, _ string, outcome string, fee float64, _ *string, _ time.Time) (*Transaction, error) {
	f.closeKind = outcome
	f.closeFee = fee
	return f.closed, nil
}

func (f *fakeLoanStore) UpdateFineStatus(context.Context, string, string) (*Transaction, error) {
	return f.got, nil
}

func (f *fakeLoanStore) GetByULID(context.Context, string) (*Transaction, error) {
	return f.got, nil
}

func (f *fakeLoanStore) List(context.Context, ListQuery, Page) ([]Transaction, int64, error) {
	if f.got == nil {
		return nil, 0, nil
	}
	return []Transaction{*f.got}, 1, nil
}

func (f *fakeLoanStore) ExpireReservations(context.Context, time.Time) (int64, error) {
	return 2, nil
}

func (f *fakeLoanStore) Stats(context.Context, time.Time) (*StatsResponse, error) {
	return &StatsResponse{ActiveLoans: 1}, nil
}

func newTestService(store LoanStore, now time.Time) *Service {
	return &Service{store: store, clock: fixedClock{t: now}, id: &seqIDGen{}}
}

func TestServiceBorrow(t *testing.T) {
	now := day(0)
	store := &fakeLoanStore{}
	svc := newTestService(store, now)

	res, err := svc.Borrow(context.Background(), BorrowRequest{MemberID: 7, BookID: 3}, 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), res.MemberID)
	assert.Equal(t, int64(3), res.BookID)
	assert.Equal(t, TypeBorrow, res.Type)
	assert.Equal(t, StatusActive, res.Status)
	assert.False(t, res.Overdue)
	require.NotNil(t, res.DueDate)
	assert.Equal(t, now.AddDate(0, 0, PhysicalLoanDays), *res.DueDate)
	assert.NotEmpty(t, res.TransactionULID)
	assert.Equal(t, store.borrowed.TransactionULID, res.TransactionULID)
}

func TestServiceBorrowPropagatesStoreError(t *testing.T) {
	store := &fakeLoanStore{borrowErr: ErrUnavailable("no copies available")}
	svc := newTestService(store, day(0))

	_, err := svc.Borrow(context.Background(), BorrowRequest{MemberID: 7, BookID: 3}, 0)
	require.Error(t, err)
	assert.Equal(t, CodeUnavailable, err.(*APIError).Code)
}

func TestServiceOwnershipChecks(t *testing.T) {
	// Member 8 acting on member 7's account or loan gets FORBIDDEN.
	store := &fakeLoanStore{got: &Transaction{
		TransactionULID: "01X",
		MemberID:        7,
		Type:            TypeBorrow,
		Status:          StatusActive,
		FineStatus:      FineNone,
	}}
	svc := newTestService(store, day(0))
	ctx := context.Background()

	_, err := svc.Borrow(ctx, BorrowRequest{MemberID: 7, BookID: 3}, 8)
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, err.(*APIError).Code)

	_, err = svc.Reserve(ctx, ReserveRequest{MemberID: 7, BookID: 3}, 8)
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, err.(*APIError).Code)

	_, err = svc.CancelReservation(ctx, CancelReservationRequest{MemberID: 7, BookID: 3}, 8)
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, err.(*APIError).Code)

	_, err = svc.Return(ctx, "01X", ReturnRequest{}, 8)
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, err.(*APIError).Code)

	_, err = svc.Renew(ctx, "01X", RenewRequest{}, 8)
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, err.(*APIError).Code)

	// The owner and staff (0) both pass the scope check.
	store.returned = store.got
	_, err = svc.Return(ctx, "01X", ReturnRequest{}, 7)
	require.NoError(t, err)
	_, err = svc.Return(ctx, "01X", ReturnRequest{}, 0)
	require.NoError(t, err)
}

func TestServiceReturnRejectsBadCondition(t *testing.T) {
	svc := newTestService(&fakeLoanStore{}, day(0))

	bad := "pristine"
	_, err := svc.Return(context.Background(), "01X", ReturnRequest{Condition: &bad}, 0)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)
}

func TestServiceRenewDefaultsAndValidatesDays(t *testing.T) {
	now := day(0)
	store := &fakeLoanStore{renewed: &Transaction{
		TransactionULID: "01X",
		Type:            TypeRenew,
		Status:          StatusActive,
		RenewalCount:    1,
		DueDate:         sql.NullTime{Time: now.AddDate(0, 0, 14), Valid: true},
		FineStatus:      FineNone,
	}}
	svc := newTestService(store, now)

	res, err := svc.Renew(context.Background(), "01X", RenewRequest{}, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultRenewalDays, store.renewDays)
	assert.Equal(t, 1, res.RenewalCount)

	seven := 7
	_, err = svc.Renew(context.Background(), "01X", RenewRequest{Days: &seven}, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, store.renewDays)

	zero := 0
	_, err = svc.Renew(context.Background(), "01X", RenewRequest{Days: &zero}, 0)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)
}

func TestServiceReserve(t *testing.T) {
	now := day(0)
	svc := newTestService(&fakeLoanStore{}, now)

	res, err := svc.Reserve(context.Background(), ReserveRequest{MemberID: 7, BookID: 3}, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
	require.NotNil(t, res.ReservationExpiry)
	assert.Equal(t, now.AddDate(0, 0, ReservationHoldDays), *res.ReservationExpiry)
}

func TestServiceMarkLostRejectsNegativeFee(t *testing.T) {
	svc := newTestService(&fakeLoanStore{}, day(0))

	_, err := svc.MarkLost(context.Background(), "01X", CloseLoanRequest{Fee: -1})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)
}

func TestServiceMarkDamagedPassesOutcome(t *testing.T) {
	store := &fakeLoanStore{closed: &Transaction{
		TransactionULID: "01X",
		Type:            TypeDamagedBook,
		Status:          StatusDamaged,
		FineAmount:      12.50,
		FineStatus:      FinePending,
	}}
	svc := newTestService(store, day(0))

	res, err := svc.MarkDamaged(context.Background(), "01X", CloseLoanRequest{Fee: 12.50})
	require.NoError(t, err)
	assert.Equal(t, StatusDamaged, store.closeKind)
	assert.InDelta(t, 12.50, store.closeFee, 1e-9)
	assert.Equal(t, FinePending, res.FineStatus)
}

func TestServiceGetNotFound(t *testing.T) {
	svc := newTestService(&fakeLoanStore{}, day(0))

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, err.(*APIError).Code)
}

func TestServiceListDerivesOverdue(t *testing.T) {
	now := day(0)
	store := &fakeLoanStore{got: &Transaction{
		TransactionULID: "01X",
		Type:            TypeBorrow,
		Status:          StatusActive,
		DueDate:         sql.NullTime{Time: now.AddDate(0, 0, -3), Valid: true},
		FineStatus:      FineNone,
	}}
	svc := newTestService(store, now)

	res, err := svc.List(context.Background(), ListQuery{}, Page{})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.True(t, res.Transactions[0].Overdue)
	assert.Equal(t, 3, res.Transactions[0].DaysOverdue)
	assert.Equal(t, StatusActive, res.Transactions[0].Status)
}

func TestServiceExpireReservations(t *testing.T) {
	svc := newTestService(&fakeLoanStore{}, day(0))

	res, err := svc.ExpireReservations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Expired)
}
