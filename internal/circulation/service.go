package circulation

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"LIBRA-backend/internal/catalog"
)

// Clock and IDGen are seams for tests.
type Clock interface{ Now() time.Time }
type IDGen interface{ NewULID() (string, error) }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type ulidGen struct{ entropy *ulid.MonotonicEntropy }

func newULIDGen() *ulidGen {
	return &ulidGen{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ulidGen) NewULID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type Service struct {
	store LoanStore
	clock Clock
	id    IDGen
}

func NewService(d *sql.DB) *Service {
	return &Service{store: NewStore(d), clock: realClock{}, id: newULIDGen()}
}

// Borrow opens a loan for (member, book). All checks and writes happen
// inside one store transaction. ownerID scopes the call to the
// authenticated member's own account; staff callers pass 0.
func (s *Service) Borrow(ctx context.Context, req BorrowRequest, ownerID int64) (*TransactionResponse, error) {
	if ownerID != 0 && req.MemberID != ownerID {
		return nil, ErrForbidden("cannot borrow for another member")
	}
	now := s.clock.Now()
	id, err := s.id.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate ulid: %w", err)
	}

	t := &Transaction{
		TransactionULID: id,
		MemberID:        req.MemberID,
		BookID:          req.BookID,
		Type:            TypeBorrow,
	}
	if err := s.store.ExecBorrow(ctx, t, now); err != nil {
		return nil, err
	}
	resp := t.toResponse(now)
	resp.CreatedAt = now
	return &resp, nil
}

// authorizeLoan rejects operations on another member's transaction.
// ownerID 0 means a staff caller, unrestricted.
func (s *Service) authorizeLoan(ctx context.Context, txULID string, ownerID int64) error {
	if ownerID == 0 {
		return nil
	}
	t, err := s.store.GetByULID(ctx, txULID)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrNotFound("transaction not found")
	}
	if t.MemberID != ownerID {
		return ErrForbidden("transaction belongs to another member")
	}
	return nil
}

// Return closes an active loan. An optional condition records the
// state the copy came back in.
func (s *Service) Return(ctx context.Context, txULID string, req ReturnRequest, ownerID int64) (*TransactionResponse, error) {
	if req.Condition != nil && !catalog.ValidCondition(*req.Condition) {
		return nil, ErrInvalid("invalid condition")
	}
	if err := s.authorizeLoan(ctx, txULID, ownerID); err != nil {
		return nil, err
	}
	t, err := s.store.ExecReturn(ctx, txULID, req.Condition, req.Note, s.clock.Now())
	if err != nil {
		return nil, err
	}
	resp := t.toResponse(s.clock.Now())
	return &resp, nil
}

// Renew extends an active loan from now, up to MaxRenewals times.
func (s *Service) Renew(ctx context.Context, txULID string, req RenewRequest, ownerID int64) (*TransactionResponse, error) {
	days := DefaultRenewalDays
	if req.Days != nil {
		days = *req.Days
	}
	if days <= 0 {
		return nil, ErrInvalid("days must be positive")
	}
	if err := s.authorizeLoan(ctx, txULID, ownerID); err != nil {
		return nil, err
	}
	t, err := s.store.ExecRenew(ctx, txULID, days, s.clock.Now())
	if err != nil {
		return nil, err
	}
	resp := t.toResponse(s.clock.Now())
	return &resp, nil
}

// Reserve places a hold that expires after ReservationHoldDays.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest, ownerID int64) (*TransactionResponse, error) {
	if ownerID != 0 && req.MemberID != ownerID {
		return nil, ErrForbidden("cannot reserve for another member")
	}
	now := s.clock.Now()
	id, err := s.id.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate ulid: %w", err)
	}

	t := &Transaction{
		TransactionULID: id,
		MemberID:        req.MemberID,
		BookID:          req.BookID,
		Type:            TypeReserve,
	}
	if err := s.store.ExecReserve(ctx, t, now); err != nil {
		return nil, err
	}
	resp := t.toResponse(now)
	resp.CreatedAt = now
	return &resp, nil
}

func (s *Service) CancelReservation(ctx context.Context, req CancelReservationRequest, ownerID int64) (*TransactionResponse, error) {
	if ownerID != 0 && req.MemberID != ownerID {
		return nil, ErrForbidden("cannot cancel another member's reservation")
	}
	t, err := s.store.ExecCancelReservation(ctx, req.MemberID, req.BookID)
	if err != nil {
		return nil, err
	}
	resp := t.toResponse(s.clock.Now())
	return &resp, nil
}

// MarkLost closes a loan whose copy will not come back. The copy
// leaves the collection and the replacement fee becomes a pending fine.
func (s *Service) MarkLost(ctx context.Context, txULID string, req CloseLoanRequest) (*TransactionResponse, error) {
	return s.closeLoan(ctx, txULID, StatusLost, req)
}

// MarkDamaged closes a loan whose copy came back unusable.
func (s *Service) MarkDamaged(ctx context.Context, txULID string, req CloseLoanRequest) (*TransactionResponse, error) {
	return s.closeLoan(ctx, txULID, StatusDamaged, req)
}

func (s *Service) closeLoan(ctx context.Context, txULID, outcome string, req CloseLoanRequest) (*TransactionResponse, error) {
	if req.Fee < 0 {
		return nil, ErrInvalid("fee must not be negative")
	}
	t, err := s.store.ExecCloseLoan(ctx, txULID, outcome, req.Fee, req.Note, s.clock.Now())
	if err != nil {
		return nil, err
	}
	resp := t.toResponse(s.clock.Now())
	return &resp, nil
}

func (s *Service) UpdateFineStatus(ctx context.Context, txULID string, req UpdateFineRequest) (*TransactionResponse, error) {
	t, err := s.store.UpdateFineStatus(ctx, txULID, req.Status)
	if err != nil {
		return nil, err
	}
	resp := t.toResponse(s.clock.Now())
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, txULID string) (*TransactionResponse, error) {
	t, err := s.store.GetByULID(ctx, txULID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound("transaction not found")
	}
	resp := t.toResponse(s.clock.Now())
	return &resp, nil
}

func (s *Service) List(ctx context.Context, f ListQuery, p Page) (*ListTransactionsResponse, error) {
	ts, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make([]TransactionResponse, 0, len(ts))
	for i := range ts {
		out = append(out, ts[i].toResponse(now))
	}
	return &ListTransactionsResponse{Transactions: out, Total: total}, nil
}

func (s *Service) ExpireReservations(ctx context.Context) (*ExpireReservationsResponse, error) {
	n, err := s.store.ExpireReservations(ctx, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return &ExpireReservationsResponse{Expired: n}, nil
}

func (s *Service) Stats(ctx context.Context) (*StatsResponse, error) {
	return s.store.Stats(ctx, s.clock.Now())
}
