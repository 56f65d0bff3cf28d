package circulation

import (
	"math"
	"time"

	"LIBRA-backend/internal/catalog"
)

// Lending policy constants. These are domain rules, not configuration.
const (
	PhysicalLoanDays    = 21
	DigitalLoanDays     = 14
	DefaultRenewalDays  = 14
	MaxRenewals         = 3
	ReservationHoldDays = 7
	FinePerDay          = 0.50
	MaxFine             = 25.00
)

// LoanPeriodDays returns the loan period for a book medium.
func LoanPeriodDays(medium string) int {
	if medium == catalog.MediumDigital {
		return DigitalLoanDays
	}
	return PhysicalLoanDays
}

func LoanDueDate(now time.Time, medium string) time.Time {
	return now.AddDate(0, 0, LoanPeriodDays(medium))
}

func ReservationExpiry(now time.Time) time.Time {
	return now.AddDate(0, 0, ReservationHoldDays)
}

// IsOverdue derives the overdue label. Only an active loan can be
// overdue; terminal and pending transactions never are.
func IsOverdue(status string, dueDate, now time.Time) bool {
	return status == StatusActive && !dueDate.IsZero() && dueDate.Before(now)
}

// DaysOverdue counts started days past the due date, 0 when on time.
func DaysOverdue(dueDate, at time.Time) int {
	if dueDate.IsZero() || !at.After(dueDate) {
		return 0
	}
	return int(math.Ceil(at.Sub(dueDate).Hours() / 24))
}

// FineFor computes the late fee owed when a loan due at dueDate is
// closed at returnedAt: a flat rate per started day, capped.
func FineFor(dueDate, returnedAt time.Time) float64 {
	days := DaysOverdue(dueDate, returnedAt)
	if days == 0 {
		return 0
	}
	return math.Min(float64(days)*FinePerDay, MaxFine)
}

// BorrowCheck carries the state read under lock that a borrow decision
// depends on.
type BorrowCheck struct {
	BookActive    bool
	BookDeleted   bool
	BookCondition string
	Available     int
	MemberActive  bool
	HasActiveLoan bool
	ActiveLoans   int
	LoanLimit     int
}

// CheckBorrow validates the borrow preconditions and returns the typed
// failure the caller reports. Existence of book and member is checked
// before this is called.
func CheckBorrow(in BorrowCheck) error {
	if !in.MemberActive {
		return ErrConflict("member account is inactive")
	}
	if in.BookDeleted || !in.BookActive {
		return ErrUnavailable("book is not in circulation")
	}
	if in.BookCondition == catalog.ConditionDamaged {
		return ErrUnavailable("book is marked damaged")
	}
	if in.Available <= 0 {
		return ErrUnavailable("no copies available")
	}
	if in.HasActiveLoan {
		return ErrDuplicateLoan("member already holds this book")
	}
	if in.ActiveLoans >= in.LoanLimit {
		return ErrLimitExceeded("membership loan limit reached")
	}
	return nil
}

// CheckReturn validates that a transaction is an active loan that can
// be closed. Completed, pending and terminal transactions cannot.
func CheckReturn(status string) error {
	if status != StatusActive {
		return ErrNotActive("transaction is not an active loan")
	}
	return nil
}

// ReserveCheck carries the state read under lock that a reserve
// decision depends on.
type ReserveCheck struct {
	BookActive            bool
	BookDeleted           bool
	MemberActive          bool
	HasActiveLoan         bool
	HasPendingReservation bool
}

// CheckReserve validates the reserve preconditions. A member with an
// open loan or an unexpired pending reservation for the book cannot
// reserve it again.
func CheckReserve(in ReserveCheck) error {
	if in.BookDeleted {
		return ErrNotFound("book not found")
	}
	if !in.BookActive {
		return ErrUnavailable("book is not in circulation")
	}
	if !in.MemberActive {
		return ErrConflict("member account is inactive")
	}
	if in.HasActiveLoan {
		return ErrDuplicateLoan("member already holds this book")
	}
	if in.HasPendingReservation {
		return ErrDuplicateLoan("member already reserved this book")
	}
	return nil
}

// CheckRenew validates that a loan may be renewed at now.
func CheckRenew(status, txType string, renewalCount int, dueDate, now time.Time) error {
	if status != StatusActive || (txType != TypeBorrow && txType != TypeRenew) {
		return ErrNotRenewable("transaction is not an active loan")
	}
	if renewalCount >= MaxRenewals {
		return ErrNotRenewable("renewal limit reached")
	}
	if IsOverdue(status, dueDate, now) {
		return ErrNotRenewable("loan is overdue")
	}
	return nil
}

// CheckFineTransition validates administrative fine status changes.
// A pending fine can be paid, waived or disputed; a disputed fine can
// still be settled either way. Everything else is final.
func CheckFineTransition(from, to string) error {
	switch to {
	case FinePaid, FineWaived, FineDisputed:
	default:
		return ErrInvalid("fine status must be paid, waived or disputed")
	}
	switch from {
	case FinePending:
		return nil
	case FineDisputed:
		if to == FineDisputed {
			return ErrConflict("fine is already disputed")
		}
		return nil
	default:
		return ErrConflict("fine is not open")
	}
}
