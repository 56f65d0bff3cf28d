package reviews

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

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

const maxCommentLength = 2000

type Service struct {
	store ReviewStore
	clock Clock
	id    IDGen
}

func NewService(d *sql.DB) *Service {
	return &Service{store: NewStore(d), clock: realClock{}, id: newULIDGen()}
}

// Create publishes a review for a completed loan. The book reference
// comes from the loan, not the request.
func (s *Service) Create(ctx context.Context, req CreateReviewRequest) (*ReviewResponse, error) {
	if !ValidRating(req.Rating) {
		return nil, ErrInvalid("rating must be between 1 and 5")
	}
	comment, err := normalizeComment(req.Comment)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	id, err := s.id.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate ulid: %w", err)
	}

	r := &Review{
		ReviewULID:      id,
		MemberID:        req.MemberID,
		TransactionULID: req.TransactionULID,
		Rating:          req.Rating,
		Comment:         comment,
	}
	if err := s.store.ExecCreate(ctx, r); err != nil {
		return nil, err
	}
	resp := r.toResponse()
	resp.CreatedAt = now
	return &resp, nil
}

// Update revises the caller's own review.
func (s *Service) Update(ctx context.Context, reviewULID string, memberID int64, req UpdateReviewRequest) (*ReviewResponse, error) {
	if req.Rating != nil && !ValidRating(*req.Rating) {
		return nil, ErrInvalid("rating must be between 1 and 5")
	}
	var comment *string
	if req.Comment != nil {
		c, err := normalizeComment(req.Comment)
		if err != nil {
			return nil, err
		}
		v := c.String
		comment = &v
	}

	r, err := s.store.ExecUpdate(ctx, reviewULID, memberID, req.Rating, comment)
	if err != nil {
		return nil, err
	}
	resp := r.toResponse()
	return &resp, nil
}

func (s *Service) Hide(ctx context.Context, reviewULID string) (*ReviewResponse, error) {
	return s.setStatus(ctx, reviewULID, StatusHidden)
}

func (s *Service) Publish(ctx context.Context, reviewULID string) (*ReviewResponse, error) {
	return s.setStatus(ctx, reviewULID, StatusPublished)
}

func (s *Service) setStatus(ctx context.Context, reviewULID, status string) (*ReviewResponse, error) {
	r, err := s.store.ExecSetStatus(ctx, reviewULID, status)
	if err != nil {
		return nil, err
	}
	resp := r.toResponse()
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, reviewULID string) error {
	return s.store.ExecDelete(ctx, reviewULID)
}

func (s *Service) Get(ctx context.Context, reviewULID string) (*ReviewResponse, error) {
	r, err := s.store.GetByULID(ctx, reviewULID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotFound("review not found")
	}
	resp := r.toResponse()
	return &resp, nil
}

func (s *Service) List(ctx context.Context, f ListQuery, p Page) (*ListReviewsResponse, error) {
	rs, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	out := make([]ReviewResponse, 0, len(rs))
	for i := range rs {
		out = append(out, rs[i].toResponse())
	}
	return &ListReviewsResponse{Reviews: out, Total: total}, nil
}

func normalizeComment(c *string) (sql.NullString, error) {
	if c == nil {
		return sql.NullString{}, nil
	}
	v := strings.TrimSpace(*c)
	if v == "" {
		return sql.NullString{}, nil
	}
	if len(v) > maxCommentLength {
		return sql.NullString{}, ErrInvalid("comment is too long")
	}
	return sql.NullString{String: v, Valid: true}, nil
}
