package catalog

import (
	"context"
	"database/sql"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type Service struct {
	store BookStore
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db)}
}

// normalizeText trims and NFC-normalizes free text so LIKE search stays
// stable across differently composed input (imports, copy-paste).
func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func normalizeISBN(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(s), "-", ""), " ", "")
}

func (s *Service) Create(ctx context.Context, req CreateBookRequest) (*BookResponse, error) {
	isbn := normalizeISBN(req.ISBN)
	if isbn == "" {
		return nil, ErrInvalid("isbn is required")
	}
	title := normalizeText(req.Title)
	author := normalizeText(req.Author)
	if title == "" || author == "" {
		return nil, ErrInvalid("title and author are required")
	}
	if !ValidMedium(req.Medium) {
		return nil, ErrInvalid("medium must be physical or digital")
	}
	if req.TotalCopies <= 0 {
		return nil, ErrInvalid("total_copies must be > 0")
	}
	condition := ConditionGood
	if req.Condition != nil && *req.Condition != "" {
		if !ValidCondition(*req.Condition) {
			return nil, ErrInvalid("unknown condition")
		}
		condition = *req.Condition
	}

	existing, err := s.store.GetByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict("isbn already in catalog")
	}

	b := &Book{
		ISBN:        isbn,
		Title:       title,
		Author:      author,
		Medium:      req.Medium,
		Condition:   condition,
		TotalCopies: req.TotalCopies,
	}
	if req.Publisher != nil && *req.Publisher != "" {
		b.Publisher.String = normalizeText(*req.Publisher)
		b.Publisher.Valid = true
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return nil, err
	}
	resp := b.toResponse()
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*BookResponse, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound("book not found")
	}
	resp := b.toResponse()
	return &resp, nil
}

func (s *Service) GetByISBN(ctx context.Context, isbn string) (*BookResponse, error) {
	b, err := s.store.GetByISBN(ctx, normalizeISBN(isbn))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound("book not found")
	}
	resp := b.toResponse()
	return &resp, nil
}

func (s *Service) List(ctx context.Context, f ListQuery, p Page) (*ListBooksResponse, error) {
	if f.Medium != nil && !ValidMedium(*f.Medium) {
		return nil, ErrInvalid("medium must be physical or digital")
	}
	if f.Search != nil {
		v := normalizeText(*f.Search)
		f.Search = &v
	}
	if f.Author != nil {
		v := normalizeText(*f.Author)
		f.Author = &v
	}
	books, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	out := ListBooksResponse{Books: []BookResponse{}, Total: total}
	for i := range books {
		out.Books = append(out.Books, books[i].toResponse())
	}
	return &out, nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateBookRequest) (*BookResponse, error) {
	if in.Condition != nil && !ValidCondition(*in.Condition) {
		return nil, ErrInvalid("unknown condition")
	}
	if in.Title != nil {
		v := normalizeText(*in.Title)
		if v == "" {
			return nil, ErrInvalid("title must not be empty")
		}
		in.Title = &v
	}
	if in.Author != nil {
		v := normalizeText(*in.Author)
		if v == "" {
			return nil, ErrInvalid("author must not be empty")
		}
		in.Author = &v
	}
	if in.Publisher != nil {
		v := normalizeText(*in.Publisher)
		in.Publisher = &v
	}

	b, err := s.store.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	if b == nil || b.IsDeleted {
		return nil, ErrNotFound("book not found")
	}
	resp := b.toResponse()
	return &resp, nil
}

func (s *Service) AdjustCopies(ctx context.Context, id int64, req AdjustCopiesRequest) (*BookResponse, error) {
	if req.TotalCopies < 0 {
		return nil, ErrInvalid("total_copies must be >= 0")
	}
	b, err := s.store.AdjustCopies(ctx, id, req.TotalCopies)
	if err != nil {
		return nil, err
	}
	resp := b.toResponse()
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	n, err := s.store.SetDeleted(ctx, id, true)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound("book not found")
	}
	return nil
}

func (s *Service) Restore(ctx context.Context, id int64) (*BookResponse, error) {
	n, err := s.store.SetDeleted(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound("no deleted book with that id")
	}
	return s.Get(ctx, id)
}
