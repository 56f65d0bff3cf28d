package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeISBN(t *testing.T) {
	assert.Equal(t, "9780134190440", normalizeISBN("978-0-13-419044-0"))
	assert.Equal(t, "9780134190440", normalizeISBN(" 978 0134190440 "))
	assert.Equal(t, "", normalizeISBN("  "))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "The Go Programming Language", normalizeText("  The Go Programming Language\n"))
	// decomposed e + combining acute collapses to the composed form
	assert.Equal(t, "Café", normalizeText("Café"))
}

// fakeBookStore is just enough store to drive Create validation.
type fakeBookStore struct {
	byISBN   *Book
	inserted *Book
}

func (f *fakeBookStore) Insert(_ context.Context, b *Book) error {
	b.BookID = 1
	b.AvailableCopies = b.TotalCopies
	f.inserted = b
	return nil
}
func (f *fakeBookStore) GetByID(context.Context, int64) (*Book, error)     { return nil, nil }
func (f *fakeBookStore) GetByISBN(context.Context, string) (*Book, error)  { return f.byISBN, nil }
func (f *fakeBookStore) List(context.Context, ListQuery, Page) ([]Book, int64, error) {
	return nil, 0, nil
}
func (f *fakeBookStore) Update(context.Context, int64, UpdateBookRequest) (*Book, error) {
	return nil, nil
}
func (f *fakeBookStore) AdjustCopies(context.Context, int64, int) (*Book, error) { return nil, nil }
func (f *fakeBookStore) SetDeleted(context.Context, int64, bool) (int64, error)  { return 0, nil }

func TestCreateValidation(t *testing.T) {
	svc := &Service{store: &fakeBookStore{}}
	ctx := context.Background()

	base := func() CreateBookRequest {
		return CreateBookRequest{
			ISBN:        "978-0-13-419044-0",
			Title:       "The Go Programming Language",
			Author:      "Donovan, Kernighan",
			Medium:      MediumPhysical,
			TotalCopies: 3,
		}
	}

	res, err := svc.Create(ctx, base())
	require.NoError(t, err)
	assert.Equal(t, "9780134190440", res.ISBN)
	assert.Equal(t, ConditionGood, res.Condition)
	assert.Equal(t, 3, res.AvailableCopies)

	req := base()
	req.ISBN = " - "
	_, err = svc.Create(ctx, req)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)

	req = base()
	req.Medium = "cassette"
	_, err = svc.Create(ctx, req)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)

	req = base()
	req.TotalCopies = 0
	_, err = svc.Create(ctx, req)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)
}

func TestCreateDuplicateISBN(t *testing.T) {
	svc := &Service{store: &fakeBookStore{byISBN: &Book{BookID: 9}}}

	_, err := svc.Create(context.Background(), CreateBookRequest{
		ISBN: "9780134190440", Title: "x", Author: "y", Medium: MediumDigital, TotalCopies: 1,
	})
	require.Error(t, err)
	assert.Equal(t, CodeConflict, err.(*APIError).Code)
}
