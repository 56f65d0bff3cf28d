package membership

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMemberStore struct {
	byEmail  *Member
	inserted *Member
}

func (f *fakeMemberStore) Insert(_ context.Context, m *Member) error {
	m.MemberID = 1
	f.inserted = m
	return nil
}
func (f *fakeMemberStore) GetByID(context.Context, int64) (*Member, error) { return nil, nil }
func (f *fakeMemberStore) GetByEmail(context.Context, string) (*Member, error) {
	return f.byEmail, nil
}
func (f *fakeMemberStore) List(context.Context, ListQuery, Page) ([]Member, int64, error) {
	return nil, 0, nil
}
func (f *fakeMemberStore) Update(context.Context, int64, UpdateMemberRequest) (*Member, error) {
	return nil, nil
}
func (f *fakeMemberStore) SetActive(context.Context, int64, bool) (int64, error) { return 0, nil }
func (f *fakeMemberStore) CurrentLoans(context.Context, int64) ([]CurrentLoan, error) {
	return nil, nil
}

func TestRegisterDefaultsAndNormalization(t *testing.T) {
	store := &fakeMemberStore{}
	svc := &Service{store: store}

	res, err := svc.Register(context.Background(), RegisterMemberRequest{
		Email:    "  Ada@Example.COM ",
		Name:     " Ada Lovelace ",
		Password: "supersecret",
	})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", res.Email)
	assert.Equal(t, "Ada Lovelace", res.Name)
	assert.Equal(t, RoleMember, res.Role)
	assert.Equal(t, MembershipBasic, res.MembershipType)
	assert.True(t, res.IsActive)
	require.NotNil(t, store.inserted)
	assert.NotEqual(t, "supersecret", store.inserted.PasswordHash)
	assert.True(t, CheckPassword(store.inserted.PasswordHash, "supersecret"))
}

func TestRegisterValidation(t *testing.T) {
	svc := &Service{store: &fakeMemberStore{}}
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterMemberRequest{Email: "nope", Name: "x", Password: "supersecret"})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)

	_, err = svc.Register(ctx, RegisterMemberRequest{Email: "a@b.c", Name: "  ", Password: "supersecret"})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)

	_, err = svc.Register(ctx, RegisterMemberRequest{Email: "a@b.c", Name: "x", Password: "short"})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)

	bad := "superuser"
	_, err = svc.Register(ctx, RegisterMemberRequest{Email: "a@b.c", Name: "x", Password: "supersecret", Role: &bad})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := &Service{store: &fakeMemberStore{byEmail: &Member{MemberID: 7}}}

	_, err := svc.Register(context.Background(), RegisterMemberRequest{
		Email: "taken@example.com", Name: "x", Password: "supersecret",
	})
	require.Error(t, err)
	assert.Equal(t, CodeConflict, err.(*APIError).Code)
}
