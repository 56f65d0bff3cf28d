package membership

import (
	"context"
	"database/sql"
	"strings"
)

type Service struct {
	store MemberStore
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db)}
}

// Register creates a member account. Role and membership tier default
// to member/basic when omitted.
func (s *Service) Register(ctx context.Context, req RegisterMemberRequest) (*MemberResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") {
		return nil, ErrInvalid("invalid email address")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalid("name is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrInvalid("password must be at least 8 characters")
	}

	role := RoleMember
	if req.Role != nil && *req.Role != "" {
		if !ValidRole(*req.Role) {
			return nil, ErrInvalid("unknown role")
		}
		role = *req.Role
	}
	tier := MembershipBasic
	if req.MembershipType != nil && *req.MembershipType != "" {
		if !ValidMembershipType(*req.MembershipType) {
			return nil, ErrInvalid("unknown membership type")
		}
		tier = *req.MembershipType
	}

	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict("email already registered")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	m := &Member{
		Email:          email,
		Name:           strings.TrimSpace(req.Name),
		PasswordHash:   hash,
		Role:           role,
		MembershipType: tier,
		IsActive:       true,
	}
	if err := s.store.Insert(ctx, m); err != nil {
		return nil, err
	}

	resp := m.toResponse()
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*MemberResponse, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound("member not found")
	}
	resp := m.toResponse()
	return &resp, nil
}

func (s *Service) List(ctx context.Context, f ListQuery, p Page) (*ListMembersResponse, error) {
	if f.Role != nil && !ValidRole(*f.Role) {
		return nil, ErrInvalid("unknown role")
	}
	if f.MembershipType != nil && !ValidMembershipType(*f.MembershipType) {
		return nil, ErrInvalid("unknown membership type")
	}
	members, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	out := ListMembersResponse{Members: []MemberResponse{}, Total: total}
	for i := range members {
		out.Members = append(out.Members, members[i].toResponse())
	}
	return &out, nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateMemberRequest) (*MemberResponse, error) {
	if in.Role != nil && !ValidRole(*in.Role) {
		return nil, ErrInvalid("unknown role")
	}
	if in.MembershipType != nil && !ValidMembershipType(*in.MembershipType) {
		return nil, ErrInvalid("unknown membership type")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, ErrInvalid("name must not be empty")
	}

	m, err := s.store.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound("member not found")
	}
	resp := m.toResponse()
	return &resp, nil
}

// Deactivate disables the account. Open loans are untouched; the
// member can return books but not borrow new ones.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	n, err := s.store.SetActive(ctx, id, false)
	if err != nil {
		return err
	}
	if n == 0 {
		m, err := s.store.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotFound("member not found")
		}
	}
	return nil
}

func (s *Service) CurrentLoans(ctx context.Context, id int64) ([]CurrentLoanResponse, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound("member not found")
	}
	loans, err := s.store.CurrentLoans(ctx, id)
	if err != nil {
		return nil, err
	}
	out := []CurrentLoanResponse{}
	for i := range loans {
		out = append(out, loans[i].toResponse())
	}
	return out, nil
}
