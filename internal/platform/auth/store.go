package auth

import (
	"context"
	"database/sql"
	"errors"
)

// Credentials is the slice of the member row that login needs.
type Credentials struct {
	MemberID     int64
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
}

type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*Credentials, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) CredentialStore {
	return &Store{db: db}
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*Credentials, error) {
	const q = `
	SELECT member_id, email, password_hash, role, is_active
	FROM members
	WHERE email = ?
	LIMIT 1`
	var c Credentials
	var isActive int
	err := s.db.QueryRowContext(ctx, q, email).Scan(
		&c.MemberID, &c.Email, &c.PasswordHash, &c.Role, &isActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.IsActive = isActive != 0
	return &c, nil
}
