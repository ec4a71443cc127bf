package chatstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
)

var ErrBusinessExists = errors.New("chatstore: business profile already exists")

// Business is a user's profile. Address, Contact and Hours are optional; the
// empty string means "not provided".
type Business struct {
	ID          int64
	UserID      int64
	Name        string
	Description string
	Services    string
	Address     string
	Contact     string
	Hours       string
	CreatedAt   string
}

func (s *Store) CreateBusiness(ctx context.Context, userID int64, b Business) (*Business, error) {
	if strings.TrimSpace(b.Name) == "" {
		return nil, errors.New("chatstore: empty business name")
	}
	existing, err := s.BusinessByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrBusinessExists
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO businesses(user_id, name, description, services, address, contact, operating_hours)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`, userID, b.Name, b.Description, b.Services,
		nullable(b.Address), nullable(b.Contact), nullable(b.Hours))
	if err != nil {
		return nil, errors.Wrap(err, "chatstore: insert business")
	}
	return s.BusinessByUser(ctx, userID)
}

// UpdateBusiness overwrites the profile for userID, creating it when missing.
func (s *Store) UpdateBusiness(ctx context.Context, userID int64, b Business) (*Business, error) {
	existing, err := s.BusinessByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.CreateBusiness(ctx, userID, b)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE businesses
		SET name = ?, description = ?, services = ?, address = ?, contact = ?, operating_hours = ?
		WHERE user_id = ?
	`, b.Name, b.Description, b.Services,
		nullable(b.Address), nullable(b.Contact), nullable(b.Hours), userID)
	if err != nil {
		return nil, errors.Wrap(err, "chatstore: update business")
	}
	return s.BusinessByUser(ctx, userID)
}

// BusinessByUser returns nil without error when no profile exists.
func (s *Store) BusinessByUser(ctx context.Context, userID int64) (*Business, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, services, address, contact, operating_hours, created_at
		FROM businesses WHERE user_id = ?
	`, userID)
	b := &Business{}
	var address, contact, hours sql.NullString
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.Description, &b.Services,
		&address, &contact, &hours, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "chatstore: scan business")
	}
	b.Address = address.String
	b.Contact = contact.String
	b.Hours = hours.String
	return b, nil
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
