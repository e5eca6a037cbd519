// Package users implements the credential service for administrator accounts.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/karunyatrust/cms/internal/models"
	"github.com/karunyatrust/cms/internal/records"
	"github.com/karunyatrust/cms/pkg/logger"
	"github.com/karunyatrust/cms/pkg/metrics"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 10

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidInput       = errors.New("username and password are required")
)

var log = logger.Named("users")

// TokenIssuer signs a session token for an authenticated user.
type TokenIssuer interface {
	Generate(u *models.User) (string, error)
}

// Service authenticates and registers users stored in a records collection.
type Service struct {
	records    *records.Collections
	collection string
	issuer     TokenIssuer
}

func NewService(c *records.Collections, collection string, issuer TokenIssuer) *Service {
	return &Service{records: c, collection: collection, issuer: issuer}
}

// Session is what a successful login or registration returns to the client.
type Session struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (s *Service) all(ctx context.Context) ([]models.User, error) {
	recs, err := s.records.Read(ctx, s.collection)
	if err != nil {
		return nil, err
	}
	return decodeUsers(recs)
}

func decodeUsers(recs []records.Record) ([]models.User, error) {
	out := make([]models.User, 0, len(recs))
	for _, r := range recs {
		var u models.User
		if err := records.Decode(r, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// FindByUsername returns the user with the exact username, or nil.
func (s *Service) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Username == username {
			return &all[i], nil
		}
	}
	return nil, nil
}

// Authenticate checks the password against the stored hash and issues a
// token. Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		metrics.Logins.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		metrics.Logins.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}
	metrics.Logins.WithLabelValues("success").Inc()
	return s.session(u)
}

// Register creates a user with a bcrypt hash of password. The duplicate
// check and the append run under the collection lock.
func (s *Service) Register(ctx context.Context, username, password string) (*Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		ID:           records.NewID(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	rec, err := records.Encode(u)
	if err != nil {
		return nil, err
	}

	_, err = s.records.Update(ctx, s.collection, func(recs []records.Record) ([]records.Record, error) {
		existing, err := decodeUsers(recs)
		if err != nil {
			return nil, err
		}
		for _, e := range existing {
			if e.Username == username {
				return nil, ErrUserExists
			}
		}
		return append(recs, rec), nil
	})
	if err != nil {
		return nil, err
	}
	log.Infof("registered user %s", username)
	return s.session(u)
}

func (s *Service) session(u *models.User) (*Session, error) {
	token, err := s.issuer.Generate(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{ID: u.ID, Username: u.Username, Token: token}, nil
}
