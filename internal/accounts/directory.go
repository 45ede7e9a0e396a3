package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("accounts: invalid email or password")
	ErrUserNotFound       = errors.New("accounts: user not found")
	ErrDuplicateUser      = errors.New("accounts: duplicate user")
)

// SeedUser is one entry of the SEED_USERS JSON array. Either Password or
// PasswordHash (bcrypt) must be set.
type SeedUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Password     string `json:"password,omitempty"`
	PasswordHash string `json:"password_hash,omitempty"`
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("accounts: hash password: %w", err)
	}
	return string(hash), nil
}

// ParseSeedUsers decodes a JSON array of SeedUser into users, hashing plain
// passwords. An empty string yields no users.
func ParseSeedUsers(raw string) ([]User, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var seeds []SeedUser
	if err := json.Unmarshal([]byte(raw), &seeds); err != nil {
		return nil, fmt.Errorf("accounts: decode seed users: %w", err)
	}

	users := make([]User, 0, len(seeds))
	for i, s := range seeds {
		role, err := ParseRole(s.Role)
		if err != nil {
			return nil, fmt.Errorf("accounts: seed user %d: %w", i, err)
		}
		hash := s.PasswordHash
		if hash == "" {
			if s.Password == "" {
				return nil, fmt.Errorf("accounts: seed user %d: password required", i)
			}
			if hash, err = HashPassword(s.Password); err != nil {
				return nil, err
			}
		}
		users = append(users, User{
			ID:           s.ID,
			Name:         s.Name,
			Email:        s.Email,
			Role:         role,
			PasswordHash: hash,
		})
	}
	return users, nil
}

// Directory is the in-memory user set.
type Directory struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

// NewDirectory indexes users by id and email.
func NewDirectory(users ...User) (*Directory, error) {
	d := &Directory{
		byID:    make(map[string]User, len(users)),
		byEmail: make(map[string]string, len(users)),
	}
	for _, u := range users {
		if err := d.Add(u); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Add inserts u. IDs and emails must be unique.
func (d *Directory) Add(u User) error {
	if strings.TrimSpace(u.ID) == "" || strings.TrimSpace(u.Email) == "" {
		return errors.New("accounts: user id and email required")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, u.Role)
	}
	email := normalizeEmail(u.Email)

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byID[u.ID]; ok {
		return fmt.Errorf("%w: id %s", ErrDuplicateUser, u.ID)
	}
	if _, ok := d.byEmail[email]; ok {
		return fmt.Errorf("%w: email %s", ErrDuplicateUser, u.Email)
	}
	d.byID[u.ID] = u
	d.byEmail[email] = u.ID
	return nil
}

// Lookup returns the user with id.
func (d *Directory) Lookup(id string) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

// Authenticate checks password against the stored hash for email.
func (d *Directory) Authenticate(email, password string) (User, error) {
	d.mu.RLock()
	id, ok := d.byEmail[normalizeEmail(email)]
	u := d.byID[id]
	d.mu.RUnlock()
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Len returns the number of users.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
