// Package auth implements the Auth Gate: a process-wide credential table
// checked on login. Runtime additions live in memory only.
package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tally-dashboard/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccessDenied       = errors.New("access denied")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidUsername    = errors.New("username is required")
	ErrInvalidPassword    = errors.New("password is required")
)

// DemoCredentials are the fixed logins every table starts with
var DemoCredentials = []struct {
	Username string
	Password string
	Role     models.Role
}{
	{Username: "admin", Password: "admin123", Role: models.RoleAdmin},
	{Username: "user", Password: "user123", Role: models.RoleUser},
}

type credential struct {
	hash []byte
	role models.Role
}

// UserInfo is a credential table entry without its secret
type UserInfo struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// Table maps usernames to password hashes and roles
type Table struct {
	mu      sync.RWMutex
	entries map[string]credential
	cost    int
	// dummy is compared against for unknown usernames
	dummy []byte
}

// NewTable creates a table seeded with DemoCredentials
func NewTable(cost int) (*Table, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash dummy password: %w", err)
	}
	t := &Table{
		entries: make(map[string]credential),
		cost:    cost,
		dummy:   dummy,
	}
	for _, c := range DemoCredentials {
		if err := t.put(c.Username, c.Password, c.Role); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) put(username, password string, role models.Role) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), t.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[username]; exists {
		return ErrUserExists
	}
	t.entries[username] = credential{hash: hash, role: role}
	return nil
}

// Seed adds a pre-hashed credential. Existing usernames are kept.
func (t *Table) Seed(seed models.CredentialSeed) error {
	if seed.Username == "" {
		return ErrInvalidUsername
	}
	if !models.ValidRoles[seed.Role] {
		return fmt.Errorf("%w: %s", ErrInvalidRole, seed.Role)
	}
	if _, err := bcrypt.Cost([]byte(seed.PasswordHash)); err != nil {
		return fmt.Errorf("seed %s: %w", seed.Username, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[seed.Username]; exists {
		return ErrUserExists
	}
	t.entries[seed.Username] = credential{hash: []byte(seed.PasswordHash), role: seed.Role}
	return nil
}

// Authenticate checks a username/password pair. Unknown usernames and wrong
// passwords both return ErrInvalidCredentials.
func (t *Table) Authenticate(username, password string) (models.Session, error) {
	t.mu.RLock()
	cred, ok := t.entries[username]
	t.mu.RUnlock()

	if !ok {
		_ = bcrypt.CompareHashAndPassword(t.dummy, []byte(password))
		return models.Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(cred.hash, []byte(password)); err != nil {
		return models.Session{}, ErrInvalidCredentials
	}
	return models.Session{LoggedIn: true, Username: username, Role: cred.role}, nil
}

// Add appends a credential on behalf of an admin session
func (t *Table) Add(actor models.Session, username, password string, role models.Role) error {
	if !actor.IsAdmin() {
		return ErrAccessDenied
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrInvalidUsername
	}
	if password == "" {
		return ErrInvalidPassword
	}
	if !models.ValidRoles[role] {
		return fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	return t.put(username, password, role)
}

// Users lists every username and role, sorted by username
func (t *Table) Users() []UserInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	users := make([]UserInfo, 0, len(t.entries))
	for name, c := range t.entries {
		users = append(users, UserInfo{Username: name, Role: c.role})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}
