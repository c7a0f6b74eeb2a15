package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/pairlink/pairlink/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUnknownUser       = errors.New("unknown user")
	ErrInvalidCredential = errors.New("invalid password")
)

// Checker verifies a plaintext password against a stored hash.
type Checker func(passwordHash, password string) error

// BcryptChecker is the default credential check.
func BcryptChecker(passwordHash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))
}

// Directory holds the fixed set of known users. Users are loaded once at
// startup and never added or removed while the process runs; only their
// public key and last-seen fields change.
type Directory struct {
	mu    sync.RWMutex
	users map[string]*models.User
	check Checker
}

func New(users []models.User, check Checker) *Directory {
	if check == nil {
		check = BcryptChecker
	}
	d := &Directory{
		users: make(map[string]*models.User, len(users)),
		check: check,
	}
	for i := range users {
		u := users[i]
		d.users[u.Username] = &u
	}
	return d
}

// Load reads the user registry from a JSON file of
// [{"username": ..., "password_hash": ...}] entries.
func Load(path string) (*Directory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}

	var entries []struct {
		Username     string `json:"username"`
		PasswordHash string `json:"password_hash"`
	}
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}

	users := make([]models.User, 0, len(entries))
	for _, e := range entries {
		users = append(users, models.User{Username: e.Username, PasswordHash: e.PasswordHash})
	}
	return New(users, nil), nil
}

// Verify checks credentials against the registry. It returns ErrUnknownUser
// or ErrInvalidCredential; it has no side effects beyond logging.
func (d *Directory) Verify(username, password string) error {
	d.mu.RLock()
	u, ok := d.users[username]
	d.mu.RUnlock()
	if !ok {
		log.Printf("login failed: unknown user %s", username)
		return ErrUnknownUser
	}
	if err := d.check(u.PasswordHash, password); err != nil {
		log.Printf("login failed: invalid password for user %s", username)
		return ErrInvalidCredential
	}
	return nil
}

// SetPublicKey stores key on the identity. Unknown usernames are ignored;
// key publication is best-effort.
func (d *Directory) SetPublicKey(username, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[username]
	if !ok {
		log.Printf("setPublicKey: unknown user %s", username)
		return
	}
	u.PublicKey = key
	log.Printf("public key set for %s", username)
}

// MarkLastSeen records the disconnect timestamp in Unix milliseconds.
func (d *Directory) MarkLastSeen(username string, ts int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[username]; ok {
		u.LastSeen = ts
	}
}

// Get returns a snapshot of the identity, if known.
func (d *Directory) Get(username string) (models.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[username]
	if !ok {
		return models.User{}, false
	}
	return *u, true
}

// Counterpart returns the single other known identity. With more than two
// users registered the first other identity found is returned; the relay is
// a two-party system so in practice there is exactly one.
func (d *Directory) Counterpart(username string) (models.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for name, u := range d.users {
		if name != username {
			return *u, true
		}
	}
	return models.User{}, false
}
