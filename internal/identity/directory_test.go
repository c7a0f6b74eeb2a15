package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pairlink/pairlink/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testDirectory(t *testing.T) *Directory {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("alice_pass"), bcrypt.MinCost)
	require.NoError(t, err)
	return New([]models.User{
		{Username: "alice", PasswordHash: string(hash)},
		{Username: "bob", PasswordHash: string(hash)},
	}, nil)
}

func TestVerify(t *testing.T) {
	d := testDirectory(t)

	assert.NoError(t, d.Verify("alice", "alice_pass"))
	assert.ErrorIs(t, d.Verify("alice", "wrong"), ErrInvalidCredential)
	assert.ErrorIs(t, d.Verify("mallory", "alice_pass"), ErrUnknownUser)
}

func TestSetPublicKey(t *testing.T) {
	d := testDirectory(t)

	d.SetPublicKey("alice", "pk-alice")
	u, ok := d.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "pk-alice", u.PublicKey)

	// Unknown usernames are a silent no-op.
	d.SetPublicKey("mallory", "pk-mallory")
	_, ok = d.Get("mallory")
	assert.False(t, ok)
}

func TestCounterpart(t *testing.T) {
	d := testDirectory(t)

	other, ok := d.Counterpart("alice")
	require.True(t, ok)
	assert.Equal(t, "bob", other.Username)

	other, ok = d.Counterpart("bob")
	require.True(t, ok)
	assert.Equal(t, "alice", other.Username)

	single := New([]models.User{{Username: "alice"}}, nil)
	_, ok = single.Counterpart("alice")
	assert.False(t, ok)
}

func TestMarkLastSeen(t *testing.T) {
	d := testDirectory(t)

	d.MarkLastSeen("alice", 1234)
	u, _ := d.Get("alice")
	assert.Equal(t, int64(1234), u.LastSeen)
}

func TestLoad(t *testing.T) {
	entries := []map[string]string{
		{"username": "alice", "password_hash": "hash-a"},
		{"username": "bob", "password_hash": "hash-b"},
	}
	b, err := json.Marshal(entries)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, b, 0o600))

	d, err := Load(path)
	require.NoError(t, err)

	u, ok := d.Get("bob")
	require.True(t, ok)
	assert.Equal(t, "hash-b", u.PasswordHash)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestCustomChecker(t *testing.T) {
	called := false
	d := New([]models.User{{Username: "alice", PasswordHash: "plain"}},
		func(hash, password string) error {
			called = true
			if hash != password {
				return ErrInvalidCredential
			}
			return nil
		})

	assert.NoError(t, d.Verify("alice", "plain"))
	assert.True(t, called)
}
