package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pairlink/pairlink/internal/models"
)

// SQLStore is the persistent message ledger. The seq column records
// insertion order, which Since preserves regardless of client-supplied
// timestamp skew; msg_id is deliberately not unique so that Append never
// rejects (MarkRead resolves duplicates to the first occurrence).
type SQLStore struct {
	db         *sql.DB
	driverName string
}

func New(driverName, dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLStore{db: db, driverName: driverName}
	if err := s.createTables(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) createTables() error {
	// Simplified for brevity, ideally use migrations
	query := `
	CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		msg_id TEXT NOT NULL,
		from_user TEXT NOT NULL,
		to_user TEXT NOT NULL,
		ts BIGINT NOT NULL,
		payload TEXT,
		read_by TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_messages_ts ON messages (ts);
	`

	if s.driverName == "postgres" {
		// Adjust for Postgres syntax
		query = strings.ReplaceAll(query, "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY")
	}

	_, err := s.db.Exec(query)
	return err
}

// Helper to handle placeholders
func (s *SQLStore) rebind(query string) string {
	if s.driverName == "postgres" {
		// Replace ? with $1, $2, etc.
		n := strings.Count(query, "?")
		for i := 1; i <= n; i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}
	return query
}

func (s *SQLStore) Append(env models.Envelope) (models.Envelope, error) {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	if env.Ts == 0 {
		env.Ts = time.Now().UnixMilli()
	}

	readBy, err := json.Marshal(readBySet(env.Meta.ReadBy))
	if err != nil {
		return models.Envelope{}, err
	}

	query := s.rebind("INSERT INTO messages (msg_id, from_user, to_user, ts, payload, read_by) VALUES (?, ?, ?, ?, ?, ?)")
	_, err = s.db.Exec(query, env.ID, env.From, env.To, env.Ts, string(env.Payload), string(readBy))
	if err != nil {
		return models.Envelope{}, err
	}
	return env, nil
}

func (s *SQLStore) Since(since int64) ([]models.Envelope, error) {
	query := s.rebind("SELECT msg_id, from_user, to_user, ts, payload, read_by FROM messages WHERE ts > ? ORDER BY seq ASC")
	rows, err := s.db.Query(query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	envelopes := []models.Envelope{}
	for rows.Next() {
		env, err := scanEnvelope(rows)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, env)
	}
	return envelopes, rows.Err()
}

func (s *SQLStore) MarkRead(id, reader string) (models.Envelope, bool, error) {
	query := s.rebind("SELECT seq, msg_id, from_user, to_user, ts, payload, read_by FROM messages WHERE msg_id = ? ORDER BY seq ASC LIMIT 1")

	var seq int64
	var env models.Envelope
	var payload, readBy string
	err := s.db.QueryRow(query, id).Scan(&seq, &env.ID, &env.From, &env.To, &env.Ts, &payload, &readBy)
	if err == sql.ErrNoRows {
		return models.Envelope{}, false, nil
	}
	if err != nil {
		return models.Envelope{}, false, err
	}
	env.Payload = rawPayload(payload)

	var readers []string
	if err := json.Unmarshal([]byte(readBy), &readers); err != nil {
		return models.Envelope{}, false, err
	}
	for _, r := range readers {
		if r == reader {
			env.Meta.ReadBy = readers
			return env, true, nil
		}
	}
	readers = append(readers, reader)

	updated, err := json.Marshal(readers)
	if err != nil {
		return models.Envelope{}, false, err
	}
	query = s.rebind("UPDATE messages SET read_by = ? WHERE seq = ?")
	if _, err := s.db.Exec(query, string(updated), seq); err != nil {
		return models.Envelope{}, false, err
	}

	env.Meta.ReadBy = readers
	return env, true, nil
}

func scanEnvelope(rows *sql.Rows) (models.Envelope, error) {
	var env models.Envelope
	var payload, readBy string
	if err := rows.Scan(&env.ID, &env.From, &env.To, &env.Ts, &payload, &readBy); err != nil {
		return models.Envelope{}, err
	}
	env.Payload = rawPayload(payload)

	var readers []string
	if err := json.Unmarshal([]byte(readBy), &readers); err != nil {
		return models.Envelope{}, err
	}
	if len(readers) > 0 {
		env.Meta.ReadBy = readers
	}
	return env, nil
}

func rawPayload(payload string) json.RawMessage {
	if payload == "" {
		return nil
	}
	return json.RawMessage(payload)
}

// readBySet keeps the stored read_by column valid JSON even for a nil slice.
func readBySet(readers []string) []string {
	if readers == nil {
		return []string{}
	}
	return readers
}
