package store

import "github.com/pairlink/pairlink/internal/models"

// Ledger is the append-only message record. Envelopes are appended exactly
// once on send and never removed; only the per-message read metadata mutates.
type Ledger interface {
	// Append stores the envelope, assigning an id and a Unix-ms timestamp
	// when absent, and returns the stored form. It never rejects: envelopes
	// addressed to unknown recipients are kept too.
	Append(env models.Envelope) (models.Envelope, error)

	// Since returns a snapshot of envelopes with Ts > since, in insertion
	// order. Ts is a cursor, not a total order; clients may supply skewed
	// timestamps.
	Since(since int64) ([]models.Envelope, error)

	// MarkRead adds reader to the envelope's ReadBy set, deduplicated.
	// ok is false when no envelope has the given id.
	MarkRead(id, reader string) (env models.Envelope, ok bool, err error)
}
