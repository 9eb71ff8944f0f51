package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lalfaro-lab/sms-platform/internal/models"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// SQLiteStore is the relational Store backend.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at dsn, verifies connectivity and
// creates the schema when missing.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is required")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Verify we can actually connect to the database
	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("ping failed: %w, close failed: %v", err, closeErr)
		}
		return nil, err
	}

	// Try to create tables - if this fails, the database is not usable
	if err := createTables(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("create tables failed: %w, close failed: %v", err, closeErr)
		}
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			phone_number TEXT NOT NULL,
			message TEXT NOT NULL,
			status TEXT DEFAULT 'pending',
			type TEXT DEFAULT 'sent',
			gateway_message_id TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS contacts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			phone_number TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS webhooks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event TEXT NOT NULL,
			payload TEXT NOT NULL,
			received_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_type ON messages(type);
		CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);
	`)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return errors.New("store already closed")
	}

	err := s.db.Close()
	s.db = nil
	return err
}

// InsertMessage appends a message record and returns its row id.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *models.Message) (string, error) {
	if msg == nil {
		return "", errors.New("message cannot be nil")
	}
	if msg.PhoneNumber == "" || msg.Body == "" {
		return "", errors.New("phone number and message body are required")
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.Status == "" {
		msg.Status = models.StatusPending
	}
	if msg.Direction == "" {
		msg.Direction = models.DirectionSent
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (phone_number, message, status, type, gateway_message_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		msg.PhoneNumber,
		msg.Body,
		msg.Status,
		msg.Direction,
		msg.GatewayMessageID,
		msg.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert message: %w", err)
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("failed to read inserted message id: %w", err)
	}

	msg.ID = strconv.FormatInt(rowID, 10)
	return msg.ID, nil
}

// ListMessages returns messages newest first, optionally filtered by direction.
func (s *SQLiteStore) ListMessages(ctx context.Context, direction string, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := "SELECT id, phone_number, message, status, type, gateway_message_id, created_at FROM messages"
	var args []interface{}
	if direction != "" {
		query += " WHERE type = ?"
		args = append(args, direction)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var (
			m         models.Message
			rowID     int64
			gatewayID sql.NullString
		)
		if err := rows.Scan(&rowID, &m.PhoneNumber, &m.Body, &m.Status, &m.Direction, &gatewayID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.ID = strconv.FormatInt(rowID, 10)
		if gatewayID.Valid {
			id := gatewayID.String
			m.GatewayMessageID = &id
		}
		messages = append(messages, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// CountMessages counts messages matching the given filters.
func (s *SQLiteStore) CountMessages(ctx context.Context, direction string, todayOnly bool) (int, error) {
	query := "SELECT COUNT(*) FROM messages"
	var (
		conds []string
		args  []interface{}
	)
	if direction != "" {
		conds = append(conds, "type = ?")
		args = append(args, direction)
	}
	if todayOnly {
		conds = append(conds, "DATE(created_at) = DATE('now')")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// InsertContact creates a contact. The UNIQUE constraint on
// phone_number makes the duplicate check atomic.
func (s *SQLiteStore) InsertContact(ctx context.Context, name, phoneNumber string) (*models.Contact, error) {
	if name == "" || phoneNumber == "" {
		return nil, errors.New("name and phone number are required")
	}

	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO contacts (name, phone_number, created_at) VALUES (?, ?, ?)",
		name, phoneNumber, createdAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrDuplicateContact
		}
		return nil, fmt.Errorf("failed to insert contact: %w", err)
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted contact id: %w", err)
	}

	return &models.Contact{
		ID:          strconv.FormatInt(rowID, 10),
		Name:        name,
		PhoneNumber: phoneNumber,
		CreatedAt:   createdAt,
	}, nil
}

// ListContacts returns all contacts ordered by name.
func (s *SQLiteStore) ListContacts(ctx context.Context) ([]*models.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, phone_number, created_at FROM contacts ORDER BY name ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		var (
			c     models.Contact
			rowID int64
		)
		if err := rows.Scan(&rowID, &c.Name, &c.PhoneNumber, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		c.ID = strconv.FormatInt(rowID, 10)
		contacts = append(contacts, &c)
	}

	return contacts, rows.Err()
}

// CountContacts returns the total number of contacts.
func (s *SQLiteStore) CountContacts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contacts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}

// DeleteContact removes the contact with the given id.
func (s *SQLiteStore) DeleteContact(ctx context.Context, id string) error {
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		// Non-numeric ids cannot match any row.
		return ErrContactNotFound
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", rowID)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrContactNotFound
	}

	return nil
}

// InsertWebhookEvent appends a raw gateway callback.
func (s *SQLiteStore) InsertWebhookEvent(ctx context.Context, event string, payload json.RawMessage) (string, error) {
	if event == "" {
		return "", errors.New("event is required")
	}
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO webhooks (event, payload, received_at) VALUES (?, ?, ?)",
		event, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert webhook event: %w", err)
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("failed to read inserted webhook id: %w", err)
	}

	return strconv.FormatInt(rowID, 10), nil
}
