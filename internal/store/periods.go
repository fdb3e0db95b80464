package store

import (
	"database/sql"
	"fmt"
	"time"
)

// GetPeriod returns the stored document for key. A period that was never
// written comes back with empty content.
func (s *Store) GetPeriod(key string) (*Period, error) {
	p := &Period{Key: key}
	var updatedAt string
	err := s.db.QueryRow(
		`SELECT content, updated_at FROM periods WHERE period = ?`, key,
	).Scan(&p.Content, &updatedAt)
	if err == sql.ErrNoRows {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get period %s: %w", key, err)
	}
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return p, nil
}

// PutPeriod replaces the document for key in a single statement, so
// readers see either the old or the new content.
func (s *Store) PutPeriod(key, content string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO periods (period, content, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(period) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		key, content, now,
	)
	if err != nil {
		return fmt.Errorf("put period %s: %w", key, err)
	}
	return nil
}

// ListPeriods returns the keys of all non-empty periods, oldest first.
func (s *Store) ListPeriods() ([]string, error) {
	rows, err := s.db.Query(`SELECT period FROM periods WHERE content != '' ORDER BY period`)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// LatestPeriod returns the newest non-empty period key, or "" when the
// store holds no intervals.
func (s *Store) LatestPeriod() (string, error) {
	var key string
	err := s.db.QueryRow(
		`SELECT period FROM periods WHERE content != '' ORDER BY period DESC LIMIT 1`,
	).Scan(&key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest period: %w", err)
	}
	return key, nil
}

// PutPeriods replaces several documents in one transaction.
func (s *Store) PutPeriods(docs map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for key, content := range docs {
		_, err := tx.Exec(
			`INSERT INTO periods (period, content, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(period) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
			key, content, now,
		)
		if err != nil {
			return fmt.Errorf("put period %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit periods: %w", err)
	}
	return nil
}
