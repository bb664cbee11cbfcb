package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/tenderlens/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		message_id TEXT,
		subject TEXT,
		sender TEXT,
		attachment_name TEXT NOT NULL,
		extract_method TEXT,
		email_summary TEXT NOT NULL,
		tender_summary TEXT NOT NULL,
		heading TEXT NOT NULL,
		row_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_reports_updated_at ON reports(updated_at);
	CREATE INDEX IF NOT EXISTS idx_reports_message_id ON reports(message_id);
	`
	_, err := db.Exec(schema)
	return err
}

const reportColumns = `id, message_id, subject, sender, attachment_name, extract_method,
	email_summary, tender_summary, heading, row_count, created_at, updated_at`

// SaveReport upserts a report. Last write wins.
func (s *SQLiteStorage) SaveReport(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		return fmt.Errorf("report ID is required")
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (`+reportColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			message_id = excluded.message_id,
			subject = excluded.subject,
			sender = excluded.sender,
			attachment_name = excluded.attachment_name,
			extract_method = excluded.extract_method,
			email_summary = excluded.email_summary,
			tender_summary = excluded.tender_summary,
			heading = excluded.heading,
			row_count = excluded.row_count,
			updated_at = excluded.updated_at`,
		report.ID, report.MessageID, report.Subject, report.Sender, report.AttachmentName,
		report.ExtractMethod, report.EmailSummary, report.TenderSummary, report.Heading,
		report.RowCount, report.CreatedAt, report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	// An existing row keeps its original creation time.
	if err := s.db.QueryRowContext(ctx, `SELECT created_at FROM reports WHERE id = ?`, report.ID).
		Scan(&report.CreatedAt); err != nil {
		return fmt.Errorf("failed to read back report: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var r models.Report
	var messageID, subject, sender, method sql.NullString
	err := row.Scan(&r.ID, &messageID, &subject, &sender, &r.AttachmentName, &method,
		&r.EmailSummary, &r.TenderSummary, &r.Heading, &r.RowCount, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.MessageID = messageID.String
	r.Subject = subject.String
	r.Sender = sender.String
	r.ExtractMethod = method.String
	return &r, nil
}

// GetReport returns a report by ID.
func (s *SQLiteStorage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListReports returns reports with pagination, newest update first.
func (s *SQLiteStorage) ListReports(ctx context.Context, offset, limit int) ([]*models.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports ORDER BY updated_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// DeleteReport removes a report by ID.
func (s *SQLiteStorage) DeleteReport(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// CountReports returns the number of stored reports.
func (s *SQLiteStorage) CountReports(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
