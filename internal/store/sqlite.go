package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jmaddaus/rocktalk/internal/engine"
	"github.com/jmaddaus/rocktalk/internal/model"
)

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	opts options

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and runs
// migrations. Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A pooled second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	// Enable WAL mode and foreign keys for better concurrency and integrity.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %s: %w", pragma, err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, opts: buildOptions(opts)}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Issues
// ---------------------------------------------------------------------------

func (s *SQLiteStore) CreateIssue(ctx context.Context, actor string, req model.NewIssue) (*model.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue := engine.Create(s.opts.newID(), actor, req, s.opts.now())
	labelsJSON, err := json.Marshal(issue.Labels)
	if err != nil {
		return nil, fmt.Errorf("marshal labels: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO issues (id, title, description, status, creator, assignee, priority, labels, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, issue.Title, issue.Description, issue.Status, issue.Creator,
		issue.Assignee, issue.Priority, string(labelsJSON),
		formatTime(issue.CreatedAt), formatTime(issue.UpdatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("issue id %s already exists", issue.ID)
		}
		return nil, err
	}
	return issue, nil
}

func (s *SQLiteStore) GetIssue(ctx context.Context, id string) (*model.Issue, error) {
	return s.getIssue(ctx, s.db, id)
}

func (s *SQLiteStore) ListIssues(ctx context.Context, filter model.IssueFilter) ([]*model.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE 1=1`
	var args []interface{}

	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, *filter.Status)
	}
	if filter.Assignee != nil {
		query += " AND assignee = ?"
		args = append(args, *filter.Assignee)
	}
	if filter.Creator != nil {
		query += " AND creator = ?"
		args = append(args, *filter.Creator)
	}
	if filter.Priority != nil {
		query += " AND priority = ?"
		args = append(args, *filter.Priority)
	}
	query += " ORDER BY seq ASC"

	issues, err := s.queryIssues(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	// Label membership lives in a JSON column; the engine applies it.
	return engine.Filter(issues, model.IssueFilter{Labels: filter.Labels}), nil
}

func (s *SQLiteStore) SearchIssues(ctx context.Context, query string) ([]*model.Issue, error) {
	issues, err := s.queryIssues(ctx, `SELECT `+issueColumns+` FROM issues ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	return engine.Search(issues, query), nil
}

func (s *SQLiteStore) UpdateIssue(ctx context.Context, id string, upd model.IssueUpdate) (*model.Issue, error) {
	var out *model.Issue
	err := s.mutate(ctx, id, func(tx *sql.Tx, issue *model.Issue) error {
		engine.ApplyUpdate(issue, upd, s.opts.now())
		out = issue
		return writeIssue(ctx, tx, issue)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) AddComment(ctx context.Context, id, actor, content string) (*model.Comment, error) {
	var out model.Comment
	err := s.mutate(ctx, id, func(tx *sql.Tx, issue *model.Issue) error {
		out = engine.AddComment(issue, s.opts.newCommentID(), actor, content, s.opts.now())
		if err := insertComment(ctx, tx, issue.ID, out); err != nil {
			return err
		}
		return writeIssue(ctx, tx, issue)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SQLiteStore) CloseIssue(ctx context.Context, id, actor, resolution string) (*model.Issue, error) {
	var out *model.Issue
	err := s.mutate(ctx, id, func(tx *sql.Tx, issue *model.Issue) error {
		c := engine.ApplyClose(issue, s.opts.newCommentID(), actor, resolution, s.opts.now())
		if err := writeIssue(ctx, tx, issue); err != nil {
			return err
		}
		out = issue
		return insertComment(ctx, tx, issue.ID, c)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// mutate loads the issue inside a transaction, lets fn change it and write
// the changes, and commits.
func (s *SQLiteStore) mutate(ctx context.Context, id string, fn func(tx *sql.Tx, issue *model.Issue) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	issue, err := s.getIssue(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := fn(tx, issue); err != nil {
		return err
	}
	return tx.Commit()
}

func writeIssue(ctx context.Context, tx *sql.Tx, issue *model.Issue) error {
	labelsJSON, err := json.Marshal(issue.Labels)
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE issues SET title=?, description=?, status=?, assignee=?, priority=?, labels=?, updated_at=?
		 WHERE id=?`,
		issue.Title, issue.Description, issue.Status, issue.Assignee, issue.Priority,
		string(labelsJSON), formatTime(issue.UpdatedAt), issue.ID)
	return err
}

func insertComment(ctx context.Context, tx *sql.Tx, issueID string, c model.Comment) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO comments (id, issue_id, author, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, issueID, c.Author, c.Content, formatTime(c.CreatedAt))
	return err
}

// ---------------------------------------------------------------------------
// Scan helpers
// ---------------------------------------------------------------------------

const issueColumns = `id, title, description, status, creator, assignee, priority, labels, created_at, updated_at`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (s *SQLiteStore) getIssue(ctx context.Context, q querier, id string) (*model.Issue, error) {
	row := q.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	issue, err := scanIssue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	comments, err := loadComments(ctx, q, `WHERE issue_id = ?`, id)
	if err != nil {
		return nil, err
	}
	issue.Comments = append(issue.Comments, comments[id]...)
	return issue, nil
}

func (s *SQLiteStore) queryIssues(ctx context.Context, query string, args ...interface{}) ([]*model.Issue, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	issues := make([]*model.Issue, 0)
	for rows.Next() {
		iss, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, iss)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return issues, nil
	}

	comments, err := loadComments(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	for _, iss := range issues {
		iss.Comments = append(iss.Comments, comments[iss.ID]...)
	}
	return issues, nil
}

// loadComments returns comments grouped by issue id, each group in
// insertion order.
func loadComments(ctx context.Context, q querier, where string, args ...interface{}) (map[string][]model.Comment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT issue_id, id, author, content, created_at FROM comments `+where+` ORDER BY seq ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]model.Comment)
	for rows.Next() {
		var issueID, createdAt string
		var c model.Comment
		if err := rows.Scan(&issueID, &c.ID, &c.Author, &c.Content, &createdAt); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("comment %s: %w", c.ID, err)
		}
		out[issueID] = append(out[issueID], c)
	}
	return out, rows.Err()
}

func scanIssue(row scanner) (*model.Issue, error) {
	var iss model.Issue
	var assignee, priority sql.NullString
	var labelsJSON string
	var createdAt, updatedAt string

	err := row.Scan(&iss.ID, &iss.Title, &iss.Description, &iss.Status, &iss.Creator,
		&assignee, &priority, &labelsJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if assignee.Valid {
		iss.Assignee = model.String(assignee.String)
	}
	if priority.Valid {
		iss.Priority = model.String(priority.String)
	}
	if err := json.Unmarshal([]byte(labelsJSON), &iss.Labels); err != nil || iss.Labels == nil {
		iss.Labels = []string{}
	}
	iss.Comments = []model.Comment{}
	if iss.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("issue %s: %w", iss.ID, err)
	}
	if iss.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("issue %s: %w", iss.ID, err)
	}
	return &iss, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
