package backlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/support-router/internal/db"
)

// ErrNotFound is returned when no question has the requested id.
var ErrNotFound = errors.New("question not found")

const timeLayout = "2006-01-02 15:04:05.000000"

// Store manages persistence of knowledge gaps.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a new backlog store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Normalize folds case, whitespace and trailing punctuation so that
// rephrasings of the same question share a row.
func Normalize(question string) string {
	q := strings.ToLower(strings.Join(strings.Fields(question), " "))
	return strings.TrimRight(q, "?!. ")
}

// Record notes that question went unanswered. bestSource and bestSimilarity
// describe the closest passage found, if any. A question seen before has its
// occurrence count and last-seen time bumped.
func (s *Store) Record(ctx context.Context, question, bestSource string, bestSimilarity float32) error {
	normalized := Normalize(question)
	if normalized == "" {
		return nil
	}
	now := formatTime(s.now())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO knowledge_gaps (id, question, normalized, best_source, best_similarity, status, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(normalized) DO UPDATE SET
			occurrences = occurrences + 1,
			last_seen = excluded.last_seen,
			best_source = excluded.best_source,
			best_similarity = excluded.best_similarity`,
		uuid.New().String(), strings.TrimSpace(question), normalized, bestSource, float64(bestSimilarity), StatusOpen, now, now,
	)
	if err != nil {
		return fmt.Errorf("recording knowledge gap: %w", err)
	}
	return nil
}

const selectQuestions = `SELECT id, question, occurrences, best_source, best_similarity, status, answer, answered_by, answered_at, first_seen, last_seen
	FROM knowledge_gaps`

// GetByID retrieves a question by its ID.
func (s *Store) GetByID(ctx context.Context, id string) (*Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx, selectQuestions+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting question: %w", err)
	}
	return q, nil
}

// List returns questions matching the filter, most frequent first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Question, error) {
	query := selectQuestions + " WHERE 1=1"
	var args []any

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.MinOccurrences > 0 {
		query += " AND occurrences >= ?"
		args = append(args, filter.MinOccurrences)
	}

	query += " ORDER BY occurrences DESC, last_seen DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// Answer records how a gap was closed, typically which policy was added.
func (s *Store) Answer(ctx context.Context, id, answer, answeredBy string) error {
	now := formatTime(s.now())
	return s.update(ctx, id,
		`UPDATE knowledge_gaps SET answer = ?, answered_by = ?, answered_at = ?, status = ? WHERE id = ?`,
		answer, answeredBy, now, StatusAnswered, id,
	)
}

// UpdateStatus changes the status of a question.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	return s.update(ctx, id, `UPDATE knowledge_gaps SET status = ? WHERE id = ?`, status, id)
}

func (s *Store) update(ctx context.Context, id, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating question %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// OpenCount returns the number of open questions.
func (s *Store) OpenCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM knowledge_gaps WHERE status = ?`, StatusOpen,
	).Scan(&count)
	return count, err
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(sc scanner) (*Question, error) {
	var (
		q                   Question
		answeredAt          sql.NullString
		firstSeen, lastSeen string
	)
	if err := sc.Scan(&q.ID, &q.Question, &q.Occurrences, &q.BestSource, &q.BestSimilarity, &q.Status,
		&q.Answer, &q.AnsweredBy, &answeredAt, &firstSeen, &lastSeen); err != nil {
		return nil, err
	}
	q.FirstSeen = parseTime(firstSeen)
	q.LastSeen = parseTime(lastSeen)
	if answeredAt.Valid && answeredAt.String != "" {
		t := parseTime(answeredAt.String)
		q.AnsweredAt = &t
	}
	return &q, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
