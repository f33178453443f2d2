package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/postcraft/internal"
)

// Source describes what a post was generated from.
type Source struct {
	Type     string `json:"type"`
	Ref      string `json:"ref,omitempty"`
	Title    string `json:"title,omitempty"`
	Language string `json:"language,omitempty"`
	Content  string `json:"content,omitempty"`
}

// Translation is a stored localized version of a post.
type Translation struct {
	Language string `json:"language"`
	Text     string `json:"text"`
	Service  string `json:"service,omitempty"`
}

// NewPost is everything the finalization stage persists for one run.
type NewPost struct {
	UserID       string
	Input        string
	Generator    string
	Result       internal.LoopResult
	History      []internal.DraftVersion
	Source       Source
	Translations []Translation
}

// Post is a stored post without its history.
type Post struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id,omitempty"`
	Input             string    `json:"input"`
	Content           string    `json:"content"`
	IterationsUsed    int       `json:"iterations_used"`
	ExitedEarly       bool      `json:"exited_early"`
	TerminationReason string    `json:"termination_reason"`
	Generator         string    `json:"generator,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	Source            *Source   `json:"source,omitempty"`
}

// SavePost stores a finished run in one transaction and returns the post ID.
func (s *Store) SavePost(ctx context.Context, p NewPost) (string, error) {
	content := normalizeText(p.Result.FinalDraft)
	if content == "" {
		return "", fmt.Errorf("refusing to save an empty post")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	now := time.Now().UTC()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO posts (id, user_id, input, content, iterations_used, exited_early, termination_reason, generator, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, nullable(p.UserID), normalizeText(p.Input), content, p.Result.IterationsUsed,
		p.Result.ExitedEarly, p.Result.TerminationReason, nullable(p.Generator), now); err != nil {
		return "", fmt.Errorf("failed to save post: %w", err)
	}

	for _, v := range p.History {
		created := v.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_versions (post_id, version_number, content, feedback, produced_at_iteration, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, v.VersionNumber, v.Content, nullable(v.Feedback), v.ProducedAtIteration, created); err != nil {
			return "", fmt.Errorf("failed to save version %d: %w", v.VersionNumber, err)
		}
	}

	if p.Source.Type != "" {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_sources (post_id, source_type, source_ref, title, language, content) VALUES (?, ?, ?, ?, ?, ?)`,
			id, p.Source.Type, nullable(p.Source.Ref), nullable(p.Source.Title),
			nullable(p.Source.Language), nullable(normalizeText(p.Source.Content))); err != nil {
			return "", fmt.Errorf("failed to save source: %w", err)
		}
	}

	for _, tr := range p.Translations {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO post_translations (post_id, language, text, service, created_at) VALUES (?, ?, ?, ?, ?)`,
			id, tr.Language, normalizeText(tr.Text), nullable(tr.Service), now); err != nil {
			return "", fmt.Errorf("failed to save %s translation: %w", tr.Language, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

const postColumns = `p.id, p.user_id, p.input, p.content, p.iterations_used, p.exited_early,
	p.termination_reason, p.generator, p.created_at,
	s.source_type, s.source_ref, s.title, s.language`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*Post, error) {
	var (
		p                                  Post
		userID, reason, gen                sql.NullString
		srcType, srcRef, srcTitle, srcLang sql.NullString
	)
	if err := row.Scan(&p.ID, &userID, &p.Input, &p.Content, &p.IterationsUsed, &p.ExitedEarly,
		&reason, &gen, &p.CreatedAt, &srcType, &srcRef, &srcTitle, &srcLang); err != nil {
		return nil, err
	}
	p.UserID = userID.String
	p.TerminationReason = reason.String
	p.Generator = gen.String
	if srcType.Valid {
		p.Source = &Source{Type: srcType.String, Ref: srcRef.String, Title: srcTitle.String, Language: srcLang.String}
	}
	return &p, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts p LEFT JOIN post_sources s ON s.post_id = p.id WHERE p.id = ?`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return p, err
}

// ListPosts returns posts newest first, optionally for one user. limit <= 0
// means no limit.
func (s *Store) ListPosts(ctx context.Context, userID string, limit int) ([]Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p LEFT JOIN post_sources s ON s.post_id = p.id`
	var args []any
	if userID != "" {
		query += ` WHERE p.user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY p.created_at DESC, p.rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// PostHistory returns the refinement history in version order.
func (s *Store) PostHistory(ctx context.Context, postID string) ([]internal.DraftVersion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version_number, content, feedback, produced_at_iteration, created_at
		 FROM post_versions WHERE post_id = ? ORDER BY version_number`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []internal.DraftVersion
	for rows.Next() {
		var (
			v        internal.DraftVersion
			feedback sql.NullString
		)
		if err := rows.Scan(&v.VersionNumber, &v.Content, &feedback, &v.ProducedAtIteration, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.Feedback = feedback.String
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (s *Store) PostTranslations(ctx context.Context, postID string) ([]Translation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT language, text, service FROM post_translations WHERE post_id = ? ORDER BY language`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Translation
	for rows.Next() {
		var (
			tr      Translation
			service sql.NullString
		)
		if err := rows.Scan(&tr.Language, &tr.Text, &service); err != nil {
			return nil, err
		}
		tr.Service = service.String
		out = append(out, tr)
	}
	return out, rows.Err()
}

// DeletePost removes a post with its history, source and translations.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return nil
}

// RunStats summarises refinement outcomes. A high cap-hit ratio means the
// quality thresholds are hard to meet and may need retuning.
type RunStats struct {
	TotalPosts     int     `json:"total_posts"`
	ExitedEarly    int     `json:"exited_early"`
	CapReached     int     `json:"cap_reached"`
	CapHitRatio    float64 `json:"cap_hit_ratio"`
	MeanIterations float64 `json:"mean_iterations"`
	MaxIterations  int     `json:"max_iterations"`
}

// Stats computes RunStats over all posts, or one user's posts.
func (s *Store) Stats(ctx context.Context, userID string) (*RunStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN exited_early THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(iterations_used), 0),
			COALESCE(MAX(iterations_used), 0)
		FROM posts`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}

	stats := &RunStats{}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalPosts,
		&stats.ExitedEarly,
		&stats.MeanIterations,
		&stats.MaxIterations,
	); err != nil {
		return nil, err
	}
	stats.CapReached = stats.TotalPosts - stats.ExitedEarly
	if stats.TotalPosts > 0 {
		stats.CapHitRatio = float64(stats.CapReached) / float64(stats.TotalPosts)
	}
	return stats, nil
}
