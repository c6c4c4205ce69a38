package blog

import (
	"context"
	"fmt"

	"github.com/liveenity/liveenity/libsql"
)

// Store reads and writes posts through a libsql.Querier.
type Store struct {
	q libsql.Querier
}

// NewStore returns a Store backed by q.
func NewStore(q libsql.Querier) *Store {
	return &Store{q: q}
}

// GetPost returns the post with the given slug, or ErrNotFound. Database
// failures are returned unchanged so callers can classify them.
func (s *Store) GetPost(ctx context.Context, slug string) (Post, error) {
	res, err := s.q.Query(ctx, `SELECT * FROM blog_posts WHERE slug = ? LIMIT 1`, slug)
	if err != nil {
		return Post{}, err
	}
	if len(res.Rows) == 0 {
		return Post{}, ErrNotFound
	}
	return postFromRecord(res.Record(0)), nil
}

// ListPosts returns all posts, newest first.
func (s *Store) ListPosts(ctx context.Context) ([]Post, error) {
	res, err := s.q.Query(ctx, `SELECT * FROM blog_posts ORDER BY rowid DESC`)
	if err != nil {
		return nil, err
	}
	posts := make([]Post, 0, len(res.Rows))
	for i := range res.Rows {
		posts = append(posts, postFromRecord(res.Record(i)))
	}
	return posts, nil
}

// SavePost inserts a post or replaces the one with the same slug.
func (s *Store) SavePost(ctx context.Context, p Post) error {
	if p.Slug == "" {
		return fmt.Errorf("save post %q: empty slug", p.Title)
	}
	_, err := s.q.Query(ctx,
		`INSERT OR REPLACE INTO blog_posts (title, content, slug) VALUES (?, ?, ?)`,
		p.Title, p.Content, p.Slug)
	if err != nil {
		return fmt.Errorf("save post %q: %w", p.Slug, err)
	}
	return nil
}

// EnsureSchema creates blog_posts if needed and adds the columns older
// tables were created without.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.q.Query(ctx, `
CREATE TABLE IF NOT EXISTS blog_posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    slug TEXT UNIQUE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`); err != nil {
		return fmt.Errorf("create blog_posts: %w", err)
	}

	res, err := s.q.Query(ctx, `SELECT name FROM pragma_table_info('blog_posts')`)
	if err != nil {
		return fmt.Errorf("inspect blog_posts: %w", err)
	}
	cols := make(map[string]bool, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) > 0 {
			cols[asString(row[0])] = true
		}
	}

	if !cols["slug"] {
		if _, err := s.q.Query(ctx, `ALTER TABLE blog_posts ADD COLUMN slug TEXT`); err != nil {
			return fmt.Errorf("add slug column: %w", err)
		}
		if _, err := s.q.Query(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS idx_blog_posts_slug ON blog_posts (slug)`); err != nil {
			return fmt.Errorf("index slug column: %w", err)
		}
	}
	if !cols["created_at"] {
		// ALTER TABLE cannot add a column with a non-constant default
		if _, err := s.q.Query(ctx, `ALTER TABLE blog_posts ADD COLUMN created_at TIMESTAMP`); err != nil {
			return fmt.Errorf("add created_at column: %w", err)
		}
	}
	return nil
}
