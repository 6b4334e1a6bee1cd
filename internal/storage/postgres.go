package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/curation-service/internal/domain"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id               UUID PRIMARY KEY,
	article_url      TEXT NOT NULL UNIQUE,
	title            TEXT NOT NULL,
	summary          TEXT NOT NULL,
	detailed_summary TEXT NOT NULL DEFAULT '',
	full_content     TEXT NOT NULL DEFAULT '',
	key_points       JSONB NOT NULL DEFAULT '[]',
	statistics       JSONB NOT NULL DEFAULT '[]',
	image_url        TEXT NOT NULL DEFAULT '',
	card_json        TEXT NOT NULL DEFAULT '',
	author           TEXT NOT NULL DEFAULT '',
	publisher        TEXT NOT NULL DEFAULT '',
	published_date   TEXT NOT NULL DEFAULT '',
	ipfs_hash        TEXT NOT NULL DEFAULT '',
	on_chain         BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS articles_created_at_idx ON articles (created_at DESC);`

const articleColumns = `id, article_url, title, summary, detailed_summary, full_content, key_points, statistics,
	image_url, card_json, author, publisher, published_date, ipfs_hash, on_chain, created_at`

// pgxPool is the subset of *pgxpool.Pool the store uses.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore keeps articles in PostgreSQL.
type PostgresStore struct {
	db pgxPool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// EnsureSchema creates the articles table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

func (s *PostgresStore) Create(ctx context.Context, a *domain.Article) error {
	prepare(a)
	keyPoints, err := json.Marshal(a.KeyPoints)
	if err != nil {
		return err
	}
	stats, err := json.Marshal(a.Statistics)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO articles (`+articleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9, $10, $11, $12, $13, $14, $15, $16)`,
		a.ID, a.ArticleURL, a.Title, a.Summary, a.DetailedSummary, a.FullContent,
		string(keyPoints), string(stats),
		a.ImageURL, a.CardJSON, a.Author, a.Publisher, a.Date, a.IPFSHash, a.OnChain, a.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) FindByURL(ctx context.Context, articleURL string) (*domain.Article, error) {
	row := s.db.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE article_url = $1`, articleURL)
	return scanArticle(row)
}

func (s *PostgresStore) List(ctx context.Context, onChainOnly bool) ([]domain.Article, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE ($1 = FALSE OR on_chain) ORDER BY created_at DESC`,
		onChainOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := []domain.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

func (s *PostgresStore) MarkOnChain(ctx context.Context, articleURL, ipfsHash string) (*domain.Article, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE articles SET on_chain = TRUE, ipfs_hash = $2 WHERE article_url = $1 RETURNING `+articleColumns,
		articleURL, ipfsHash)
	return scanArticle(row)
}

func scanArticle(row pgx.Row) (*domain.Article, error) {
	var (
		a                domain.Article
		keyPoints, stats []byte
	)
	err := row.Scan(
		&a.ID, &a.ArticleURL, &a.Title, &a.Summary, &a.DetailedSummary, &a.FullContent,
		&keyPoints, &stats,
		&a.ImageURL, &a.CardJSON, &a.Author, &a.Publisher, &a.Date, &a.IPFSHash, &a.OnChain, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(keyPoints, &a.KeyPoints); err != nil {
		return nil, fmt.Errorf("decode key points: %w", err)
	}
	if err := json.Unmarshal(stats, &a.Statistics); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	return &a, nil
}
