package storage

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var articleColumnNames = []string{
	"id", "article_url", "title", "summary", "detailed_summary", "full_content", "key_points", "statistics",
	"image_url", "card_json", "author", "publisher", "published_date", "ipfs_hash", "on_chain", "created_at",
}

func articleRow(rows *pgxmock.Rows, url string, onChain bool, createdAt time.Time) *pgxmock.Rows {
	return rows.AddRow(
		"7f1c2b4e-0000-4000-8000-000000000001", url, "Title", "Summary", "Detailed", "Body",
		[]byte(`["one","two"]`), []byte(`[{"label":"Readers","value":"42","context":"daily"}]`),
		"https://news.example.com/hero.jpg", `{"headline":"Title"}`, "Jane Doe", "Example News", "2024-05-01T00:00:00Z",
		"", onChain, createdAt,
	)
}

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{db: mock}, mock
}

func sqlPattern(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(sqlPattern("CREATE TABLE IF NOT EXISTS articles")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Create(t *testing.T) {
	t.Run("inserts with jsonb arrays", func(t *testing.T) {
		s, mock := newMockStore(t)
		a := newArticle("https://news.example.com/a")

		args := make([]interface{}, 16)
		for i := range args {
			args[i] = pgxmock.AnyArg()
		}
		args[1] = "https://news.example.com/a"
		args[6] = `["one","two"]`
		mock.ExpectExec(sqlPattern("INSERT INTO articles")).
			WithArgs(args...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, s.Create(context.Background(), a))
		assert.NotEmpty(t, a.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violation to ErrDuplicate", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(sqlPattern("INSERT INTO articles")).
			WillReturnError(&pgconn.PgError{Code: uniqueViolation})

		err := s.Create(context.Background(), newArticle("https://news.example.com/a"))

		assert.ErrorIs(t, err, ErrDuplicate)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_FindByURL(t *testing.T) {
	t.Run("decodes the row", func(t *testing.T) {
		s, mock := newMockStore(t)
		created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		mock.ExpectQuery(sqlPattern("FROM articles WHERE article_url = $1")).
			WithArgs("https://news.example.com/a").
			WillReturnRows(articleRow(pgxmock.NewRows(articleColumnNames), "https://news.example.com/a", false, created))

		a, err := s.FindByURL(context.Background(), "https://news.example.com/a")

		require.NoError(t, err)
		assert.Equal(t, "Title", a.Title)
		assert.Equal(t, []string{"one", "two"}, a.KeyPoints)
		require.Len(t, a.Statistics, 1)
		assert.Equal(t, "42", a.Statistics[0].Value)
		assert.Equal(t, "2024-05-01T00:00:00Z", a.Date)
		assert.Equal(t, created, a.CreatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is ErrNotFound", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(sqlPattern("FROM articles WHERE article_url = $1")).
			WithArgs("https://news.example.com/missing").
			WillReturnRows(pgxmock.NewRows(articleColumnNames))

		_, err := s.FindByURL(context.Background(), "https://news.example.com/missing")

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresStore_List(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	rows := pgxmock.NewRows(articleColumnNames)
	articleRow(rows, "https://news.example.com/b", true, now)
	articleRow(rows, "https://news.example.com/a", true, now.Add(-time.Hour))
	mock.ExpectQuery(sqlPattern("ORDER BY created_at DESC")).
		WithArgs(true).
		WillReturnRows(rows)

	articles, err := s.List(context.Background(), true)

	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "https://news.example.com/b", articles[0].ArticleURL)
	assert.True(t, articles[1].OnChain)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkOnChain(t *testing.T) {
	t.Run("returns the updated article", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(sqlPattern("UPDATE articles SET on_chain = TRUE, ipfs_hash = $2")).
			WithArgs("https://news.example.com/a", "QmHash").
			WillReturnRows(articleRow(pgxmock.NewRows(articleColumnNames), "https://news.example.com/a", true, time.Now()))

		a, err := s.MarkOnChain(context.Background(), "https://news.example.com/a", "QmHash")

		require.NoError(t, err)
		assert.True(t, a.OnChain)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown URL is ErrNotFound", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(sqlPattern("UPDATE articles SET on_chain = TRUE")).
			WithArgs("https://news.example.com/missing", "QmHash").
			WillReturnRows(pgxmock.NewRows(articleColumnNames))

		_, err := s.MarkOnChain(context.Background(), "https://news.example.com/missing", "QmHash")

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresStore_Ping(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectPing()

	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
