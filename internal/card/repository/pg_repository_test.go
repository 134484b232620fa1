package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fayad123/bcards-server/internal/card/domain"
	"github.com/fayad123/bcards-server/internal/common/db"
)

var cardColumnNames = []string{
	"id", "title", "subtitle", "description", "phone", "email", "web",
	"image_url", "image_alt",
	"address_state", "address_country", "address_city", "address_street", "address_house_number", "address_zip",
	"biz_number", "likes", "user_id", "created_at", "updated_at",
}

func newPgRepoWithMock(t *testing.T) (*PgRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	runner := db.NewRunner(db.RunnerConfig{Retry: db.RetryConfig{MaxAttempts: 1}})
	return NewPgRepository(mock, runner), mock
}

func cardRow(c domain.Card) *pgxmock.Rows {
	return pgxmock.NewRows(cardColumnNames).AddRow(
		c.ID, c.Title, c.Subtitle, c.Description, c.Phone, c.Email, c.Web,
		c.Image.URL, c.Image.Alt,
		c.Address.State, c.Address.Country, c.Address.City, c.Address.Street, c.Address.HouseNumber, c.Address.Zip,
		c.BizNumber, c.Likes, c.UserID, c.CreatedAt, c.UpdatedAt,
	)
}

const toggleQuery = `likes = CASE\s+WHEN \$2 = ANY\(likes\) THEN array_remove\(likes, \$2\)\s+ELSE array_append\(likes, \$2\)\s+END`

func TestPgRepository_ToggleLikeUsesSingleConditionalUpdate(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)
	stored := newCard("c1", "shop@example.com")
	stored.Likes = []string{"acc-2"}
	stored.UpdatedAt = stored.CreatedAt.Add(time.Microsecond)

	mock.ExpectQuery(toggleQuery).
		WithArgs("c1", "acc-2").
		WillReturnRows(cardRow(stored))

	got, err := repo.ToggleLike(context.Background(), "c1", "acc-2")

	require.NoError(t, err)
	assert.Equal(t, []string{"acc-2"}, got.Likes)
	assert.Equal(t, stored.UpdatedAt, got.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_ToggleLikeMissingCard(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)

	mock.ExpectQuery(toggleQuery).
		WithArgs("gone", "acc-2").
		WillReturnRows(pgxmock.NewRows(cardColumnNames))

	_, err := repo.ToggleLike(context.Background(), "gone", "acc-2")

	assert.ErrorIs(t, err, domain.ErrCardNotFound)
}

func TestPgRepository_MutationsBumpUpdatedAtMonotonically(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)
	c := newCard("c1", "shop@example.com")

	bump := regexp.QuoteMeta(`updated_at = greatest(clock_timestamp(), updated_at + interval '1 microsecond')`)
	mock.ExpectQuery(`UPDATE cards SET[\s\S]*title = \$2[\s\S]*` + bump).
		WillReturnRows(cardRow(c))

	_, err := repo.Update(context.Background(), c)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_CreateLocksOnLowercasedEmail(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)
	c := newCard("c1", "Shop@Example.com")

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\(\$1\)\)`).
		WithArgs("cards:shop@example.com").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM cards WHERE lower\(email\) = lower\(\$1\)\)`).
		WithArgs("Shop@Example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO cards`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_CreateExistingEmailRollsBack(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), newCard("c1", "shop@example.com"))

	assert.ErrorIs(t, err, domain.ErrCardEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_ListNormalizesNullLikes(t *testing.T) {
	repo, mock := newPgRepoWithMock(t)
	c := newCard("c1", "shop@example.com")
	rows := pgxmock.NewRows(cardColumnNames).AddRow(
		c.ID, c.Title, c.Subtitle, c.Description, c.Phone, c.Email, c.Web,
		c.Image.URL, c.Image.Alt,
		c.Address.State, c.Address.Country, c.Address.City, c.Address.Street, c.Address.HouseNumber, c.Address.Zip,
		c.BizNumber, nil, c.UserID, c.CreatedAt, c.CreatedAt,
	)
	mock.ExpectQuery(`FROM cards ORDER BY created_at, id`).WillReturnRows(rows)

	cards, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, []string{}, cards[0].Likes)
}
