package repository

import (
	"context"
	"strings"
	"time"

	pgx "github.com/jackc/pgx/v4"

	"github.com/fayad123/bcards-server/internal/card/domain"
	"github.com/fayad123/bcards-server/internal/common/db"
)

const cardColumns = `id::text, title, subtitle, description, phone, email, web,
	image_url, image_alt,
	address_state, address_country, address_city, address_street, address_house_number, address_zip,
	biz_number, likes, user_id::text, created_at, updated_at`

type PgRepository struct {
	pool   db.Querier
	runner *db.Runner
}

func NewPgRepository(pool db.Querier, runner *db.Runner) *PgRepository {
	return &PgRepository{pool: pool, runner: runner}
}

func scanCard(row pgx.Row) (domain.Card, error) {
	var c domain.Card
	err := row.Scan(
		&c.ID, &c.Title, &c.Subtitle, &c.Description, &c.Phone, &c.Email, &c.Web,
		&c.Image.URL, &c.Image.Alt,
		&c.Address.State, &c.Address.Country, &c.Address.City, &c.Address.Street, &c.Address.HouseNumber, &c.Address.Zip,
		&c.BizNumber, &c.Likes, &c.UserID, &c.CreatedAt, &c.UpdatedAt,
	)
	if c.Likes == nil {
		c.Likes = []string{}
	}
	return c, err
}

func (r *PgRepository) Create(ctx context.Context, c domain.Card) error {
	start := time.Now()
	err := r.runner.Write(ctx, func(ctx context.Context) error {
		return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "cards:"+strings.ToLower(c.Email)); err != nil {
				return err
			}

			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM cards WHERE lower(email) = lower($1))`,
				c.Email,
			).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return domain.ErrCardEmailTaken
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO cards (
					id, title, subtitle, description, phone, email, web,
					image_url, image_alt,
					address_state, address_country, address_city, address_street, address_house_number, address_zip,
					biz_number, likes, user_id, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19)`,
				c.ID, c.Title, c.Subtitle, c.Description, c.Phone, c.Email, c.Web,
				c.Image.URL, c.Image.Alt,
				c.Address.State, c.Address.Country, c.Address.City, c.Address.Street, c.Address.HouseNumber, c.Address.Zip,
				c.BizNumber, c.Likes, c.UserID, c.CreatedAt,
			)
			return err
		})
	})
	return db.HandleExecError(err, "create card", start)
}

func (r *PgRepository) FindByID(ctx context.Context, id string) (domain.Card, error) {
	start := time.Now()
	var c domain.Card
	err := r.runner.Read(ctx, func(ctx context.Context) error {
		var err error
		c, err = scanCard(r.pool.QueryRow(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id))
		return err
	})
	if err := db.HandleQueryError(err, domain.ErrCardNotFound, "find card by id", start); err != nil {
		return domain.Card{}, err
	}
	return c, nil
}

func (r *PgRepository) List(ctx context.Context) ([]domain.Card, error) {
	start := time.Now()
	var cards []domain.Card
	err := r.runner.Read(ctx, func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, `SELECT `+cardColumns+` FROM cards ORDER BY created_at, id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		cards = cards[:0]
		for rows.Next() {
			c, err := scanCard(rows)
			if err != nil {
				return err
			}
			cards = append(cards, c)
		}
		return rows.Err()
	})
	if err := db.HandleQueryError(err, nil, "list cards", start); err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	return cards, nil
}

func (r *PgRepository) Update(ctx context.Context, c domain.Card) (domain.Card, error) {
	return r.returning(ctx, "update card", `
		UPDATE cards SET
			title = $2, subtitle = $3, description = $4, phone = $5, email = $6, web = $7,
			image_url = $8, image_alt = $9,
			address_state = $10, address_country = $11, address_city = $12, address_street = $13,
			address_house_number = $14, address_zip = $15,
			biz_number = $16,
			updated_at = greatest(clock_timestamp(), updated_at + interval '1 microsecond')
		WHERE id = $1
		RETURNING `+cardColumns,
		c.ID, c.Title, c.Subtitle, c.Description, c.Phone, c.Email, c.Web,
		c.Image.URL, c.Image.Alt,
		c.Address.State, c.Address.Country, c.Address.City, c.Address.Street,
		c.Address.HouseNumber, c.Address.Zip,
		c.BizNumber,
	)
}

// ToggleLike decides membership and rewrites the array inside one UPDATE,
// so concurrent toggles from different accounts serialize on the row lock.
func (r *PgRepository) ToggleLike(ctx context.Context, id, accountID string) (domain.Card, error) {
	return r.returning(ctx, "toggle card like", `
		UPDATE cards SET
			likes = CASE
				WHEN $2 = ANY(likes) THEN array_remove(likes, $2)
				ELSE array_append(likes, $2)
			END,
			updated_at = greatest(clock_timestamp(), updated_at + interval '1 microsecond')
		WHERE id = $1
		RETURNING `+cardColumns,
		id, accountID,
	)
}

func (r *PgRepository) Delete(ctx context.Context, id string) (domain.Card, error) {
	return r.returning(ctx, "delete card", `DELETE FROM cards WHERE id = $1 RETURNING `+cardColumns, id)
}

func (r *PgRepository) returning(ctx context.Context, operation, query string, args ...any) (domain.Card, error) {
	start := time.Now()
	var c domain.Card
	err := r.runner.Write(ctx, func(ctx context.Context) error {
		var err error
		c, err = scanCard(r.pool.QueryRow(ctx, query, args...))
		return err
	})
	if err := db.HandleQueryError(err, domain.ErrCardNotFound, operation, start); err != nil {
		return domain.Card{}, err
	}
	return c, nil
}
