package repository

import (
	"context"
	"strings"
	"time"

	pgx "github.com/jackc/pgx/v4"

	"github.com/fayad123/bcards-server/internal/account/domain"
	"github.com/fayad123/bcards-server/internal/common/db"
)

const accountColumns = `id::text, first_name, middle_name, last_name, is_business, is_admin,
	phone, email, password_hash,
	address_state, address_country, address_city, address_street, address_house_number, address_zip,
	image_url, image_alt, login_stamps, created_at, updated_at`

type PgRepository struct {
	pool   db.Querier
	runner *db.Runner
}

func NewPgRepository(pool db.Querier, runner *db.Runner) *PgRepository {
	return &PgRepository{pool: pool, runner: runner}
}

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Name.First, &a.Name.Middle, &a.Name.Last, &a.IsBusiness, &a.IsAdmin,
		&a.Phone, &a.Email, &a.PasswordHash,
		&a.Address.State, &a.Address.Country, &a.Address.City, &a.Address.Street, &a.Address.HouseNumber, &a.Address.Zip,
		&a.Image.URL, &a.Image.Alt, &a.LoginStamps, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func emailLockKey(email string) string {
	return "accounts:" + strings.ToLower(email)
}

func (r *PgRepository) Create(ctx context.Context, a domain.Account) error {
	start := time.Now()
	err := r.runner.Write(ctx, func(ctx context.Context) error {
		return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, emailLockKey(a.Email)); err != nil {
				return err
			}

			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM accounts WHERE lower(email) = lower($1))`,
				a.Email,
			).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return domain.ErrEmailTaken
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO accounts (
					id, first_name, middle_name, last_name, is_business, is_admin,
					phone, email, password_hash,
					address_state, address_country, address_city, address_street, address_house_number, address_zip,
					image_url, image_alt, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)`,
				a.ID, a.Name.First, a.Name.Middle, a.Name.Last, a.IsBusiness, a.IsAdmin,
				a.Phone, a.Email, a.PasswordHash,
				a.Address.State, a.Address.Country, a.Address.City, a.Address.Street, a.Address.HouseNumber, a.Address.Zip,
				a.Image.URL, a.Image.Alt, a.CreatedAt,
			)
			if db.IsUniqueViolation(err) {
				return domain.ErrEmailTaken
			}
			return err
		})
	})
	return db.HandleExecError(err, "create account", start)
}

func (r *PgRepository) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	start := time.Now()
	var a domain.Account
	err := r.runner.Read(ctx, func(ctx context.Context) error {
		var err error
		a, err = scanAccount(r.pool.QueryRow(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1) ORDER BY created_at LIMIT 1`,
			email,
		))
		return err
	})
	if err := db.HandleQueryError(err, domain.ErrAccountNotFound, "find account by email", start); err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id string) (domain.Account, error) {
	start := time.Now()
	var a domain.Account
	err := r.runner.Read(ctx, func(ctx context.Context) error {
		var err error
		a, err = scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
		return err
	})
	if err := db.HandleQueryError(err, domain.ErrAccountNotFound, "find account by id", start); err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

func (r *PgRepository) List(ctx context.Context) ([]domain.Account, error) {
	start := time.Now()
	var accounts []domain.Account
	err := r.runner.Read(ctx, func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		accounts = accounts[:0]
		for rows.Next() {
			a, err := scanAccount(rows)
			if err != nil {
				return err
			}
			accounts = append(accounts, a)
		}
		return rows.Err()
	})
	if err := db.HandleQueryError(err, nil, "list accounts", start); err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}

// Update fails with domain.ErrEmailTaken when the new email belongs to
// another account.
func (r *PgRepository) Update(ctx context.Context, a domain.Account) (domain.Account, error) {
	updated, err := r.returning(ctx, "update account", `
		UPDATE accounts SET
			first_name = $2, middle_name = $3, last_name = $4,
			phone = $5, email = $6, password_hash = $7,
			address_state = $8, address_country = $9, address_city = $10, address_street = $11,
			address_house_number = $12, address_zip = $13,
			image_url = $14, image_alt = $15,
			updated_at = now()
		WHERE id = $1
		RETURNING `+accountColumns,
		a.ID, a.Name.First, a.Name.Middle, a.Name.Last,
		a.Phone, a.Email, a.PasswordHash,
		a.Address.State, a.Address.Country, a.Address.City, a.Address.Street,
		a.Address.HouseNumber, a.Address.Zip,
		a.Image.URL, a.Image.Alt,
	)
	if db.IsUniqueViolation(err) {
		return domain.Account{}, domain.ErrEmailTaken
	}
	return updated, err
}

func (r *PgRepository) SetBusiness(ctx context.Context, id string, value bool) (domain.Account, error) {
	return r.returning(ctx, "set account business",
		`UPDATE accounts SET is_business = $2, updated_at = now() WHERE id = $1 RETURNING `+accountColumns,
		id, value,
	)
}

func (r *PgRepository) FlipBusiness(ctx context.Context, id string) (domain.Account, error) {
	return r.returning(ctx, "flip account business",
		`UPDATE accounts SET is_business = NOT is_business, updated_at = now() WHERE id = $1 RETURNING `+accountColumns,
		id,
	)
}

func (r *PgRepository) Delete(ctx context.Context, id string) (domain.Account, error) {
	return r.returning(ctx, "delete account", `DELETE FROM accounts WHERE id = $1 RETURNING `+accountColumns, id)
}

// returning runs a single-row write whose RETURNING clause yields the account.
func (r *PgRepository) returning(ctx context.Context, operation, query string, args ...any) (domain.Account, error) {
	start := time.Now()
	var a domain.Account
	err := r.runner.Write(ctx, func(ctx context.Context) error {
		var err error
		a, err = scanAccount(r.pool.QueryRow(ctx, query, args...))
		return err
	})
	if err := db.HandleQueryError(err, domain.ErrAccountNotFound, operation, start); err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

func (r *PgRepository) AppendLoginStamp(ctx context.Context, id string, at time.Time, max int) error {
	start := time.Now()
	err := r.runner.Write(ctx, func(ctx context.Context) error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE accounts
			SET login_stamps = (array_append(login_stamps, $2::timestamptz))[greatest(1, cardinality(login_stamps) + 2 - $3::int):]
			WHERE id = $1`,
			id, at, max,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrAccountNotFound
		}
		return nil
	})
	return db.HandleExecError(err, "append login stamp", start)
}

func (r *PgRepository) TrimLoginStamps(ctx context.Context, cutoff time.Time) (int64, error) {
	start := time.Now()
	var removed int64
	err := r.runner.Write(ctx, func(ctx context.Context) error {
		return r.pool.QueryRow(ctx, `
			WITH stale AS (
				SELECT id, cardinality(login_stamps) AS before
				FROM accounts
				WHERE EXISTS (SELECT 1 FROM unnest(login_stamps) AS s WHERE s < $1)
				FOR UPDATE
			), trimmed AS (
				UPDATE accounts a
				SET login_stamps = ARRAY(
					SELECT s FROM unnest(a.login_stamps) WITH ORDINALITY AS t(s, n)
					WHERE s >= $1 ORDER BY n
				)
				FROM stale
				WHERE a.id = stale.id
				RETURNING stale.before - cardinality(a.login_stamps) AS removed
			)
			SELECT COALESCE(sum(removed), 0)::bigint FROM trimmed`,
			cutoff,
		).Scan(&removed)
	})
	if err := db.HandleExecError(err, "trim login stamps", start); err != nil {
		return 0, err
	}
	return removed, nil
}
