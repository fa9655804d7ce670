// Package userdb persists user accounts to PostgreSQL.
package userdb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/billfold/billfold/internal/core/user"
	db "github.com/billfold/billfold/internal/data/dbsql/pgx"
)

type Store struct {
	log *slog.Logger
	db  db.DB
}

func NewStore(log *slog.Logger, database db.DB) *Store {
	return &Store{
		log: log,
		db:  database,
	}
}

func (s *Store) Create(ctx context.Context, u user.User) (user.User, error) {
	const q = `
	INSERT INTO users
		(name, email, password_hash, date_created)
	VALUES
		(@name, @email, @password_hash, @date_created)
	RETURNING
		id, name, email, password_hash, date_created`

	dbu, err := db.NamedQueryStruct[dbUser](ctx, s.log, s.db, q, toDBUser(u))
	if err != nil {
		if errors.Is(err, db.ErrDBDuplicatedEntry) {
			return user.User{}, user.ErrUniqueEmail
		}
		return user.User{}, err
	}

	return toUser(dbu), nil
}

func (s *Store) QueryByEmail(ctx context.Context, email string) (user.User, error) {
	data := struct {
		Email string `db:"email"`
	}{
		Email: email,
	}

	const q = `
	SELECT
		id, name, email, password_hash, date_created
	FROM
		users
	WHERE
		email = @email`

	dbu, err := db.NamedQueryStruct[dbUser](ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, db.ErrDBNotFound) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return toUser(dbu), nil
}

// ----------------------------------------------------------------------

type dbUser struct {
	ID           int       `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	DateCreated  time.Time `db:"date_created"`
}

func toDBUser(u user.User) dbUser {
	return dbUser(u)
}

func toUser(u dbUser) user.User {
	return user.User(u)
}
