// Package clientdb persists client records to PostgreSQL.
package clientdb

import (
	"context"
	"errors"
	"log/slog"

	"github.com/billfold/billfold/internal/core/client"
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

func (s *Store) Create(ctx context.Context, c client.Client) (client.Client, error) {
	const q = `
	INSERT INTO clients
		(name, email, address, phone, company, active, date_created, date_updated)
	VALUES
		(@name, @email, @address, @phone, @company, @active, @date_created, @date_updated)
	RETURNING
		id, name, email, address, phone, company, active, date_created, date_updated`

	dbc, err := db.NamedQueryStruct[dbClient](ctx, s.log, s.db, q, toDBClient(c))
	if err != nil {
		return client.Client{}, err
	}

	return toClient(dbc), nil
}

func (s *Store) Query(ctx context.Context) ([]client.Client, error) {
	const q = `
	SELECT
		id, name, email, address, phone, company, active, date_created, date_updated
	FROM
		clients
	ORDER BY
		name, id`

	dbcs, err := db.NamedQuerySlice[dbClient](ctx, s.log, s.db, q, struct{}{})
	if err != nil {
		return nil, err
	}

	return toClients(dbcs), nil
}

func (s *Store) QueryByID(ctx context.Context, clientID int) (client.Client, error) {
	data := struct {
		ID int `db:"id"`
	}{
		ID: clientID,
	}

	const q = `
	SELECT
		id, name, email, address, phone, company, active, date_created, date_updated
	FROM
		clients
	WHERE
		id = @id`

	dbc, err := db.NamedQueryStruct[dbClient](ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, db.ErrDBNotFound) {
			return client.Client{}, client.ErrNotFound
		}
		return client.Client{}, err
	}

	return toClient(dbc), nil
}

func (s *Store) Update(ctx context.Context, c client.Client) error {
	const q = `
	UPDATE clients SET
		name = @name,
		email = @email,
		address = @address,
		phone = @phone,
		company = @company,
		active = @active,
		date_updated = @date_updated
	WHERE
		id = @id`

	return db.NamedExec(ctx, s.log, s.db, q, toDBClient(c))
}

// Delete marks the client inactive. The row, and with it the identifier,
// stays behind as a tombstone.
func (s *Store) Delete(ctx context.Context, clientID int) error {
	c, err := s.QueryByID(ctx, clientID)
	if err != nil {
		return err
	}

	c.Active = false
	return s.Update(ctx, c)
}
