package clientdb

import (
	"time"

	"github.com/billfold/billfold/internal/core/client"
)

type dbClient struct {
	ID          int       `db:"id"`
	Name        string    `db:"name"`
	Email       string    `db:"email"`
	Address     string    `db:"address"`
	Phone       string    `db:"phone"`
	Company     string    `db:"company"`
	Active      bool      `db:"active"`
	DateCreated time.Time `db:"date_created"`
	DateUpdated time.Time `db:"date_updated"`
}

func toDBClient(c client.Client) dbClient {
	return dbClient(c)
}

func toClient(c dbClient) client.Client {
	return client.Client(c)
}

func toClients(dbcs []dbClient) []client.Client {
	slice := make([]client.Client, len(dbcs))
	for i, c := range dbcs {
		slice[i] = toClient(c)
	}
	return slice
}
