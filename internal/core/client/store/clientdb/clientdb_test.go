package clientdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/billfold/billfold/internal/core/client"
	"github.com/billfold/billfold/internal/data/dbtest"
)

func genClient(name, email string) client.Client {
	now := time.Now().UTC()
	return client.Client{
		Name:        name,
		Email:       email,
		Address:     "1 Main St",
		Active:      true,
		DateCreated: now,
		DateUpdated: now,
	}
}

func TestCreateAndQueryByID(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations())
	t.Cleanup(teardown)

	store := NewStore(log, database)

	c, err := store.Create(ctx, genClient("Jane Doe", "jane@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == 0 {
		t.Fatal("created client has no id")
	}

	got, err := store.QueryByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("query by id: %v", err)
	}
	if got.Name != "Jane Doe" {
		t.Errorf("name = %q, want %q", got.Name, "Jane Doe")
	}

	if _, err := store.QueryByID(ctx, 9999); !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteKeepsTombstoneAndID(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations())
	t.Cleanup(teardown)

	store := NewStore(log, database)

	c1, err := store.Create(ctx, genClient("Jane Doe", "jane@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, c1.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := store.QueryByID(ctx, c1.ID)
	if err != nil {
		t.Fatalf("query deleted client: %v", err)
	}
	if got.Active {
		t.Error("deleted client should be inactive")
	}

	// The sequence never reissues an id, deleted or not.
	c2, err := store.Create(ctx, genClient("John Roe", "john@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c2.ID == c1.ID {
		t.Fatalf("id %d was reused", c1.ID)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations())
	t.Cleanup(teardown)

	store := NewStore(log, database)

	c, err := store.Create(ctx, genClient("Jane Doe", "jane@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c.Company = "Doe Industries"
	if err := store.Update(ctx, c); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.QueryByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("query by id: %v", err)
	}
	if got.Company != "Doe Industries" {
		t.Errorf("company = %q, want %q", got.Company, "Doe Industries")
	}
}
