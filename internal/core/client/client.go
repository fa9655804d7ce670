// Package client deals with the client records business logic.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/billfold/billfold/internal/web"
)

// Set of errors for client API.
var (
	ErrNotFound        = errors.New("client not found")
	ErrInvalidArgument = errors.New("client invalid argument")
)

// Store is used to persist client records. Create assigns an identifier that
// is distinct from every identifier ever assigned before, including deleted
// ones. Delete marks the client inactive instead of removing the record.
type Store interface {
	Create(ctx context.Context, c Client) (Client, error)
	Query(ctx context.Context) ([]Client, error)
	QueryByID(ctx context.Context, clientID int) (Client, error)
	Update(ctx context.Context, c Client) error
	Delete(ctx context.Context, clientID int) error
}

// Core deals with client business logic.
type Core struct {
	store Store
}

func NewCore(store Store) *Core {
	return &Core{store: store}
}

// Create validates and adds a new client.
func (c *Core) Create(ctx context.Context, nc NewClient) (Client, error) {
	if nc.Name == "" {
		return Client{}, fmt.Errorf("client name is required: %w", ErrInvalidArgument)
	}
	if nc.Email == "" {
		return Client{}, fmt.Errorf("client email is required: %w", ErrInvalidArgument)
	}

	now := web.GetTime(ctx)
	cl := Client{
		Name:        nc.Name,
		Email:       nc.Email,
		Address:     nc.Address,
		Phone:       nc.Phone,
		Company:     nc.Company,
		Active:      true,
		DateCreated: now,
		DateUpdated: now,
	}

	return c.store.Create(ctx, cl)
}

// Query returns clients. Inactive tombstones are filtered out unless
// includeInactive is set.
func (c *Core) Query(ctx context.Context, includeInactive bool) ([]Client, error) {
	clients, err := c.store.Query(ctx)
	if err != nil {
		return nil, err
	}
	if includeInactive {
		return clients, nil
	}

	active := clients[:0]
	for _, cl := range clients {
		if cl.Active {
			active = append(active, cl)
		}
	}
	return active, nil
}

// QueryByID returns a single client, active or not. Callers decide how to
// treat a tombstone.
func (c *Core) QueryByID(ctx context.Context, clientID int) (Client, error) {
	return c.store.QueryByID(ctx, clientID)
}

// Search returns the clients whose name, email or company contains the query
// string, case insensitively.
func (c *Core) Search(ctx context.Context, query string, includeInactive bool) ([]Client, error) {
	clients, err := c.Query(ctx, includeInactive)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	matches := clients[:0]
	for _, cl := range clients {
		if strings.Contains(strings.ToLower(cl.Name), query) ||
			strings.Contains(strings.ToLower(cl.Email), query) ||
			strings.Contains(strings.ToLower(cl.Company), query) {
			matches = append(matches, cl)
		}
	}
	return matches, nil
}

// Update applies the non-nil fields of uc to the stored client.
func (c *Core) Update(ctx context.Context, clientID int, uc UpdateClient) (Client, error) {
	cl, err := c.store.QueryByID(ctx, clientID)
	if err != nil {
		return Client{}, err
	}

	if uc.Name != nil {
		if *uc.Name == "" {
			return Client{}, fmt.Errorf("client name is required: %w", ErrInvalidArgument)
		}
		cl.Name = *uc.Name
	}
	if uc.Email != nil {
		if *uc.Email == "" {
			return Client{}, fmt.Errorf("client email is required: %w", ErrInvalidArgument)
		}
		cl.Email = *uc.Email
	}
	if uc.Address != nil {
		cl.Address = *uc.Address
	}
	if uc.Phone != nil {
		cl.Phone = *uc.Phone
	}
	if uc.Company != nil {
		cl.Company = *uc.Company
	}
	cl.DateUpdated = web.GetTime(ctx)

	if err := c.store.Update(ctx, cl); err != nil {
		return Client{}, err
	}

	return cl, nil
}

// Delete marks the client inactive. The identifier is never reassigned, so
// invoices that reference it keep resolving to the tombstone.
func (c *Core) Delete(ctx context.Context, clientID int) error {
	return c.store.Delete(ctx, clientID)
}
