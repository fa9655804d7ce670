// Package clientjson persists the client collection to a JSON file. The file
// carries a high-water id mark so identifiers are never reused, even after a
// client is deleted.
package clientjson

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/billfold/billfold/internal/core/client"
	"github.com/billfold/billfold/internal/data/jsonfile"
)

// ErrCorrupt reports a persisted collection that fails schema validation at
// load time.
var ErrCorrupt = errors.New("client store corrupted")

// Store manages the clients file. A mutex serializes read-modify-write
// cycles; the process owns the file exclusively.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Create(ctx context.Context, c client.Client) (client.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return client.Client{}, err
	}

	doc.LastID++
	c.ID = doc.LastID
	doc.Clients = append(doc.Clients, toFileClient(c))

	if err := jsonfile.Write(s.path, doc); err != nil {
		return client.Client{}, err
	}

	return c, nil
}

func (s *Store) Query(ctx context.Context) ([]client.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	clients := make([]client.Client, len(doc.Clients))
	for i, fc := range doc.Clients {
		clients[i] = toClient(fc)
	}
	return clients, nil
}

func (s *Store) QueryByID(ctx context.Context, clientID int) (client.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return client.Client{}, err
	}

	for _, fc := range doc.Clients {
		if fc.ID == clientID {
			return toClient(fc), nil
		}
	}
	return client.Client{}, client.ErrNotFound
}

func (s *Store) Update(ctx context.Context, c client.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	for i, fc := range doc.Clients {
		if fc.ID == c.ID {
			doc.Clients[i] = toFileClient(c)
			return jsonfile.Write(s.path, doc)
		}
	}
	return client.ErrNotFound
}

func (s *Store) Delete(ctx context.Context, clientID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	for i, fc := range doc.Clients {
		if fc.ID == clientID {
			doc.Clients[i].Active = false
			return jsonfile.Write(s.path, doc)
		}
	}
	return client.ErrNotFound
}

// load reads the collection, treating a missing file as an empty one. A
// document that decodes but violates the schema fails fast instead of
// propagating undefined values.
func (s *Store) load() (document, error) {
	var doc document
	if err := jsonfile.Read(s.path, &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return document{}, nil
		}
		return document{}, fmt.Errorf("%w: %s", ErrCorrupt, err)
	}

	if err := doc.validate(); err != nil {
		return document{}, fmt.Errorf("%w: %s", ErrCorrupt, err)
	}

	return doc, nil
}

// ----------------------------------------------------------------------

type document struct {
	LastID  int          `json:"last_id"`
	Clients []fileClient `json:"clients"`
}

func (d document) validate() error {
	seen := make(map[int]bool, len(d.Clients))
	for _, c := range d.Clients {
		switch {
		case c.ID < 1:
			return fmt.Errorf("client id %d is below 1", c.ID)
		case c.ID > d.LastID:
			return fmt.Errorf("client id %d is above last_id %d", c.ID, d.LastID)
		case seen[c.ID]:
			return fmt.Errorf("duplicated client id %d", c.ID)
		case c.Name == "":
			return fmt.Errorf("client %d has no name", c.ID)
		case c.Email == "":
			return fmt.Errorf("client %d has no email", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

type fileClient struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone,omitempty"`
	Company     string    `json:"company,omitempty"`
	Active      bool      `json:"is_active"`
	DateCreated time.Time `json:"created_date"`
	DateUpdated time.Time `json:"last_modified"`
}

func toFileClient(c client.Client) fileClient {
	return fileClient{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Address:     c.Address,
		Phone:       c.Phone,
		Company:     c.Company,
		Active:      c.Active,
		DateCreated: c.DateCreated,
		DateUpdated: c.DateUpdated,
	}
}

func toClient(fc fileClient) client.Client {
	return client.Client{
		ID:          fc.ID,
		Name:        fc.Name,
		Email:       fc.Email,
		Address:     fc.Address,
		Phone:       fc.Phone,
		Company:     fc.Company,
		Active:      fc.Active,
		DateCreated: fc.DateCreated,
		DateUpdated: fc.DateUpdated,
	}
}
