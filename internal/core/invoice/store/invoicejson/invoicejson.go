// Package invoicejson persists invoices to a JSON file.
package invoicejson

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/billfold/billfold/internal/core/invoice"
	"github.com/billfold/billfold/internal/data/jsonfile"
)

// ErrCorrupt reports a persisted collection that fails schema validation at
// load time.
var ErrCorrupt = errors.New("invoice store corrupted")

// Store manages the invoices file. A mutex serializes read-modify-write
// cycles; the process owns the file exclusively.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Create(ctx context.Context, inv invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	for _, fi := range doc.Invoices {
		if fi.Number == inv.Number {
			return fmt.Errorf("invoice number %d already persisted: %w", inv.Number, ErrCorrupt)
		}
	}

	doc.Invoices = append(doc.Invoices, toFileInvoice(inv))
	return jsonfile.Write(s.path, doc)
}

func (s *Store) Query(ctx context.Context) ([]invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	invoices := make([]invoice.Invoice, len(doc.Invoices))
	for i, fi := range doc.Invoices {
		invoices[i] = toInvoice(fi)
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].Number > invoices[j].Number })

	return invoices, nil
}

func (s *Store) QueryByNumber(ctx context.Context, number int) (invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return invoice.Invoice{}, err
	}

	for _, fi := range doc.Invoices {
		if fi.Number == number {
			return toInvoice(fi), nil
		}
	}
	return invoice.Invoice{}, invoice.ErrNotFound
}

func (s *Store) UpdateStatus(ctx context.Context, number int, status invoice.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	for i, fi := range doc.Invoices {
		if fi.Number == number {
			doc.Invoices[i].Status = string(status)
			return jsonfile.Write(s.path, doc)
		}
	}
	return invoice.ErrNotFound
}

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

type document struct {
	Invoices []fileInvoice `json:"invoices"`
}

func (d document) validate() error {
	seen := make(map[int]bool, len(d.Invoices))
	for _, inv := range d.Invoices {
		switch {
		case inv.Number < 1:
			return fmt.Errorf("invoice number %d is below 1", inv.Number)
		case seen[inv.Number]:
			return fmt.Errorf("duplicated invoice number %d", inv.Number)
		case len(inv.Items) == 0:
			return fmt.Errorf("invoice %d has no items", inv.Number)
		}
		if _, err := invoice.ParseStatus(inv.Status); err != nil {
			return fmt.Errorf("invoice %d: %s", inv.Number, err)
		}
		seen[inv.Number] = true
	}
	return nil
}
