package client

import "time"

// Client is a billable customer. A deleted client stays in the store as an
// inactive tombstone so invoices issued against it keep resolving.
type Client struct {
	ID          int
	Name        string
	Email       string
	Address     string
	Phone       string
	Company     string
	Active      bool
	DateCreated time.Time
	DateUpdated time.Time
}

// NewClient holds the information needed to add a client.
type NewClient struct {
	Name    string
	Email   string
	Address string
	Phone   string
	Company string
}

// UpdateClient holds optional changes to a client. Nil fields are left
// untouched.
type UpdateClient struct {
	Name    *string
	Email   *string
	Address *string
	Phone   *string
	Company *string
}
