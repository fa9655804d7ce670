package handlers

import (
	"fmt"
	"time"

	"github.com/billfold/billfold/internal/core/business"
	"github.com/billfold/billfold/internal/core/client"
	"github.com/billfold/billfold/internal/core/invoice"
	"github.com/billfold/billfold/internal/core/user"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Auth

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResp struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type tokenResp struct {
	Token string   `json:"token"`
	User  userResp `json:"user"`
}

func toUserResp(u user.User) userResp {
	return userResp{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// Clients

type clientReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
}

type clientUpdateReq struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
}

type clientResp struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Company     string    `json:"company"`
	Active      bool      `json:"active"`
	DateCreated time.Time `json:"date_created"`
	DateUpdated time.Time `json:"date_updated"`
}

func toClientResp(cl client.Client) clientResp {
	return clientResp(cl)
}

func toClientResps(clients []client.Client) []clientResp {
	resps := make([]clientResp, len(clients))
	for i, cl := range clients {
		resps[i] = toClientResp(cl)
	}
	return resps
}

// Business config

type configReq struct {
	Name           string          `json:"name"`
	Address        string          `json:"address"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	InvoicePrefix  string          `json:"invoice_prefix"`
	Currency       string          `json:"currency"`
	DefaultTaxRate decimal.Decimal `json:"default_tax_rate"`
}

type configUpdateReq struct {
	Name           *string          `json:"name"`
	Address        *string          `json:"address"`
	Email          *string          `json:"email"`
	Phone          *string          `json:"phone"`
	InvoicePrefix  *string          `json:"invoice_prefix"`
	Currency       *string          `json:"currency"`
	DefaultTaxRate *decimal.Decimal `json:"default_tax_rate"`
}

type configResp struct {
	Name           string          `json:"name"`
	Address        string          `json:"address"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	InvoicePrefix  string          `json:"invoice_prefix"`
	Currency       string          `json:"currency"`
	DefaultTaxRate decimal.Decimal `json:"default_tax_rate"`
	InvoiceCounter int             `json:"invoice_counter"`
	DateUpdated    time.Time       `json:"date_updated"`
}

func toConfigResp(cfg business.Config) configResp {
	return configResp(cfg)
}

// Invoices

type itemReq struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Unit        string          `json:"unit"`
}

type invoiceReq struct {
	ClientID int              `json:"client_id"`
	Items    []itemReq        `json:"items"`
	DueDate  string           `json:"due_date"`
	TaxRate  *decimal.Decimal `json:"tax_rate"`
	Notes    string           `json:"notes"`
}

func toNewInvoice(req invoiceReq) (invoice.NewInvoice, error) {
	items := make([]invoice.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = invoice.Item(it)
	}

	var dueDate time.Time
	if req.DueDate != "" {
		var err error
		dueDate, err = time.Parse(dateLayout, req.DueDate)
		if err != nil {
			return invoice.NewInvoice{}, fmt.Errorf("due_date must be YYYY-MM-DD: %w", invoice.ErrInvalidArgument)
		}
	}

	return invoice.NewInvoice{
		ClientID: req.ClientID,
		Items:    items,
		DueDate:  dueDate,
		TaxRate:  req.TaxRate,
		Notes:    req.Notes,
	}, nil
}

type statusReq struct {
	Status string `json:"status"`
}

type itemResp struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Unit        string          `json:"unit"`
	Amount      decimal.Decimal `json:"amount"`
}

type invoiceResp struct {
	Number    int             `json:"number"`
	ClientID  int             `json:"client_id"`
	Items     []itemResp      `json:"items"`
	IssueDate string          `json:"issue_date"`
	DueDate   string          `json:"due_date"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Currency  string          `json:"currency"`
	Notes     string          `json:"notes,omitempty"`
	Status    string          `json:"status"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

func toInvoiceResp(inv invoice.Invoice) invoiceResp {
	items := make([]itemResp, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = itemResp{
			Description: it.Description,
			Quantity:    it.Quantity,
			Rate:        it.Rate,
			Unit:        it.Unit,
			Amount:      it.Total().Round(2),
		}
	}

	return invoiceResp{
		Number:    inv.Number,
		ClientID:  inv.ClientID,
		Items:     items,
		IssueDate: inv.IssueDate.Format(dateLayout),
		DueDate:   inv.DueDate.Format(dateLayout),
		TaxRate:   inv.TaxRate,
		Currency:  inv.Currency,
		Notes:     inv.Notes,
		Status:    string(inv.Status),
		Subtotal:  inv.Subtotal,
		Tax:       inv.Tax,
		Total:     inv.Total,
	}
}

func toInvoiceResps(invoices []invoice.Invoice) []invoiceResp {
	resps := make([]invoiceResp, len(invoices))
	for i, inv := range invoices {
		resps[i] = toInvoiceResp(inv)
	}
	return resps
}
