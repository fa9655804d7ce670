// Command billfold is the terminal interface for managing clients and
// issuing invoices against a local data directory.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/billfold/billfold/internal/core/business"
	"github.com/billfold/billfold/internal/core/business/store/businessjson"
	"github.com/billfold/billfold/internal/core/client"
	"github.com/billfold/billfold/internal/core/client/store/clientjson"
	"github.com/billfold/billfold/internal/core/invoice"
	"github.com/billfold/billfold/internal/core/invoice/store/invoicejson"
	"github.com/billfold/billfold/internal/pdf"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type app struct {
	business *business.Core
	clients  *client.Core
	invoices *invoice.Core
	pdf      *pdf.Generator
}

func run(args []string) error {
	var a app

	cliApp := &cli.App{
		Name:  "billfold",
		Usage: "manage clients and issue invoices from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "directory holding the business data files",
				Value: defaultDataDir(),
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "directory PDF invoices are written to",
				Value: "invoices",
			},
		},
		Before: func(c *cli.Context) error {
			dir := c.String("data-dir")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating data directory: %w", err)
			}

			a.business = business.NewCore(businessjson.NewStore(filepath.Join(dir, "config.json")))
			a.clients = client.NewCore(clientjson.NewStore(filepath.Join(dir, "clients.json")))
			a.invoices = invoice.NewCore(
				invoicejson.NewStore(filepath.Join(dir, "invoices.json")),
				a.clients,
				a.business,
			)
			a.pdf = pdf.NewGenerator(c.String("output-dir"))
			return nil
		},
		Commands: []*cli.Command{
			a.setupCommand(),
			a.configCommand(),
			a.addClientCommand(),
			a.listClientsCommand(),
			a.getClientCommand(),
			a.updateClientCommand(),
			a.removeClientCommand(),
			a.createInvoiceCommand(),
			a.listInvoicesCommand(),
			a.showInvoiceCommand(),
			a.setStatusCommand(),
			a.renderCommand(),
		},
	}

	return cliApp.Run(args)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".billfold"
	}
	return filepath.Join(home, ".billfold")
}

// Business commands

func (a *app) setupCommand() *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "initialize the business configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true, Usage: "business name"},
			&cli.StringFlag{Name: "address", Usage: "business address"},
			&cli.StringFlag{Name: "email", Usage: "business email"},
			&cli.StringFlag{Name: "phone", Usage: "business phone"},
			&cli.StringFlag{Name: "prefix", Usage: "invoice number prefix", Value: "INV"},
			&cli.StringFlag{Name: "currency", Usage: "ISO currency code", Value: "USD"},
			&cli.StringFlag{Name: "tax-rate", Usage: "default tax rate, e.g. 0.08", Value: "0"},
		},
		Action: func(c *cli.Context) error {
			taxRate, err := decimal.NewFromString(c.String("tax-rate"))
			if err != nil {
				return fmt.Errorf("invalid tax rate %q", c.String("tax-rate"))
			}

			cfg, err := a.business.Setup(context.Background(), business.NewConfig{
				Name:           c.String("name"),
				Address:        c.String("address"),
				Email:          c.String("email"),
				Phone:          c.String("phone"),
				InvoicePrefix:  c.String("prefix"),
				Currency:       c.String("currency"),
				DefaultTaxRate: taxRate,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Business %q configured. Invoices will be numbered %s and up.\n",
				cfg.Name, cfg.InvoiceNumber(cfg.InvoiceCounter))
			return nil
		},
	}
}

func (a *app) configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "show or change the business configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "business name"},
			&cli.StringFlag{Name: "address", Usage: "business address"},
			&cli.StringFlag{Name: "email", Usage: "business email"},
			&cli.StringFlag{Name: "phone", Usage: "business phone"},
			&cli.StringFlag{Name: "prefix", Usage: "invoice number prefix"},
			&cli.StringFlag{Name: "currency", Usage: "ISO currency code"},
			&cli.StringFlag{Name: "tax-rate", Usage: "default tax rate"},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()

			var uc business.UpdateConfig
			changed := false
			for _, f := range []struct {
				flag string
				dst  **string
			}{
				{"name", &uc.Name},
				{"address", &uc.Address},
				{"email", &uc.Email},
				{"phone", &uc.Phone},
				{"prefix", &uc.InvoicePrefix},
				{"currency", &uc.Currency},
			} {
				if c.IsSet(f.flag) {
					v := c.String(f.flag)
					*f.dst = &v
					changed = true
				}
			}
			if c.IsSet("tax-rate") {
				taxRate, err := decimal.NewFromString(c.String("tax-rate"))
				if err != nil {
					return fmt.Errorf("invalid tax rate %q", c.String("tax-rate"))
				}
				uc.DefaultTaxRate = &taxRate
				changed = true
			}

			var cfg business.Config
			var err error
			if changed {
				cfg, err = a.business.Update(ctx, uc)
			} else {
				cfg, err = a.business.Query(ctx)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Name:\t%s\n", cfg.Name)
			fmt.Fprintf(w, "Address:\t%s\n", strings.ReplaceAll(cfg.Address, "\n", ", "))
			fmt.Fprintf(w, "Email:\t%s\n", cfg.Email)
			fmt.Fprintf(w, "Phone:\t%s\n", cfg.Phone)
			fmt.Fprintf(w, "Prefix:\t%s\n", cfg.InvoicePrefix)
			fmt.Fprintf(w, "Currency:\t%s\n", cfg.Currency)
			fmt.Fprintf(w, "Default tax rate:\t%s\n", cfg.DefaultTaxRate)
			fmt.Fprintf(w, "Next invoice:\t%s\n", cfg.InvoiceNumber(cfg.InvoiceCounter))
			return w.Flush()
		},
	}
}

// Client commands

func (a *app) addClientCommand() *cli.Command {
	return &cli.Command{
		Name:  "add-client",
		Usage: "add a new client",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true, Usage: "client name"},
			&cli.StringFlag{Name: "email", Required: true, Usage: "client email"},
			&cli.StringFlag{Name: "address", Usage: "client address"},
			&cli.StringFlag{Name: "phone", Usage: "client phone"},
			&cli.StringFlag{Name: "company", Usage: "client company"},
		},
		Action: func(c *cli.Context) error {
			cl, err := a.clients.Create(context.Background(), client.NewClient{
				Name:    c.String("name"),
				Email:   c.String("email"),
				Address: c.String("address"),
				Phone:   c.String("phone"),
				Company: c.String("company"),
			})
			if err != nil {
				return err
			}

			fmt.Printf("Added client #%d %s <%s>\n", cl.ID, cl.Name, cl.Email)
			return nil
		},
	}
}

func (a *app) listClientsCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-clients",
		Usage: "list clients",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "include removed clients"},
			&cli.StringFlag{Name: "search", Usage: "filter by name, email or company"},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()

			var clients []client.Client
			var err error
			if q := c.String("search"); q != "" {
				clients, err = a.clients.Search(ctx, q, c.Bool("all"))
			} else {
				clients, err = a.clients.Query(ctx, c.Bool("all"))
			}
			if err != nil {
				return err
			}

			if len(clients) == 0 {
				fmt.Println("No clients found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCOMPANY\tSTATUS")
			for _, cl := range clients {
				status := "active"
				if !cl.Active {
					status = "removed"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", cl.ID, cl.Name, cl.Email, cl.Company, status)
			}
			return w.Flush()
		},
	}
}

func (a *app) getClientCommand() *cli.Command {
	return &cli.Command{
		Name:      "get-client",
		Usage:     "show a client",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := argInt(c, 0, "client id")
			if err != nil {
				return err
			}

			cl, err := a.clients.QueryByID(context.Background(), id)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "ID:\t%d\n", cl.ID)
			fmt.Fprintf(w, "Name:\t%s\n", cl.Name)
			fmt.Fprintf(w, "Email:\t%s\n", cl.Email)
			fmt.Fprintf(w, "Address:\t%s\n", strings.ReplaceAll(cl.Address, "\n", ", "))
			fmt.Fprintf(w, "Phone:\t%s\n", cl.Phone)
			fmt.Fprintf(w, "Company:\t%s\n", cl.Company)
			if !cl.Active {
				fmt.Fprintf(w, "Status:\tremoved\n")
			}
			return w.Flush()
		},
	}
}

func (a *app) updateClientCommand() *cli.Command {
	return &cli.Command{
		Name:      "update-client",
		Usage:     "change client details",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "client name"},
			&cli.StringFlag{Name: "email", Usage: "client email"},
			&cli.StringFlag{Name: "address", Usage: "client address"},
			&cli.StringFlag{Name: "phone", Usage: "client phone"},
			&cli.StringFlag{Name: "company", Usage: "client company"},
		},
		Action: func(c *cli.Context) error {
			id, err := argInt(c, 0, "client id")
			if err != nil {
				return err
			}

			var uc client.UpdateClient
			for _, f := range []struct {
				flag string
				dst  **string
			}{
				{"name", &uc.Name},
				{"email", &uc.Email},
				{"address", &uc.Address},
				{"phone", &uc.Phone},
				{"company", &uc.Company},
			} {
				if c.IsSet(f.flag) {
					v := c.String(f.flag)
					*f.dst = &v
				}
			}

			cl, err := a.clients.Update(context.Background(), id, uc)
			if err != nil {
				return err
			}

			fmt.Printf("Updated client #%d %s\n", cl.ID, cl.Name)
			return nil
		},
	}
}

func (a *app) removeClientCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove-client",
		Usage:     "remove a client, keeping its invoices resolvable",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := argInt(c, 0, "client id")
			if err != nil {
				return err
			}

			if err := a.clients.Delete(context.Background(), id); err != nil {
				return err
			}

			fmt.Printf("Removed client #%d. Its id will not be reused.\n", id)
			return nil
		},
	}
}

// Invoice commands

func (a *app) createInvoiceCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-invoice",
		Usage: "build and number a new invoice",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "client", Required: true, Usage: "client id to bill"},
			&cli.StringSliceFlag{
				Name:  "item",
				Usage: `line item as "description|quantity|rate" or "description|quantity|rate|unit", repeatable`,
			},
			&cli.IntFlag{Name: "due-days", Usage: "days until the invoice is due", Value: 30},
			&cli.StringFlag{Name: "tax-rate", Usage: "tax rate override, e.g. 0.08"},
			&cli.StringFlag{Name: "notes", Usage: "free form notes"},
			&cli.BoolFlag{Name: "pdf", Usage: "render the invoice to PDF right away"},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()

			items := make([]invoice.Item, 0, len(c.StringSlice("item")))
			for _, raw := range c.StringSlice("item") {
				it, err := parseItem(raw)
				if err != nil {
					return err
				}
				items = append(items, it)
			}

			ni := invoice.NewInvoice{
				ClientID: c.Int("client"),
				Items:    items,
				DueDate:  time.Now().UTC().AddDate(0, 0, c.Int("due-days")),
				Notes:    c.String("notes"),
			}
			if c.IsSet("tax-rate") {
				taxRate, err := decimal.NewFromString(c.String("tax-rate"))
				if err != nil {
					return fmt.Errorf("invalid tax rate %q", c.String("tax-rate"))
				}
				ni.TaxRate = &taxRate
			}

			inv, err := a.invoices.Create(ctx, ni)
			if err != nil {
				return err
			}

			cfg, err := a.business.Query(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Created invoice %s for client #%d\n", cfg.InvoiceNumber(inv.Number), inv.ClientID)
			fmt.Printf("  Subtotal: %s\n", inv.Subtotal.StringFixed(2))
			fmt.Printf("  Tax:      %s\n", inv.Tax.StringFixed(2))
			fmt.Printf("  Total:    %s %s\n", inv.Total.StringFixed(2), inv.Currency)

			if c.Bool("pdf") {
				return a.renderInvoice(ctx, inv.Number)
			}
			return nil
		},
	}
}

func (a *app) listInvoicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-invoices",
		Usage: "list invoices, newest first",
		Action: func(c *cli.Context) error {
			ctx := context.Background()

			invoices, err := a.invoices.Query(ctx)
			if err != nil {
				return err
			}
			if len(invoices) == 0 {
				fmt.Println("No invoices yet.")
				return nil
			}

			cfg, err := a.business.Query(ctx)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NUMBER\tCLIENT\tISSUED\tDUE\tTOTAL\tSTATUS")
			for _, inv := range invoices {
				status := string(inv.Status)
				if inv.IsOverdue(now) {
					status = "overdue"
				}
				fmt.Fprintf(w, "%s\t#%d\t%s\t%s\t%s %s\t%s\n",
					cfg.InvoiceNumber(inv.Number), inv.ClientID,
					inv.IssueDate.Format("2006-01-02"), inv.DueDate.Format("2006-01-02"),
					inv.Total.StringFixed(2), inv.Currency, status)
			}
			return w.Flush()
		},
	}
}

func (a *app) showInvoiceCommand() *cli.Command {
	return &cli.Command{
		Name:      "show-invoice",
		Usage:     "show an invoice with its items",
		ArgsUsage: "<number>",
		Action: func(c *cli.Context) error {
			ctx := context.Background()

			number, err := argInt(c, 0, "invoice number")
			if err != nil {
				return err
			}

			inv, err := a.invoices.QueryByNumber(ctx, number)
			if err != nil {
				return err
			}
			cfg, err := a.business.Query(ctx)
			if err != nil {
				return err
			}
			cl, err := a.clients.QueryByID(ctx, inv.ClientID)
			if err != nil {
				return err
			}

			fmt.Printf("%s  %s\n", cfg.InvoiceNumber(inv.Number), strings.ToUpper(string(inv.Status)))
			fmt.Printf("Billed to: %s <%s>\n", cl.Name, cl.Email)
			fmt.Printf("Issued %s, due %s\n\n",
				inv.IssueDate.Format("2006-01-02"), inv.DueDate.Format("2006-01-02"))

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DESCRIPTION\tQTY\tUNIT\tRATE\tAMOUNT")
			for _, it := range inv.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					it.Description, it.Quantity, it.Unit,
					it.Rate.StringFixed(2), it.Total().Round(2).StringFixed(2))
			}
			fmt.Fprintf(w, "\t\t\tSubtotal\t%s\n", inv.Subtotal.StringFixed(2))
			fmt.Fprintf(w, "\t\t\tTax\t%s\n", inv.Tax.StringFixed(2))
			fmt.Fprintf(w, "\t\t\tTotal\t%s %s\n", inv.Total.StringFixed(2), inv.Currency)
			if err := w.Flush(); err != nil {
				return err
			}

			if inv.Notes != "" {
				fmt.Printf("\nNotes: %s\n", inv.Notes)
			}
			return nil
		},
	}
}

func (a *app) setStatusCommand() *cli.Command {
	return &cli.Command{
		Name:      "set-status",
		Usage:     "move an invoice to draft, sent, paid or cancelled",
		ArgsUsage: "<number> <status>",
		Action: func(c *cli.Context) error {
			number, err := argInt(c, 0, "invoice number")
			if err != nil {
				return err
			}
			status, err := invoice.ParseStatus(c.Args().Get(1))
			if err != nil {
				return err
			}

			if _, err := a.invoices.SetStatus(context.Background(), number, status); err != nil {
				return err
			}

			fmt.Printf("Invoice %d is now %s.\n", number, status)
			return nil
		},
	}
}

func (a *app) renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "render an invoice to PDF",
		ArgsUsage: "<number>",
		Action: func(c *cli.Context) error {
			number, err := argInt(c, 0, "invoice number")
			if err != nil {
				return err
			}
			return a.renderInvoice(context.Background(), number)
		},
	}
}

func (a *app) renderInvoice(ctx context.Context, number int) error {
	inv, err := a.invoices.QueryByNumber(ctx, number)
	if err != nil {
		return err
	}
	cfg, err := a.business.Query(ctx)
	if err != nil {
		return err
	}
	cl, err := a.clients.QueryByID(ctx, inv.ClientID)
	if err != nil {
		return err
	}

	path, err := a.pdf.RenderFile(cfg, cl, inv)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

// Helpers

func argInt(c *cli.Context, pos int, what string) (int, error) {
	arg := c.Args().Get(pos)
	if arg == "" {
		return 0, fmt.Errorf("%s argument is required", what)
	}
	var n int
	if _, err := fmt.Sscanf(arg, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, arg)
	}
	return n, nil
}

// parseItem splits a "description|quantity|rate[|unit]" flag value.
func parseItem(raw string) (invoice.Item, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 3 && len(parts) != 4 {
		return invoice.Item{}, fmt.Errorf(`item %q must be "description|quantity|rate" or "description|quantity|rate|unit"`, raw)
	}

	qty, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		return invoice.Item{}, fmt.Errorf("item %q has an invalid quantity", raw)
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
	if err != nil {
		return invoice.Item{}, fmt.Errorf("item %q has an invalid rate", raw)
	}

	it := invoice.Item{
		Description: strings.TrimSpace(parts[0]),
		Quantity:    qty,
		Rate:        rate,
		Unit:        "unit",
	}
	if len(parts) == 4 {
		it.Unit = strings.TrimSpace(parts[3])
	}
	return it, nil
}
