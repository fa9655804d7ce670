// Package pdf renders finalized invoices to PDF documents. The renderer
// performs no calculation: it lays out whatever totals the invoice already
// carries.
package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/billfold/billfold/internal/core/business"
	"github.com/billfold/billfold/internal/core/client"
	"github.com/billfold/billfold/internal/core/invoice"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const dateLayout = "January 2, 2006"

// Generator renders invoices. OutDir is where RenderFile writes documents.
type Generator struct {
	outDir string
}

func NewGenerator(outDir string) *Generator {
	return &Generator{outDir: outDir}
}

// Render lays the invoice out on an A4 page and returns the PDF bytes.
func (g *Generator) Render(cfg business.Config, cl client.Client, inv invoice.Invoice) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetMargins(15, 15, 15)
	doc.AddPage()

	// Header: title and number on the right, business identity on the left.
	doc.SetFont("Helvetica", "B", 24)
	doc.SetTextColor(44, 62, 80)
	doc.CellFormat(0, 12, "INVOICE", "", 1, "R", false, 0, "")
	doc.SetFont("Helvetica", "", 12)
	doc.SetTextColor(127, 140, 141)
	doc.CellFormat(0, 7, cfg.InvoiceNumber(inv.Number), "", 1, "R", false, 0, "")
	doc.Ln(4)

	doc.SetTextColor(44, 62, 80)
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(95, 6, "From", "", 0, "L", false, 0, "")
	doc.CellFormat(95, 6, "Bill To", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	writeBlocks(doc, tr, businessBlock(cfg), clientBlock(cl))
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(40, 6, "Issue Date:", "", 0, "L", false, 0, "")
	doc.CellFormat(0, 6, inv.IssueDate.Format(dateLayout), "", 1, "L", false, 0, "")
	doc.CellFormat(40, 6, "Due Date:", "", 0, "L", false, 0, "")
	doc.CellFormat(0, 6, inv.DueDate.Format(dateLayout), "", 1, "L", false, 0, "")
	doc.CellFormat(40, 6, "Status:", "", 0, "L", false, 0, "")
	doc.CellFormat(0, 6, strings.ToUpper(string(inv.Status)), "", 1, "L", false, 0, "")
	doc.Ln(6)

	symbol := currencySymbol(inv.Currency)

	// Items table.
	doc.SetFont("Helvetica", "B", 10)
	doc.SetFillColor(52, 152, 219)
	doc.SetTextColor(255, 255, 255)
	doc.CellFormat(80, 8, "Description", "1", 0, "L", true, 0, "")
	doc.CellFormat(25, 8, "Quantity", "1", 0, "R", true, 0, "")
	doc.CellFormat(20, 8, "Unit", "1", 0, "L", true, 0, "")
	doc.CellFormat(25, 8, "Rate", "1", 0, "R", true, 0, "")
	doc.CellFormat(30, 8, "Amount", "1", 1, "R", true, 0, "")

	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(44, 62, 80)
	for _, it := range inv.Items {
		doc.CellFormat(80, 8, tr(it.Description), "1", 0, "L", false, 0, "")
		doc.CellFormat(25, 8, it.Quantity.String(), "1", 0, "R", false, 0, "")
		doc.CellFormat(20, 8, tr(it.Unit), "1", 0, "L", false, 0, "")
		doc.CellFormat(25, 8, tr(money(symbol, it.Rate)), "1", 0, "R", false, 0, "")
		doc.CellFormat(30, 8, tr(money(symbol, it.Total().Round(2))), "1", 1, "R", false, 0, "")
	}
	doc.Ln(4)

	// Totals, right aligned under the amount column.
	writeTotal(doc, tr, "Subtotal", money(symbol, inv.Subtotal), false)
	taxLabel := fmt.Sprintf("Tax (%s%%)", inv.TaxRate.Mul(decimal.NewFromInt(100)))
	writeTotal(doc, tr, taxLabel, money(symbol, inv.Tax), false)
	writeTotal(doc, tr, "Total", money(symbol, inv.Total), true)

	if inv.Notes != "" {
		doc.Ln(8)
		doc.SetFont("Helvetica", "B", 10)
		doc.CellFormat(0, 6, "Notes", "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		doc.MultiCell(0, 5, tr(inv.Notes), "", "L", false)
	}

	doc.Ln(10)
	doc.SetFont("Helvetica", "I", 9)
	doc.SetTextColor(127, 140, 141)
	doc.CellFormat(0, 6, "Thank you for your business!", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}

	return buf.Bytes(), nil
}

// RenderFile renders the invoice and writes it under the output directory.
// It returns the path of the written file.
func (g *Generator) RenderFile(cfg business.Config, cl client.Client, inv invoice.Invoice) (string, error) {
	bs, err := g.Render(cfg, cl, inv)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	name := fmt.Sprintf("invoice_%s_%s.pdf", cfg.InvoiceNumber(inv.Number), inv.IssueDate.Format("20060102"))
	path := filepath.Join(g.outDir, name)
	if err := os.WriteFile(path, bs, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	return path, nil
}

func businessBlock(cfg business.Config) []string {
	lines := []string{cfg.Name}
	lines = append(lines, strings.Split(cfg.Address, "\n")...)
	if cfg.Email != "" {
		lines = append(lines, cfg.Email)
	}
	if cfg.Phone != "" {
		lines = append(lines, cfg.Phone)
	}
	return lines
}

func clientBlock(cl client.Client) []string {
	lines := []string{cl.Name}
	if cl.Company != "" {
		lines = append(lines, cl.Company)
	}
	lines = append(lines, strings.Split(cl.Address, "\n")...)
	lines = append(lines, cl.Email)
	if cl.Phone != "" {
		lines = append(lines, cl.Phone)
	}
	if !cl.Active {
		lines = append(lines, "(client record deleted)")
	}
	return lines
}

// writeBlocks renders the from/bill-to blocks side by side.
func writeBlocks(doc *gofpdf.Fpdf, tr func(string) string, left, right []string) {
	rows := len(left)
	if len(right) > rows {
		rows = len(right)
	}
	for i := 0; i < rows; i++ {
		var l, r string
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		doc.CellFormat(95, 5, tr(l), "", 0, "L", false, 0, "")
		doc.CellFormat(95, 5, tr(r), "", 1, "L", false, 0, "")
	}
}

func writeTotal(doc *gofpdf.Fpdf, tr func(string) string, label, value string, grand bool) {
	style := ""
	if grand {
		style = "B"
	}
	doc.SetFont("Helvetica", style, 10)
	doc.CellFormat(125, 7, "", "", 0, "L", false, 0, "")
	doc.CellFormat(25, 7, label, "", 0, "R", false, 0, "")
	doc.CellFormat(30, 7, tr(value), "", 1, "R", false, 0, "")
}

func money(symbol string, v decimal.Decimal) string {
	return symbol + v.StringFixed(2)
}

func currencySymbol(currency string) string {
	symbols := map[string]string{
		"USD": "$",
		"EUR": "€",
		"GBP": "£",
		"CAD": "C$",
		"AUD": "A$",
		"JPY": "¥",
	}
	if sym, ok := symbols[strings.ToUpper(currency)]; ok {
		return sym
	}
	return strings.ToUpper(currency) + " "
}
