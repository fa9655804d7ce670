package business_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/billfold/billfold/internal/core/business"
	"github.com/billfold/billfold/internal/core/business/store/businessjson"
	"github.com/shopspring/decimal"
)

func newTestCore(t *testing.T) *business.Core {
	t.Helper()
	return business.NewCore(businessjson.NewStore(filepath.Join(t.TempDir(), "config.json")))
}

func TestSetupDefaults(t *testing.T) {
	ctx := context.Background()
	core := newTestCore(t)

	cfg, err := core.Setup(ctx, business.NewConfig{Name: "Acme Consulting"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if cfg.InvoicePrefix != "INV" {
		t.Errorf("prefix = %q, want INV", cfg.InvoicePrefix)
	}
	if cfg.Currency != "USD" {
		t.Errorf("currency = %q, want USD", cfg.Currency)
	}
	if cfg.InvoiceCounter != 1 {
		t.Errorf("counter = %d, want 1", cfg.InvoiceCounter)
	}

	if _, err := core.Setup(ctx, business.NewConfig{Name: "Acme"}); !errors.Is(err, business.ErrAlreadyConfigured) {
		t.Errorf("second setup = %v, want ErrAlreadyConfigured", err)
	}
}

func TestSetupInvalid(t *testing.T) {
	ctx := context.Background()
	core := newTestCore(t)

	if _, err := core.Setup(ctx, business.NewConfig{}); !errors.Is(err, business.ErrInvalidArgument) {
		t.Errorf("missing name = %v, want ErrInvalidArgument", err)
	}

	neg := business.NewConfig{Name: "Acme", DefaultTaxRate: decimal.RequireFromString("-0.1")}
	if _, err := core.Setup(ctx, neg); !errors.Is(err, business.ErrInvalidArgument) {
		t.Errorf("negative tax rate = %v, want ErrInvalidArgument", err)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	core := newTestCore(t)

	if _, err := core.Setup(ctx, business.NewConfig{Name: "Acme Consulting"}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	name := "Acme Consulting LLC"
	taxRate := decimal.RequireFromString("0.1")
	cfg, err := core.Update(ctx, business.UpdateConfig{Name: &name, DefaultTaxRate: &taxRate})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if cfg.Name != name {
		t.Errorf("name = %q, want %q", cfg.Name, name)
	}
	if !cfg.DefaultTaxRate.Equal(taxRate) {
		t.Errorf("tax rate = %s, want %s", cfg.DefaultTaxRate, taxRate)
	}
	if cfg.InvoicePrefix != "INV" {
		t.Errorf("prefix = %q, want INV: unset fields must stay", cfg.InvoicePrefix)
	}

	empty := ""
	if _, err := core.Update(ctx, business.UpdateConfig{Name: &empty}); !errors.Is(err, business.ErrInvalidArgument) {
		t.Errorf("empty name = %v, want ErrInvalidArgument", err)
	}
}

// A tax rate above 1 is a fraction like any other, not a percentage to
// normalize.
func TestUpdateTaxRateAboveOne(t *testing.T) {
	ctx := context.Background()
	core := newTestCore(t)

	if _, err := core.Setup(ctx, business.NewConfig{Name: "Acme Consulting"}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	taxRate := decimal.NewFromInt(8)
	cfg, err := core.Update(ctx, business.UpdateConfig{DefaultTaxRate: &taxRate})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !cfg.DefaultTaxRate.Equal(taxRate) {
		t.Errorf("tax rate = %s, want 8 stored verbatim", cfg.DefaultTaxRate)
	}
}

func TestInvoiceNumberFormat(t *testing.T) {
	cfg := business.Config{InvoicePrefix: "INV"}

	tests := []struct {
		n    int
		want string
	}{
		{1, "INV-0001"},
		{42, "INV-0042"},
		{9999, "INV-9999"},
		{12345, "INV-12345"},
	}

	for _, tt := range tests {
		if got := cfg.InvoiceNumber(tt.n); got != tt.want {
			t.Errorf("InvoiceNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
