package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/billfold/billfold/internal/core/business"
	"github.com/billfold/billfold/internal/core/business/store/businessdb"
	"github.com/billfold/billfold/internal/core/client"
	"github.com/billfold/billfold/internal/core/client/store/clientdb"
	"github.com/billfold/billfold/internal/core/invoice"
	"github.com/billfold/billfold/internal/core/invoice/store/invoicedb"
	"github.com/billfold/billfold/internal/core/user"
	"github.com/billfold/billfold/internal/core/user/store/userdb"
	"github.com/billfold/billfold/internal/data/dbtest"
	"github.com/billfold/billfold/internal/pdf"
	"go.opentelemetry.io/otel"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations())
	t.Cleanup(teardown)

	busCore := business.NewCore(businessdb.NewStore(log, database))
	clientCore := client.NewCore(clientdb.NewStore(log, database))
	invoiceCore := invoice.NewCore(invoicedb.NewStore(log, database), clientCore, busCore)
	userCore := user.NewCore(userdb.NewStore(log, database))

	srv := NewServer(log, userCore, clientCore, invoiceCore, busCore,
		pdf.NewGenerator(t.TempDir()), testSecret)
	httpServer := httptest.NewServer(APIMux(srv, otel.GetTracerProvider().Tracer("")))
	t.Cleanup(httpServer.Close)

	return httpServer
}

func do(t *testing.T, method, url, token, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, bs
}

func register(t *testing.T, url string) string {
	t.Helper()

	resp, body := do(t, http.MethodPost, url+"/auth/register", "",
		`{"name":"Owner","email":"owner@acme.test","password":"supersecret"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: got status %d: %s", resp.StatusCode, body)
	}

	var tr tokenResp
	if err := json.Unmarshal(body, &tr); err != nil {
		t.Fatalf("decoding token: %v", err)
	}
	if tr.Token == "" {
		t.Fatal("register returned an empty token")
	}
	return tr.Token
}

func setupBusiness(t *testing.T, url, token string) {
	t.Helper()

	resp, body := do(t, http.MethodPost, url+"/config", token,
		`{"name":"Acme Consulting","invoice_prefix":"INV","currency":"USD","default_tax_rate":"0.08"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("setup config: got status %d: %s", resp.StatusCode, body)
	}
}

func addClient(t *testing.T, url, token string) clientResp {
	t.Helper()

	resp, body := do(t, http.MethodPost, url+"/clients", token,
		`{"name":"Jane Doe","email":"jane@example.com","company":"Doe Industries"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create client: got status %d: %s", resp.StatusCode, body)
	}

	var cr clientResp
	if err := json.Unmarshal(body, &cr); err != nil {
		t.Fatalf("decoding client: %v", err)
	}
	return cr
}

func TestAuthRequired(t *testing.T) {
	url := newTestServer(t).URL

	resp, _ := do(t, http.MethodGet, url+"/clients", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodGet, url+"/clients", "not-a-token", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", resp.StatusCode)
	}
}

func TestLogin(t *testing.T) {
	url := newTestServer(t).URL
	register(t, url)

	resp, body := do(t, http.MethodPost, url+"/auth/login", "",
		`{"email":"owner@acme.test","password":"supersecret"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: got status %d: %s", resp.StatusCode, body)
	}

	// A wrong password and an unknown email fail identically.
	resp, _ = do(t, http.MethodPost, url+"/auth/login", "",
		`{"email":"owner@acme.test","password":"wrong-password"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: got status %d, want 401", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodPost, url+"/auth/login", "",
		`{"email":"nobody@acme.test","password":"supersecret"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unknown email: got status %d, want 401", resp.StatusCode)
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	url := newTestServer(t).URL
	token := register(t, url)
	setupBusiness(t, url, token)
	cl := addClient(t, url, token)

	// Creating an invoice against a missing config or with no items must not
	// allocate a number, so the first successful invoice is number 1.
	resp, _ := do(t, http.MethodPost, url+"/invoices", token,
		fmt.Sprintf(`{"client_id":%d,"items":[]}`, cl.ID))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("zero items: got status %d, want 400", resp.StatusCode)
	}

	data := fmt.Sprintf(`{
		"client_id": %d,
		"items": [
			{"description":"Consulting","quantity":"10","rate":"50","unit":"hour"},
			{"description":"Hosting","quantity":"1","rate":"120","unit":"unit"}
		]
	}`, cl.ID)

	resp, body := do(t, http.MethodPost, url+"/invoices", token, data)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create invoice: got status %d: %s", resp.StatusCode, body)
	}

	var inv invoiceResp
	if err := json.Unmarshal(body, &inv); err != nil {
		t.Fatalf("decoding invoice: %v", err)
	}
	if inv.Number != 1 {
		t.Errorf("number = %d, want 1", inv.Number)
	}
	if got := inv.Subtotal.StringFixed(2); got != "620.00" {
		t.Errorf("subtotal = %s, want 620.00", got)
	}
	if got := inv.Tax.StringFixed(2); got != "49.60" {
		t.Errorf("tax = %s, want 49.60", got)
	}
	if got := inv.Total.StringFixed(2); got != "669.60" {
		t.Errorf("total = %s, want 669.60", got)
	}
	if inv.Status != "draft" {
		t.Errorf("status = %s, want draft", inv.Status)
	}

	// Move it through the lifecycle.
	resp, body = do(t, http.MethodPut, fmt.Sprintf("%s/invoices/%d/status", url, inv.Number),
		token, `{"status":"sent"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set status: got status %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &inv); err != nil {
		t.Fatalf("decoding invoice: %v", err)
	}
	if inv.Status != "sent" {
		t.Errorf("status = %s, want sent", inv.Status)
	}

	resp, _ = do(t, http.MethodPut, fmt.Sprintf("%s/invoices/%d/status", url, inv.Number),
		token, `{"status":"bogus"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bogus status: got status %d, want 400", resp.StatusCode)
	}

	// The PDF endpoint renders the stored invoice.
	resp, body = do(t, http.MethodGet, fmt.Sprintf("%s/invoices/%d/pdf", url, inv.Number), token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pdf: got status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q, want application/pdf", ct)
	}
	if !strings.HasPrefix(string(body), "%PDF") {
		t.Error("pdf body does not start with a PDF header")
	}
}

func TestInvoiceUnknownClient(t *testing.T) {
	url := newTestServer(t).URL
	token := register(t, url)
	setupBusiness(t, url, token)

	data := `{"client_id":42,"items":[{"description":"Consulting","quantity":"1","rate":"50"}]}`
	resp, _ := do(t, http.MethodPost, url+"/invoices", token, data)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", resp.StatusCode)
	}
}

func TestInvoiceWithoutConfig(t *testing.T) {
	url := newTestServer(t).URL
	token := register(t, url)

	data := `{"client_id":1,"items":[{"description":"Consulting","quantity":"1","rate":"50"}]}`
	resp, _ := do(t, http.MethodPost, url+"/invoices", token, data)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("got status %d, want 409", resp.StatusCode)
	}
}

func TestClientCRUD(t *testing.T) {
	url := newTestServer(t).URL
	token := register(t, url)
	cl := addClient(t, url, token)

	resp, body := do(t, http.MethodPut, fmt.Sprintf("%s/clients/%d", url, cl.ID), token,
		`{"phone":"555-0100"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update client: got status %d: %s", resp.StatusCode, body)
	}
	var updated clientResp
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("decoding client: %v", err)
	}
	if updated.Phone != "555-0100" {
		t.Errorf("phone = %q, want 555-0100", updated.Phone)
	}
	if updated.Name != cl.Name {
		t.Errorf("name = %q, want %q: update must leave unset fields alone", updated.Name, cl.Name)
	}

	resp, _ = do(t, http.MethodDelete, fmt.Sprintf("%s/clients/%d", url, cl.ID), token, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete client: got status %d", resp.StatusCode)
	}

	// Default listing hides the tombstone, ?all=true shows it.
	resp, body = do(t, http.MethodGet, url+"/clients", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list clients: got status %d", resp.StatusCode)
	}
	var clients []clientResp
	if err := json.Unmarshal(body, &clients); err != nil {
		t.Fatalf("decoding clients: %v", err)
	}
	if len(clients) != 0 {
		t.Errorf("got %d clients, want 0", len(clients))
	}

	resp, body = do(t, http.MethodGet, url+"/clients?all=true", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list all clients: got status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &clients); err != nil {
		t.Fatalf("decoding clients: %v", err)
	}
	if len(clients) != 1 || clients[0].Active {
		t.Errorf("expected exactly the inactive tombstone, got %+v", clients)
	}
}
