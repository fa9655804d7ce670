// Package handlers wires the HTTP API to the business cores.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/billfold/billfold/internal/core/business"
	"github.com/billfold/billfold/internal/core/client"
	"github.com/billfold/billfold/internal/core/invoice"
	"github.com/billfold/billfold/internal/core/user"
	"github.com/billfold/billfold/internal/pdf"
	"go.opentelemetry.io/otel/trace"
)

// Server bundles the cores the handlers depend on.
type Server struct {
	log      *slog.Logger
	users    *user.Core
	clients  *client.Core
	invoices *invoice.Core
	business *business.Core
	pdf      *pdf.Generator
	secret   []byte
}

func NewServer(
	log *slog.Logger,
	users *user.Core,
	clients *client.Core,
	invoices *invoice.Core,
	bus *business.Core,
	gen *pdf.Generator,
	secret string,
) *Server {
	return &Server{
		log:      log,
		users:    users,
		clients:  clients,
		invoices: invoices,
		business: bus,
		pdf:      gen,
		secret:   []byte(secret),
	}
}

// APIMux routes the API. Everything except registration and login requires a
// bearer token.
func APIMux(s *Server, tracer trace.Tracer) *http.ServeMux {
	open := func(h http.HandlerFunc) http.Handler {
		return middlewareWeb(tracer, h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return middlewareWeb(tracer, s.authn(h))
	}

	mux := http.NewServeMux()

	mux.Handle("POST /auth/register", open(s.Register))
	mux.Handle("POST /auth/login", open(s.Login))

	mux.Handle("GET /config", protected(s.QueryConfig))
	mux.Handle("POST /config", protected(s.SetupConfig))
	mux.Handle("PUT /config", protected(s.UpdateConfig))

	mux.Handle("GET /clients", protected(s.QueryClients))
	mux.Handle("POST /clients", protected(s.CreateClient))
	mux.Handle("GET /clients/{id}", protected(s.QueryClientByID))
	mux.Handle("PUT /clients/{id}", protected(s.UpdateClient))
	mux.Handle("DELETE /clients/{id}", protected(s.DeleteClient))

	mux.Handle("GET /invoices", protected(s.QueryInvoices))
	mux.Handle("POST /invoices", protected(s.CreateInvoice))
	mux.Handle("GET /invoices/{number}", protected(s.QueryInvoiceByNumber))
	mux.Handle("PUT /invoices/{number}/status", protected(s.UpdateInvoiceStatus))
	mux.Handle("GET /invoices/{number}/pdf", protected(s.InvoicePDF))

	return mux
}

// Clients

func (s *Server) QueryClients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		clients []client.Client
		err     error
	)
	includeInactive := r.URL.Query().Get("all") == "true"
	if q := r.URL.Query().Get("q"); q != "" {
		clients, err = s.clients.Search(ctx, q, includeInactive)
	} else {
		clients, err = s.clients.Query(ctx, includeInactive)
	}
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toClientResps(clients))
}

func (s *Server) CreateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req clientReq
	if !s.decode(ctx, w, r, &req) {
		return
	}

	cl, err := s.clients.Create(ctx, client.NewClient{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		Phone:   req.Phone,
		Company: req.Company,
	})
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusCreated, toClientResp(cl))
}

func (s *Server) QueryClientByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathInt(r, "id")
	if err != nil {
		s.respondError(ctx, w, client.ErrNotFound)
		return
	}

	cl, err := s.clients.QueryByID(ctx, id)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toClientResp(cl))
}

func (s *Server) UpdateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathInt(r, "id")
	if err != nil {
		s.respondError(ctx, w, client.ErrNotFound)
		return
	}

	var req clientUpdateReq
	if !s.decode(ctx, w, r, &req) {
		return
	}

	cl, err := s.clients.Update(ctx, id, client.UpdateClient{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		Phone:   req.Phone,
		Company: req.Company,
	})
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toClientResp(cl))
}

func (s *Server) DeleteClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathInt(r, "id")
	if err != nil {
		s.respondError(ctx, w, client.ErrNotFound)
		return
	}

	if err := s.clients.Delete(ctx, id); err != nil {
		s.respondError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Business config

func (s *Server) QueryConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cfg, err := s.business.Query(ctx)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toConfigResp(cfg))
}

func (s *Server) SetupConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req configReq
	if !s.decode(ctx, w, r, &req) {
		return
	}

	cfg, err := s.business.Setup(ctx, business.NewConfig{
		Name:           req.Name,
		Address:        req.Address,
		Email:          req.Email,
		Phone:          req.Phone,
		InvoicePrefix:  req.InvoicePrefix,
		Currency:       req.Currency,
		DefaultTaxRate: req.DefaultTaxRate,
	})
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusCreated, toConfigResp(cfg))
}

func (s *Server) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req configUpdateReq
	if !s.decode(ctx, w, r, &req) {
		return
	}

	cfg, err := s.business.Update(ctx, business.UpdateConfig{
		Name:           req.Name,
		Address:        req.Address,
		Email:          req.Email,
		Phone:          req.Phone,
		InvoicePrefix:  req.InvoicePrefix,
		Currency:       req.Currency,
		DefaultTaxRate: req.DefaultTaxRate,
	})
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toConfigResp(cfg))
}

// Invoices

func (s *Server) QueryInvoices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	invoices, err := s.invoices.Query(ctx)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toInvoiceResps(invoices))
}

func (s *Server) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req invoiceReq
	if !s.decode(ctx, w, r, &req) {
		return
	}

	ni, err := toNewInvoice(req)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	inv, err := s.invoices.Create(ctx, ni)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusCreated, toInvoiceResp(inv))
}

func (s *Server) QueryInvoiceByNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	number, err := pathInt(r, "number")
	if err != nil {
		s.respondError(ctx, w, invoice.ErrNotFound)
		return
	}

	inv, err := s.invoices.QueryByNumber(ctx, number)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toInvoiceResp(inv))
}

func (s *Server) UpdateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	number, err := pathInt(r, "number")
	if err != nil {
		s.respondError(ctx, w, invoice.ErrNotFound)
		return
	}

	var req statusReq
	if !s.decode(ctx, w, r, &req) {
		return
	}

	inv, err := s.invoices.SetStatus(ctx, number, invoice.Status(req.Status))
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toInvoiceResp(inv))
}

func (s *Server) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	number, err := pathInt(r, "number")
	if err != nil {
		s.respondError(ctx, w, invoice.ErrNotFound)
		return
	}

	inv, err := s.invoices.QueryByNumber(ctx, number)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	cl, err := s.clients.QueryByID(ctx, inv.ClientID)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	cfg, err := s.business.Query(ctx)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	bs, err := s.pdf.Render(cfg, cl, inv)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	filename := fmt.Sprintf("invoice_%s.pdf", cfg.InvoiceNumber(inv.Number))
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(bs)))
	w.Write(bs)
}

// Helpers

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(r.PathValue(name))
}

func (s *Server) decode(ctx context.Context, w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	r.Body.Close()
	if err != nil {
		s.log.ErrorContext(ctx, "decoding json", "ERROR", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) respond(ctx context.Context, w http.ResponseWriter, status int, v any) {
	bs, err := json.Marshal(v)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to encode response", "ERROR", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(bs)
}

func (s *Server) respondError(ctx context.Context, w http.ResponseWriter, err error) {
	s.log.ErrorContext(ctx, "handler", "ERROR", err)
	switch {
	case errors.Is(err, client.ErrNotFound),
		errors.Is(err, invoice.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)

	case errors.Is(err, client.ErrInvalidArgument),
		errors.Is(err, invoice.ErrInvalidArgument),
		errors.Is(err, user.ErrInvalidArgument),
		errors.Is(err, business.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)

	case errors.Is(err, business.ErrNotConfigured),
		errors.Is(err, business.ErrAlreadyConfigured),
		errors.Is(err, user.ErrUniqueEmail):
		http.Error(w, err.Error(), http.StatusConflict)

	case errors.Is(err, user.ErrAuthenticationFailure):
		http.Error(w, err.Error(), http.StatusUnauthorized)

	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
