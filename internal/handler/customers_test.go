package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/guestlink/guestlink/internal/model"
	"github.com/guestlink/guestlink/internal/service"
)

type storeFakes struct {
	lookup      *service.CustomerLookup
	lookupErr   error
	lookupEmail string
	registerErr error
	orderErr    error
	sessionErr  error
	lastOrder   service.CreateGuestOrderInput
}

func (f *storeFakes) Register(_ context.Context, in service.RegisterInput) (*model.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &model.User{ID: "u1", Email: in.Email, FirstName: in.FirstName}, nil
}

func (f *storeFakes) Lookup(_ context.Context, email string) (*service.CustomerLookup, error) {
	f.lookupEmail = email
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.lookup, nil
}

func (f *storeFakes) CreateGuestOrder(_ context.Context, in service.CreateGuestOrderInput) (*model.Order, error) {
	f.lastOrder = in
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return &model.Order{ID: "o1", BillingEmail: in.BillingEmail, Status: model.OrderStatusPending, Currency: "USD"}, nil
}

func (f *storeFakes) StartSession(_ context.Context, userID string) (*service.Session, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return &service.Session{Token: "tok", UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func TestStoreHandler_RegisterCustomer(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"created", `{"email":"jane@example.com","first_name":"Jane"}`, nil, http.StatusCreated, ""},
		{"bad json", `{"email":`, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown field", `{"email":"a@b.co","password":"x"}`, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"invalid email", `{"email":"nope"}`, service.ErrInvalidEmail, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"duplicate", `{"email":"a@b.co"}`, service.ErrEmailExists, http.StatusConflict, "EMAIL_EXISTS"},
		{"internal", `{"email":"a@b.co"}`, errors.New("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakes := &storeFakes{registerErr: tt.err}
			h := NewStoreHandler(fakes, fakes, fakes, nil)

			rec := httptest.NewRecorder()
			h.RegisterCustomer(rec, httptest.NewRequest(http.MethodPost, "/api/v1/customers", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if got := decodeError(t, rec); got.Code != tt.wantCode {
					t.Errorf("code = %s, want %s", got.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestStoreHandler_CreateGuestOrder(t *testing.T) {
	fakes := &storeFakes{}
	h := NewStoreHandler(fakes, fakes, fakes, nil)

	body := `{"billing_email":"Jane@Example.com","total_cents":2500,"currency":"eur","status":"completed"}`
	rec := httptest.NewRecorder()
	h.CreateGuestOrder(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if fakes.lastOrder.TotalCents != 2500 || fakes.lastOrder.Status != "completed" || fakes.lastOrder.Currency != "eur" {
		t.Errorf("input = %+v", fakes.lastOrder)
	}

	fakes.orderErr = service.ErrOrderExists
	rec = httptest.NewRecorder()
	h.CreateGuestOrder(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}
}

func TestStoreHandler_CreateSession(t *testing.T) {
	fakes := &storeFakes{}
	h := NewStoreHandler(fakes, fakes, fakes, nil)

	rec := httptest.NewRecorder()
	h.CreateSession(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{"user_id":"u1"}`)))
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"token":"tok"`) {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.CreateSession(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing user status = %d, want 400", rec.Code)
	}

	fakes.sessionErr = service.ErrCustomerNotFound
	rec = httptest.NewRecorder()
	h.CreateSession(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{"user_id":"ghost"}`)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown user status = %d, want 404", rec.Code)
	}
}

func TestStoreHandler_LookupCustomer(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		lookup     *service.CustomerLookup
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "registered",
			query:      "?email=Jane%40example.com",
			lookup:     &service.CustomerLookup{Email: "jane@example.com", Customer: &model.User{ID: "u1", Email: "jane@example.com"}, UnlinkedGuestOrders: 2},
			wantStatus: http.StatusOK,
			wantBody:   `"unlinked_guest_orders":2`,
		},
		{
			name:       "no account",
			query:      "?email=bob%40example.com",
			lookup:     &service.CustomerLookup{Email: "bob@example.com", UnlinkedGuestOrders: 1},
			wantStatus: http.StatusOK,
			wantBody:   `"customer":null`,
		},
		{name: "missing email", query: "", wantStatus: http.StatusBadRequest, wantBody: "INVALID_REQUEST"},
		{name: "invalid email", query: "?email=nope", err: service.ErrInvalidEmail, wantStatus: http.StatusBadRequest, wantBody: "VALIDATION_ERROR"},
		{name: "store failure", query: "?email=a%40b.co", err: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantBody: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakes := &storeFakes{lookup: tt.lookup, lookupErr: tt.err}
			h := NewStoreHandler(fakes, fakes, fakes, nil)

			rec := httptest.NewRecorder()
			h.LookupCustomer(rec, httptest.NewRequest(http.MethodGet, "/api/v1/customers"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %s does not contain %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}
