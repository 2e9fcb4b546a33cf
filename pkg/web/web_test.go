package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vertexd/pkg/feed"
	"vertexd/pkg/history"
	"vertexd/pkg/instrument"
	"vertexd/pkg/ledger"
	"vertexd/pkg/storage"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	instruments := instrument.DefaultCatalog()
	storer := storage.NewFile(filepath.Join(t.TempDir(), "state.json"), testLogger())

	l := ledger.New(&ledger.ConfigLedger{
		Storer:    storer,
		Catalog:   instrument.NewCatalog(instruments),
		StartCash: 1000000,
	}, testLogger())

	if _, err := l.ApplyQuotes(map[string]feed.Snapshot{
		"bitcoin": {SymbolID: "bitcoin", Price: 50000, ObservedAt: time.Now().UTC()},
	}); err != nil {
		t.Fatal(err)
	}

	return NewServer(&ConfigWeb{
		BindingPort: "0",
		Ledger:      l,
		History:     history.NewBuffer(30),
		Instruments: instruments,
	}, testLogger())
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	return rec
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestServer_SubmitBuyOrder(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/orders", `{"symbol":"bitcoin","side":"buy","amount":1000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var ord struct {
		Status string  `json:"status"`
		Amount float64 `json:"amount"`
		Price  float64 `json:"price"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ord); err != nil {
		t.Fatal(err)
	}
	if ord.Status != ledger.OrderStatusExecuted || ord.Price != 50000 {
		t.Errorf("order = %+v", ord)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("state status = %d", rec.Code)
	}

	var state struct {
		Account struct {
			CashUsd float64 `json:"cash"`
		} `json:"account"`
		Positions     []json.RawMessage `json:"positions"`
		Orders        []json.RawMessage `json:"orders"`
		Market        []json.RawMessage `json:"market"`
		TotalNetWorth float64           `json:"totalNetWorth"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}

	if state.Account.CashUsd != 999000 {
		t.Errorf("cash = %v, want 999000", state.Account.CashUsd)
	}
	if len(state.Positions) != 1 || len(state.Orders) != 1 {
		t.Errorf("positions = %d, orders = %d, want 1 and 1", len(state.Positions), len(state.Orders))
	}
	if len(state.Market) != len(instrument.DefaultCatalog()) {
		t.Errorf("market rows = %d, want full catalog", len(state.Market))
	}
	if state.TotalNetWorth != 1000000 {
		t.Errorf("net worth = %v, want 1000000 right after the buy", state.TotalNetWorth)
	}
}

func TestServer_SubmitOrderRejections(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "unknown side", body: `{"symbol":"bitcoin","side":"short","amount":10}`, wantCode: http.StatusBadRequest},
		{name: "malformed body", body: `{"symbol":`, wantCode: http.StatusBadRequest},
		{name: "invalid amount", body: `{"symbol":"bitcoin","side":"buy","amount":-1}`, wantCode: http.StatusBadRequest},
		{name: "unknown instrument", body: `{"symbol":"dogecoin","side":"buy","amount":10}`, wantCode: http.StatusBadRequest},
		{name: "sell without position", body: `{"symbol":"bitcoin","side":"sell","amount":10}`, wantCode: http.StatusUnprocessableEntity},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)

			rec := doJSON(t, s, http.MethodPost, "/api/orders", tc.body)
			if rec.Code != tc.wantCode {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tc.wantCode, rec.Body.String())
			}
		})
	}
}

func TestServer_DeclinedBuyIsAResult(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/orders", `{"symbol":"bitcoin","side":"buy","amount":2000000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, a declined buy is not an http error", rec.Code)
	}

	var ord struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ord); err != nil {
		t.Fatal(err)
	}
	if ord.Status != ledger.OrderStatusDeclined {
		t.Errorf("status = %q, want declined", ord.Status)
	}
}

func TestServer_OrdersCSV(t *testing.T) {
	s := newTestServer(t)

	if rec := doJSON(t, s, http.MethodPost, "/api/orders", `{"symbol":"bitcoin","side":"buy","amount":1000}`); rec.Code != http.StatusOK {
		t.Fatal("setup buy failed")
	}

	rec := doJSON(t, s, http.MethodGet, "/api/orders.csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want header plus one order", len(lines))
	}
	if lines[0] != "id,time,symbol,type,amount,price,status" {
		t.Errorf("header = %q", lines[0])
	}
}

func TestServer_History(t *testing.T) {
	s := newTestServer(t)
	s.history.Append("bitcoin", 50000)
	s.history.Append("bitcoin", 50100)

	rec := doJSON(t, s, http.MethodGet, "/api/history/bitcoin", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var view struct {
		Series []float64 `json:"series"`
		Svg    string    `json:"svg"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if len(view.Series) != 2 || !strings.Contains(view.Svg, "<svg") {
		t.Errorf("view = %+v", view)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/history/dogecoin", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown instrument status = %d, want 404", rec.Code)
	}
}

func TestServer_Profile(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/profile", `{"username":"alice","theme":"dark"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var state struct {
		Account struct {
			Username string `json:"username"`
		} `json:"account"`
		Settings struct {
			Theme string `json:"theme"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if state.Account.Username != "alice" || state.Settings.Theme != "dark" {
		t.Errorf("state = %+v", state)
	}
}
