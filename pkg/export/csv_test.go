package export

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"
	"time"

	"vertexd/pkg/ledger"
)

func TestOrdersCSV(t *testing.T) {
	orders := []ledger.Order{
		{
			ID:        "a1",
			Time:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			SymbolID:  "bitcoin",
			Side:      ledger.OrderSideBuy,
			AmountUsd: 10000,
			Price:     50000,
			Status:    ledger.OrderStatusExecuted,
		},
		{
			ID:        "a2",
			Time:      time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC),
			SymbolID:  "bitcoin",
			Side:      ledger.OrderSideBuy,
			AmountUsd: 2000000,
			Price:     50100.5,
			Status:    ledger.OrderStatusDeclined,
		},
		{
			ID:        "a3",
			Time:      time.Date(2025, 6, 1, 12, 2, 0, 0, time.UTC),
			SymbolID:  "bitcoin",
			Side:      ledger.OrderSideSell,
			AmountUsd: 500,
			Price:     50200,
			Status:    ledger.OrderStatusExecuted,
		},
	}

	var buf bytes.Buffer
	if err := OrdersCSV(&buf, orders); err != nil {
		t.Fatalf("OrdersCSV() error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading produced csv: %v", err)
	}

	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header plus 3 orders", len(rows))
	}

	wantHeader := []string{"id", "time", "symbol", "type", "amount", "price", "status"}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Errorf("header = %v, want %v", rows[0], wantHeader)
	}

	// log order must survive, one row per order
	wantIDs := []string{"a1", "a2", "a3"}
	for i, id := range wantIDs {
		if rows[i+1][0] != id {
			t.Errorf("row %d id = %q, want %q", i+1, rows[i+1][0], id)
		}
	}

	if rows[2][6] != ledger.OrderStatusDeclined {
		t.Errorf("declined order status = %q in csv", rows[2][6])
	}
	if rows[2][4] != "2000000" {
		t.Errorf("amount = %q, want 2000000", rows[2][4])
	}
	if rows[2][5] != "50100.5" {
		t.Errorf("price = %q, want 50100.5", rows[2][5])
	}
}

func TestOrdersCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := OrdersCSV(&buf, nil); err != nil {
		t.Fatalf("OrdersCSV() error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("rows = %d, want header only", len(rows))
	}
}
