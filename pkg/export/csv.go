package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"vertexd/pkg/ledger"
)

var csvHeader = []string{"id", "time", "symbol", "type", "amount", "price", "status"}

// OrdersCSV writes the order log as CSV, one row per order in log
// order.
func OrdersCSV(w io.Writer, orders []ledger.Order) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, o := range orders {
		row := []string{
			o.ID,
			o.Time.Format(time.RFC3339),
			o.SymbolID,
			o.Side,
			strconv.FormatFloat(o.AmountUsd, 'f', -1, 64),
			strconv.FormatFloat(o.Price, 'f', -1, 64),
			o.Status,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}
