package records

import (
	"strings"
	"time"

	"github.com/JonMunkholm/xlimport/internal/core"
	"github.com/jackc/pgx/v5/pgtype"
)

// Order is imported from sheets laid out as
// order number | customer | quantity | amount | paid | order date | ship state.
type Order struct {
	OrderNumber string         `json:"order_number"`
	Customer    string         `json:"customer"`
	Quantity    int            `json:"quantity"`
	Amount      pgtype.Numeric `json:"amount"`
	Paid        bool           `json:"paid"`
	OrderDate   time.Time      `json:"order_date"`
	ShipState   string         `json:"ship_state"`
}

// OrderSchema maps Order columns by hand.
var OrderSchema = core.FieldList[Order]{
	{Column: "0", Name: "order_number", Set: func(o *Order, s string) error {
		o.OrderNumber = strings.TrimSpace(s)
		return nil
	}},
	{Column: "1", Name: "customer", Set: func(o *Order, s string) error {
		o.Customer = strings.TrimSpace(s)
		return nil
	}},
	{Column: "2", Name: "quantity", Set: func(o *Order, s string) (err error) {
		o.Quantity, err = core.ParsePositiveInt("quantity", s)
		return err
	}},
	{Column: "3", Name: "amount", Set: func(o *Order, s string) (err error) {
		o.Amount, err = core.ParseDecimal("amount", s)
		return err
	}},
	{Column: "4", Name: "paid", Set: func(o *Order, s string) (err error) {
		o.Paid, err = core.ParseBool("paid", s)
		return err
	}},
	{Column: "5", Name: "order_date", Set: func(o *Order, s string) (err error) {
		o.OrderDate, err = core.ParseDate("order_date", s)
		return err
	}},
	{Column: "6", Name: "ship_state", Set: func(o *Order, s string) error {
		o.ShipState = NormalizeUsState(s)
		return nil
	}},
}

const ordersDDL = `CREATE TABLE IF NOT EXISTS imported_orders (
	id           BIGSERIAL PRIMARY KEY,
	order_number TEXT NOT NULL,
	customer     TEXT,
	quantity     INTEGER,
	amount       NUMERIC,
	paid         BOOLEAN NOT NULL DEFAULT false,
	order_date   DATE,
	ship_state   TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// OrderType returns the "order" record type.
func OrderType() core.RecordType {
	return core.Define[Order]("order", "Orders", OrderSchema, &core.CopySpec[Order]{
		Table:   "imported_orders",
		Columns: []string{"order_number", "customer", "quantity", "amount", "paid", "order_date", "ship_state"},
		Row: func(o Order) []any {
			return []any{
				o.OrderNumber,
				toPgText(o.Customer),
				pgtype.Int4{Int32: int32(o.Quantity), Valid: o.Quantity > 0},
				o.Amount,
				o.Paid,
				pgtype.Date{Time: o.OrderDate, Valid: !o.OrderDate.IsZero()},
				toPgText(o.ShipState),
			}
		},
		DDL: ordersDDL,
	})
}

func toPgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
