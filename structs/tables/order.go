package tables

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`
	ID            int64 `bun:"id,pk,autoincrement" json:"id"`

	// Relations (both cascade on delete)
	ProductID  int64     `bun:"product_id,notnull" json:"product_id"`
	Product    *Product  `bun:"rel:belongs-to,join:product_id=id" json:"product,omitempty"`
	CustomerID int64     `bun:"customer_id,notnull" json:"customer_id"`
	Customer   *Customer `bun:"rel:belongs-to,join:customer_id=id" json:"customer,omitempty"`

	// Order Data
	Quantity int       `bun:"quantity,notnull" json:"quantity"`
	Address  string    `bun:"address,type:varchar(255),notnull" json:"address"`
	Phone    *string   `bun:"phone,type:varchar(32)" json:"phone,omitempty"` // may differ from the customer's phone
	Date     time.Time `bun:"date,type:date,notnull" json:"date"`
	Status   bool      `bun:"status,notnull" json:"status"` // fulfilled
}

func (o *Order) String() string {
	customer, product := "", ""
	if o.Customer != nil {
		customer = o.Customer.String()
	}
	if o.Product != nil {
		product = o.Product.String()
	}
	return fmt.Sprintf("Order %d - %s - %s", o.ID, customer, product)
}
