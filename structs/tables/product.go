package tables

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`
	ID            int64           `bun:"id,pk,autoincrement" json:"id"`
	Name          string          `bun:"name,type:varchar(100),notnull" json:"name"`
	Price         decimal.Decimal `bun:"price,notnull" json:"price"` // 0.00 - 9999.99
	CategoryID    int64           `bun:"category_id,notnull" json:"category_id"`
	Category      *Category       `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
	Description   *string         `bun:"description,type:varchar(200)" json:"description,omitempty"`
	Image         string          `bun:"image,type:varchar(100),notnull" json:"image"` // path under the upload dir
}

func (p *Product) String() string {
	return p.Name
}
