package tables

import "github.com/uptrace/bun"

// CategoryPlural is the display label used for category collections.
const CategoryPlural = "categories"

type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c"`
	ID            int64  `bun:"id,pk,autoincrement" json:"id"`
	Name          string `bun:"name,type:varchar(50),notnull" json:"name"`
}

func (c *Category) String() string {
	return c.Name
}
