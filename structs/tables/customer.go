package tables

import "github.com/uptrace/bun"

type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:cu"`
	ID            int64   `bun:"id,pk,autoincrement" json:"id"`
	FirstName     string  `bun:"first_name,type:varchar(255),notnull" json:"first_name"`
	LastName      string  `bun:"last_name,type:varchar(255),notnull" json:"last_name"`
	Phone         *string `bun:"phone,type:varchar(32)" json:"phone,omitempty"` // E.164, nil when unknown
	Email         string  `bun:"email,type:varchar(100),notnull,unique" json:"email"`
	Password      string  `bun:"password,type:varchar(128),notnull" json:"-"` // encoded argon2id hash, never plaintext
}

func (c *Customer) String() string {
	return c.FirstName + " " + c.LastName
}
