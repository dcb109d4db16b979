package services

import (
	"context"
	"fmt"
	"storefront_server/lib"
	"storefront_server/structs"
	"storefront_server/structs/tables"
)

// CustomerWrite is a customer row about to be inserted or updated. Hooks may modify
// Customer in place; Current holds the stored row on updates and is nil on creates.
type CustomerWrite struct {
	Customer *tables.Customer
	Current  *tables.Customer
}

// IsCreate reports whether the write inserts a new row
func (w *CustomerWrite) IsCreate() bool {
	return w.Current == nil
}

// CustomerWriteHook runs inside the write transaction before the row is stored. A
// non-nil error aborts the write.
type CustomerWriteHook func(ctx context.Context, w *CustomerWrite) error

// PasswordHashHook replaces a plain-text password with its argon2id encoding. On
// updates a password equal to the stored value is the existing hash and is kept as is;
// any other value is treated as plain text.
func PasswordHashHook(params *structs.ArgonParams) CustomerWriteHook {
	return func(_ context.Context, w *CustomerWrite) error {
		password := w.Customer.Password
		if password == "" {
			return nil
		}
		if !w.IsCreate() && password == w.Current.Password {
			return nil
		}

		encoded, err := lib.HashPassword(password, params)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		w.Customer.Password = encoded
		return nil
	}
}
