package services

import (
	"context"
	"fmt"
	"storefront_server/database"
	"storefront_server/lib"
	"storefront_server/metrics"
	"storefront_server/structs"
	"storefront_server/structs/tables"
	"strings"
	"sync"
	"time"

	"github.com/MonkyMars/gecho"
	"github.com/uptrace/bun"
)

type CustomerService struct {
	logger *gecho.Logger
	config *structs.Config
	db     *database.DB

	hooksMu sync.RWMutex
	hooks   []CustomerWriteHook

	// decoyHash is checked for unknown emails
	decoyOnce sync.Once
	decoyHash string
}

// NewCustomerService creates the service with the password hashing hook registered.
func NewCustomerService(logger *gecho.Logger, cfg *structs.Config, db *database.DB) *CustomerService {
	cs := &CustomerService{
		logger: logger,
		config: cfg,
		db:     db,
	}
	cs.RegisterWriteHook(PasswordHashHook(cfg.Password))
	return cs
}

// RegisterWriteHook adds a hook run before every customer insert or update, after the
// hooks registered earlier.
func (cs *CustomerService) RegisterWriteHook(hook CustomerWriteHook) {
	cs.hooksMu.Lock()
	defer cs.hooksMu.Unlock()
	cs.hooks = append(cs.hooks, hook)
}

func (cs *CustomerService) runWriteHooks(ctx context.Context, w *CustomerWrite) error {
	cs.hooksMu.RLock()
	hooks := cs.hooks
	cs.hooksMu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

// CreateCustomer validates and stores a new customer. The password is hashed by the
// write hooks before the insert.
func (cs *CustomerService) CreateCustomer(ctx context.Context, req *structs.CreateCustomerRequest) (customer *tables.Customer, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityCustomer, "create", start, err) }()

	if req == nil {
		req = &structs.CreateCustomerRequest{}
	}
	in := *req
	in.Email = lib.NormalizeEmail(in.Email)

	ve := lib.ValidateStruct(&in)
	phone := lib.NormalizeOptionalPhone(in.Phone, phoneRegion(cs.config), "phone", ve)
	if err = ve.OrNil(); err != nil {
		logStoreError(cs.logger, entityCustomer, "create", nil, err)
		return nil, err
	}

	template := tables.Customer{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     phone,
		Email:     in.Email,
		Password:  in.Password,
	}
	// A retried transaction starts again from the plaintext template
	customer, err = database.TransactionWithResult(cs.db, ctx, func(tx bun.Tx) (*tables.Customer, error) {
		row := template
		if err := cs.runWriteHooks(ctx, &CustomerWrite{Customer: &row}); err != nil {
			return nil, err
		}
		if _, err := database.Query[tables.Customer](tx).Insert(ctx, &row); err != nil {
			return nil, err
		}
		return &row, nil
	})
	if err != nil {
		err = fmt.Errorf("failed to create customer: %w", lib.MapDBError(err))
		logStoreError(cs.logger, entityCustomer, "create", nil, err)
		return nil, err
	}

	cs.logger.Debug("Customer created",
		gecho.Field("id", customer.ID),
		gecho.Field("duration", time.Since(start)),
	)
	return customer, nil
}

// GetCustomer returns the customer with the given ID
func (cs *CustomerService) GetCustomer(ctx context.Context, id int64) (customer *tables.Customer, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityCustomer, "get", start, err) }()

	customer, err = database.FindByID[tables.Customer](cs.db, ctx, id)
	if err != nil {
		err = fmt.Errorf("failed to get customer: %w", lib.MapDBError(err))
		logStoreError(cs.logger, entityCustomer, "get", id, err)
		return nil, err
	}
	if customer == nil {
		err = lib.NotFound(entityCustomer, id)
		return nil, err
	}
	return customer, nil
}

// GetCustomerByEmail looks a customer up by (normalized) email address
func (cs *CustomerService) GetCustomerByEmail(ctx context.Context, email string) (customer *tables.Customer, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityCustomer, "get_by_email", start, err) }()

	email = lib.NormalizeEmail(email)
	customer, err = database.Query[tables.Customer](cs.db).Where("email", email).First(ctx)
	if err != nil {
		err = fmt.Errorf("failed to get customer: %w", lib.MapDBError(err))
		logStoreError(cs.logger, entityCustomer, "get_by_email", nil, err)
		return nil, err
	}
	if customer == nil {
		err = lib.NotFound(entityCustomer, email)
		return nil, err
	}
	return customer, nil
}

// ListCustomers returns one page of customers ordered by ID
func (cs *CustomerService) ListCustomers(ctx context.Context, opts *structs.ListOptions) (result *database.PaginationResult[tables.Customer], err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityCustomer, "list", start, err) }()

	o := listOptions(opts)
	result, err = database.TransactionWithResult(cs.db, ctx, func(tx bun.Tx) (*database.PaginationResult[tables.Customer], error) {
		return database.Paginate(database.Query[tables.Customer](tx).OrderBy("id", database.ASC), ctx, o.Page, o.PageSize)
	})
	if err != nil {
		err = fmt.Errorf("failed to list customers: %w", lib.MapDBError(err))
		logStoreError(cs.logger, entityCustomer, "list", nil, err)
		return nil, err
	}
	return result, nil
}

// UpdateCustomer applies the non-nil fields of req. A new password passes through the
// write hooks like on create.
func (cs *CustomerService) UpdateCustomer(ctx context.Context, id int64, req *structs.UpdateCustomerRequest) (customer *tables.Customer, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityCustomer, "update", start, err) }()

	if req == nil {
		req = &structs.UpdateCustomerRequest{}
	}
	in := *req
	if in.Email != nil {
		email := lib.NormalizeEmail(*in.Email)
		in.Email = &email
	}

	ve := lib.ValidateStruct(&in)
	phone := lib.NormalizeOptionalPhone(in.Phone, phoneRegion(cs.config), "phone", ve)
	if err = ve.OrNil(); err != nil {
		logStoreError(cs.logger, entityCustomer, "update", id, err)
		return nil, err
	}
	clearPhone := in.ClearPhone || (in.Phone != nil && strings.TrimSpace(*in.Phone) == "")

	customer, err = database.TransactionWithResult(cs.db, ctx, func(tx bun.Tx) (*tables.Customer, error) {
		current, err := database.FindByID[tables.Customer](tx, ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, lib.NotFound(entityCustomer, id)
		}

		updated := *current
		if in.FirstName != nil {
			updated.FirstName = *in.FirstName
		}
		if in.LastName != nil {
			updated.LastName = *in.LastName
		}
		if in.Email != nil {
			updated.Email = *in.Email
		}
		if clearPhone {
			updated.Phone = nil
		} else if phone != nil {
			updated.Phone = phone
		}
		if in.Password != nil {
			updated.Password = *in.Password
		}

		if err := cs.runWriteHooks(ctx, &CustomerWrite{Customer: &updated, Current: current}); err != nil {
			return nil, err
		}
		if _, err := tx.NewUpdate().Model(&updated).WherePK().Exec(ctx); err != nil {
			return nil, err
		}
		return &updated, nil
	})
	if err != nil {
		err = fmt.Errorf("failed to update customer: %w", lib.MapDBError(err))
		logStoreError(cs.logger, entityCustomer, "update", id, err)
		return nil, err
	}

	cs.logger.Debug("Customer updated", gecho.Field("id", id), gecho.Field("duration", time.Since(start)))
	return customer, nil
}

// ChangePassword hashes and stores a new password for the customer
func (cs *CustomerService) ChangePassword(ctx context.Context, id int64, password string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityCustomer, "change_password", start, err) }()

	if err = lib.ValidateStruct(&structs.ChangePasswordRequest{Password: password}).OrNil(); err != nil {
		logStoreError(cs.logger, entityCustomer, "change_password", id, err)
		return err
	}

	encoded, err := lib.HashPassword(password, cs.config.Password)
	if err != nil {
		err = fmt.Errorf("failed to hash password: %w", err)
		logStoreError(cs.logger, entityCustomer, "change_password", id, err)
		return err
	}

	err = database.Transaction(cs.db, ctx, func(tx bun.Tx) error {
		affected, err := database.Query[tables.Customer](tx).
			Where("id", id).
			Update(ctx, map[string]any{"password": encoded})
		if err != nil {
			return err
		}
		if affected == 0 {
			return lib.NotFound(entityCustomer, id)
		}
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed to change password: %w", lib.MapDBError(err))
		logStoreError(cs.logger, entityCustomer, "change_password", id, err)
		return err
	}

	cs.logger.Info("Customer password changed", gecho.Field("id", id))
	return nil
}

// VerifyCredentials returns the customer owning email when password matches. Unknown
// emails and wrong passwords both yield lib.ErrInvalidCredentials.
func (cs *CustomerService) VerifyCredentials(ctx context.Context, email, password string) (customer *tables.Customer, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityCustomer, "verify_credentials", start, err) }()

	creds := &structs.CredentialsRequest{Email: lib.NormalizeEmail(email), Password: password}
	if err = lib.ValidateStruct(creds).OrNil(); err != nil {
		return nil, err
	}

	customer, err = database.Query[tables.Customer](cs.db).Where("email", creds.Email).First(ctx)
	if err != nil {
		err = fmt.Errorf("failed to verify credentials: %w", lib.MapDBError(err))
		logStoreError(cs.logger, entityCustomer, "verify_credentials", nil, err)
		return nil, err
	}

	if customer == nil {
		_, _ = lib.VerifyPassword(password, cs.decoy())
		err = lib.ErrInvalidCredentials
		return nil, err
	}

	ok, verifyErr := lib.VerifyPassword(password, customer.Password)
	if verifyErr != nil {
		cs.logger.Error("Stored password is not a valid hash",
			gecho.Field("id", customer.ID),
			gecho.Field("error", verifyErr),
		)
	}
	if !ok {
		err = lib.ErrInvalidCredentials
		return nil, err
	}
	return customer, nil
}

func (cs *CustomerService) decoy() string {
	cs.decoyOnce.Do(func() {
		encoded, err := lib.HashPassword("decoy-password", cs.config.Password)
		if err != nil {
			cs.logger.Warn("Failed to build decoy hash", gecho.Field("error", err))
		}
		cs.decoyHash = encoded
	})
	return cs.decoyHash
}

// DeleteCustomer removes the customer and their orders
func (cs *CustomerService) DeleteCustomer(ctx context.Context, id int64) (result *DeleteResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityCustomer, "delete", start, err) }()

	result, err = database.TransactionWithResult(cs.db, ctx, func(tx bun.Tx) (*DeleteResult, error) {
		res, err := deleteCustomerTx(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if res.Customers == 0 {
			return nil, lib.NotFound(entityCustomer, id)
		}
		return res, nil
	})
	if err != nil {
		err = fmt.Errorf("failed to delete customer: %w", lib.MapDBError(err))
		logStoreError(cs.logger, entityCustomer, "delete", id, err)
		return nil, err
	}

	cs.logger.Info("Customer deleted", gecho.Field("id", id), gecho.Field("orders", result.Orders))
	return result, nil
}
