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
	"time"

	"github.com/MonkyMars/gecho"
	"github.com/uptrace/bun"
)

type OrderService struct {
	logger *gecho.Logger
	config *structs.Config
	db     *database.DB

	// now is swapped in tests
	now func() time.Time
}

func NewOrderService(logger *gecho.Logger, cfg *structs.Config, db *database.DB) *OrderService {
	return &OrderService{
		logger: logger,
		config: cfg,
		db:     db,
		now:    time.Now,
	}
}

// calendarDate truncates t to midnight UTC of its UTC calendar day
func calendarDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateOrder stores an order for an existing product and customer. Quantity defaults to
// 1 and the date to today.
func (os *OrderService) CreateOrder(ctx context.Context, req *structs.CreateOrderRequest) (order *tables.Order, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityOrder, "create", start, err) }()

	if req == nil {
		req = &structs.CreateOrderRequest{}
	}
	ve := lib.ValidateStruct(req)
	phone := lib.NormalizeOptionalPhone(req.Phone, phoneRegion(os.config), "phone", ve)
	if err = ve.OrNil(); err != nil {
		logStoreError(os.logger, entityOrder, "create", nil, err)
		return nil, err
	}

	template := tables.Order{
		ProductID:  req.ProductID,
		CustomerID: req.CustomerID,
		Quantity:   1,
		Address:    req.Address,
		Phone:      phone,
		Date:       calendarDate(os.now()),
		Status:     req.Status,
	}
	if req.Quantity != nil {
		template.Quantity = *req.Quantity
	}
	if req.Date != nil {
		template.Date = calendarDate(*req.Date)
	}

	order, err = database.TransactionWithResult(os.db, ctx, func(tx bun.Tx) (*tables.Order, error) {
		product, err := database.FindByID[tables.Product](tx, ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, lib.MissingReference("product_id", req.ProductID)
		}
		customer, err := database.FindByID[tables.Customer](tx, ctx, req.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, lib.MissingReference("customer_id", req.CustomerID)
		}

		row := template
		if _, err := database.Query[tables.Order](tx).Insert(ctx, &row); err != nil {
			return nil, err
		}
		row.Product = product
		row.Customer = customer
		return &row, nil
	})
	if err != nil {
		err = fmt.Errorf("failed to create order: %w", lib.MapDBError(err))
		logStoreError(os.logger, entityOrder, "create", nil, err)
		return nil, err
	}

	os.logger.Debug("Order created",
		gecho.Field("id", order.ID),
		gecho.Field("product_id", order.ProductID),
		gecho.Field("customer_id", order.CustomerID),
		gecho.Field("duration", time.Since(start)),
	)
	return order, nil
}

// GetOrder returns the order with its product and customer loaded
func (os *OrderService) GetOrder(ctx context.Context, id int64) (order *tables.Order, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityOrder, "get", start, err) }()

	order, err = database.Query[tables.Order](os.db).
		Where("id", id).
		With("Product").
		With("Customer").
		First(ctx)
	if err != nil {
		err = fmt.Errorf("failed to get order: %w", lib.MapDBError(err))
		logStoreError(os.logger, entityOrder, "get", id, err)
		return nil, err
	}
	if order == nil {
		err = lib.NotFound(entityOrder, id)
		return nil, err
	}
	return order, nil
}

// ListOrders returns one page of orders matching the filters of opts, ordered by ID
func (os *OrderService) ListOrders(ctx context.Context, opts *structs.OrderListOptions) (result *database.PaginationResult[tables.Order], err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityOrder, "list", start, err) }()

	if opts == nil {
		opts = &structs.OrderListOptions{}
	}

	result, err = database.TransactionWithResult(os.db, ctx, func(tx bun.Tx) (*database.PaginationResult[tables.Order], error) {
		query := database.Query[tables.Order](tx).With("Product").With("Customer")
		if opts.CustomerID != nil {
			query = query.Where("customer_id", *opts.CustomerID)
		}
		if opts.ProductID != nil {
			query = query.Where("product_id", *opts.ProductID)
		}
		if opts.Status != nil {
			query = query.Where("status", *opts.Status)
		}
		return database.Paginate(query.OrderBy("id", database.ASC), ctx, opts.Page, opts.PageSize)
	})
	if err != nil {
		err = fmt.Errorf("failed to list orders: %w", lib.MapDBError(err))
		logStoreError(os.logger, entityOrder, "list", nil, err)
		return nil, err
	}
	return result, nil
}

// UpdateOrder applies the non-nil fields of req
func (os *OrderService) UpdateOrder(ctx context.Context, id int64, req *structs.UpdateOrderRequest) (order *tables.Order, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityOrder, "update", start, err) }()

	if req == nil {
		req = &structs.UpdateOrderRequest{}
	}
	ve := lib.ValidateStruct(req)
	phone := lib.NormalizeOptionalPhone(req.Phone, phoneRegion(os.config), "phone", ve)
	if err = ve.OrNil(); err != nil {
		logStoreError(os.logger, entityOrder, "update", id, err)
		return nil, err
	}
	clearPhone := req.ClearPhone || (req.Phone != nil && strings.TrimSpace(*req.Phone) == "")

	order, err = database.TransactionWithResult(os.db, ctx, func(tx bun.Tx) (*tables.Order, error) {
		current, err := database.FindByID[tables.Order](tx, ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, lib.NotFound(entityOrder, id)
		}

		if req.Quantity != nil {
			current.Quantity = *req.Quantity
		}
		if req.Address != nil {
			current.Address = *req.Address
		}
		if clearPhone {
			current.Phone = nil
		} else if phone != nil {
			current.Phone = phone
		}
		if req.Status != nil {
			current.Status = *req.Status
		}

		if _, err := tx.NewUpdate().Model(current).WherePK().Exec(ctx); err != nil {
			return nil, err
		}
		return current, nil
	})
	if err != nil {
		err = fmt.Errorf("failed to update order: %w", lib.MapDBError(err))
		logStoreError(os.logger, entityOrder, "update", id, err)
		return nil, err
	}

	os.logger.Debug("Order updated", gecho.Field("id", id), gecho.Field("duration", time.Since(start)))
	return order, nil
}

// SetOrderStatus marks the order fulfilled or not
func (os *OrderService) SetOrderStatus(ctx context.Context, id int64, status bool) (*tables.Order, error) {
	return os.UpdateOrder(ctx, id, &structs.UpdateOrderRequest{Status: &status})
}

// DeleteOrder removes a single order
func (os *OrderService) DeleteOrder(ctx context.Context, id int64) (result *DeleteResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityOrder, "delete", start, err) }()

	result, err = database.TransactionWithResult(os.db, ctx, func(tx bun.Tx) (*DeleteResult, error) {
		deleted, err := database.Query[tables.Order](tx).Where("id", id).Delete(ctx)
		if err != nil {
			return nil, err
		}
		if deleted == 0 {
			return nil, lib.NotFound(entityOrder, id)
		}
		return &DeleteResult{Orders: deleted}, nil
	})
	if err != nil {
		err = fmt.Errorf("failed to delete order: %w", lib.MapDBError(err))
		logStoreError(os.logger, entityOrder, "delete", id, err)
		return nil, err
	}

	os.logger.Info("Order deleted", gecho.Field("id", id))
	return result, nil
}
