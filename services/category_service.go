package services

import (
	"context"
	"fmt"
	"storefront_server/database"
	"storefront_server/lib"
	"storefront_server/metrics"
	"storefront_server/structs"
	"storefront_server/structs/tables"
	"time"

	"github.com/MonkyMars/gecho"
	"github.com/uptrace/bun"
)

type CategoryService struct {
	logger       *gecho.Logger
	db           *database.DB
	cacheService *CacheService
}

func NewCategoryService(logger *gecho.Logger, db *database.DB, cacheService *CacheService) *CategoryService {
	return &CategoryService{
		logger:       logger,
		db:           db,
		cacheService: cacheService,
	}
}

// CreateCategory validates and stores a new category
func (cs *CategoryService) CreateCategory(ctx context.Context, req *structs.CreateCategoryRequest) (category *tables.Category, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityCategory, "create", start, err) }()

	if req == nil {
		req = &structs.CreateCategoryRequest{}
	}
	if err = lib.ValidateStruct(req).OrNil(); err != nil {
		logStoreError(cs.logger, entityCategory, "create", nil, err)
		return nil, err
	}

	category, err = database.TransactionWithResult(cs.db, ctx, func(tx bun.Tx) (*tables.Category, error) {
		row := &tables.Category{Name: req.Name}
		if _, err := database.Query[tables.Category](tx).Insert(ctx, row); err != nil {
			return nil, err
		}
		return row, nil
	})
	if err != nil {
		err = fmt.Errorf("failed to create category: %w", lib.MapDBError(err))
		logStoreError(cs.logger, entityCategory, "create", nil, err)
		return nil, err
	}

	cs.logger.Debug("Category created",
		gecho.Field("id", category.ID),
		gecho.Field("duration", time.Since(start)),
	)
	return category, nil
}

// GetCategory returns the category with the given ID, reading through the cache
func (cs *CategoryService) GetCategory(ctx context.Context, id int64) (category *tables.Category, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityCategory, "get", start, err) }()

	cached, cacheErr := cs.cacheService.GetCategory(ctx, id)
	if cacheErr != nil {
		cs.logger.Warn("Failed to get category from cache", gecho.Field("error", cacheErr), gecho.Field("id", id))
	} else if cached != nil {
		return cached, nil
	}

	category, err = database.FindByID[tables.Category](cs.db, ctx, id)
	if err != nil {
		err = fmt.Errorf("failed to get category: %w", lib.MapDBError(err))
		logStoreError(cs.logger, entityCategory, "get", id, err)
		return nil, err
	}
	if category == nil {
		err = lib.NotFound(entityCategory, id)
		return nil, err
	}

	if cacheErr := cs.cacheService.SetCategory(ctx, category); cacheErr != nil {
		cs.logger.Warn("Failed to cache category", gecho.Field("error", cacheErr), gecho.Field("id", id))
	}
	return category, nil
}

// ListCategories returns one page of categories ordered by ID
func (cs *CategoryService) ListCategories(ctx context.Context, opts *structs.ListOptions) (result *database.PaginationResult[tables.Category], err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityCategory, "list", start, err) }()

	o := listOptions(opts)
	result, err = database.TransactionWithResult(cs.db, ctx, func(tx bun.Tx) (*database.PaginationResult[tables.Category], error) {
		return database.Paginate(database.Query[tables.Category](tx).OrderBy("id", database.ASC), ctx, o.Page, o.PageSize)
	})
	if err != nil {
		err = fmt.Errorf("failed to list categories: %w", lib.MapDBError(err))
		logStoreError(cs.logger, entityCategory, "list", nil, err)
		return nil, err
	}
	return result, nil
}

// UpdateCategory applies the non-nil fields of req
func (cs *CategoryService) UpdateCategory(ctx context.Context, id int64, req *structs.UpdateCategoryRequest) (category *tables.Category, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityCategory, "update", start, err) }()

	if req == nil {
		req = &structs.UpdateCategoryRequest{}
	}
	if err = lib.ValidateStruct(req).OrNil(); err != nil {
		logStoreError(cs.logger, entityCategory, "update", id, err)
		return nil, err
	}

	// Cached products embed their category
	var productIDs []int64
	category, err = database.TransactionWithResult(cs.db, ctx, func(tx bun.Tx) (*tables.Category, error) {
		current, err := database.FindByID[tables.Category](tx, ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, lib.NotFound(entityCategory, id)
		}

		if req.Name != nil {
			current.Name = *req.Name
		}
		if _, err := tx.NewUpdate().Model(current).WherePK().Exec(ctx); err != nil {
			return nil, err
		}

		productIDs, err = database.Pluck[tables.Product, int64](ctx,
			database.Query[tables.Product](tx).Where("category_id", id), "id")
		return current, err
	})
	if err != nil {
		err = fmt.Errorf("failed to update category: %w", lib.MapDBError(err))
		logStoreError(cs.logger, entityCategory, "update", id, err)
		return nil, err
	}

	cs.cacheService.Forget(ctx, []int64{id}, productIDs)
	cs.logger.Debug("Category updated", gecho.Field("id", id), gecho.Field("duration", time.Since(start)))
	return category, nil
}

// DeleteCategory removes the category together with its products and their orders
func (cs *CategoryService) DeleteCategory(ctx context.Context, id int64) (result *DeleteResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityCategory, "delete", start, err) }()

	var productIDs []int64
	result, err = database.TransactionWithResult(cs.db, ctx, func(tx bun.Tx) (*DeleteResult, error) {
		res, ids, err := deleteCategoryTx(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if res.Categories == 0 {
			return nil, lib.NotFound(entityCategory, id)
		}
		productIDs = ids
		return res, nil
	})
	if err != nil {
		err = fmt.Errorf("failed to delete category: %w", lib.MapDBError(err))
		logStoreError(cs.logger, entityCategory, "delete", id, err)
		return nil, err
	}

	cs.cacheService.Forget(ctx, []int64{id}, productIDs)
	cs.logger.Info("Category deleted",
		gecho.Field("id", id),
		gecho.Field("products", result.Products),
		gecho.Field("orders", result.Orders),
	)
	return result, nil
}
