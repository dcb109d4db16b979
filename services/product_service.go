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

type ProductService struct {
	logger       *gecho.Logger
	config       *structs.Config
	db           *database.DB
	cacheService *CacheService
}

func NewProductService(logger *gecho.Logger, cfg *structs.Config, db *database.DB, cacheService *CacheService) *ProductService {
	return &ProductService{
		logger:       logger,
		config:       cfg,
		db:           db,
		cacheService: cacheService,
	}
}

func (ps *ProductService) uploadDir() string {
	if ps.config == nil || ps.config.Catalog == nil || ps.config.Catalog.ImageUploadDir == "" {
		return "uploads/product/"
	}
	return ps.config.Catalog.ImageUploadDir
}

// NewImageKey returns the object key an uploaded product image should be stored under
func (ps *ProductService) NewImageKey(filename string) string {
	return lib.NewImageKey(filename, ps.uploadDir())
}

func (ps *ProductService) normalizeImage(ref string, ve *lib.ValidationError) string {
	image, err := lib.NormalizeImageRef(ref, ps.uploadDir())
	if err != nil {
		ve.Add("image", "must be a file under "+ps.uploadDir())
	}
	return image
}

func findCategoryTx(ctx context.Context, tx bun.Tx, id int64) (*tables.Category, error) {
	category, err := database.FindByID[tables.Category](tx, ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, lib.MissingReference("category_id", id)
	}
	return category, nil
}

// CreateProduct validates and stores a new product in an existing category
func (ps *ProductService) CreateProduct(ctx context.Context, req *structs.CreateProductRequest) (product *tables.Product, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityProduct, "create", start, err) }()

	if req == nil {
		req = &structs.CreateProductRequest{}
	}
	ve := lib.ValidateStruct(req)
	lib.CheckPrice(req.Price, "price", ve)
	image := ""
	if strings.TrimSpace(req.Image) != "" {
		image = ps.normalizeImage(req.Image, ve)
	}
	if err = ve.OrNil(); err != nil {
		logStoreError(ps.logger, entityProduct, "create", nil, err)
		return nil, err
	}

	template := tables.Product{
		Name:        req.Name,
		Price:       req.Price.Round(lib.PriceDecimalPlaces),
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Image:       image,
	}
	product, err = database.TransactionWithResult(ps.db, ctx, func(tx bun.Tx) (*tables.Product, error) {
		category, err := findCategoryTx(ctx, tx, req.CategoryID)
		if err != nil {
			return nil, err
		}
		row := template
		if _, err := database.Query[tables.Product](tx).Insert(ctx, &row); err != nil {
			return nil, err
		}
		row.Category = category
		return &row, nil
	})
	if err != nil {
		err = fmt.Errorf("failed to create product: %w", lib.MapDBError(err))
		logStoreError(ps.logger, entityProduct, "create", nil, err)
		return nil, err
	}

	ps.logger.Debug("Product created",
		gecho.Field("id", product.ID),
		gecho.Field("category_id", product.CategoryID),
		gecho.Field("duration", time.Since(start)),
	)
	return product, nil
}

// GetProduct returns the product with its category, reading through the cache
func (ps *ProductService) GetProduct(ctx context.Context, id int64) (product *tables.Product, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityProduct, "get", start, err) }()

	cached, cacheErr := ps.cacheService.GetProduct(ctx, id)
	if cacheErr != nil {
		ps.logger.Warn("Failed to get product from cache", gecho.Field("error", cacheErr), gecho.Field("id", id))
	} else if cached != nil {
		ps.logger.Debug("Product cache hit", gecho.Field("id", id))
		return cached, nil
	}

	product, err = database.Query[tables.Product](ps.db).Where("id", id).With("Category").First(ctx)
	if err != nil {
		err = fmt.Errorf("failed to get product: %w", lib.MapDBError(err))
		logStoreError(ps.logger, entityProduct, "get", id, err)
		return nil, err
	}
	if product == nil {
		err = lib.NotFound(entityProduct, id)
		return nil, err
	}

	if cacheErr := ps.cacheService.SetProduct(ctx, product); cacheErr != nil {
		ps.logger.Warn("Failed to cache product", gecho.Field("error", cacheErr), gecho.Field("id", id))
	}
	return product, nil
}

func (ps *ProductService) validateListOptions(opts *structs.ProductListOptions) error {
	ve := &lib.ValidationError{}
	if opts.MinPrice != nil && opts.MinPrice.IsNegative() {
		ve.Add("min_price", "must be greater than or equal to 0.00")
	}
	if opts.MaxPrice != nil && opts.MaxPrice.IsNegative() {
		ve.Add("max_price", "must be greater than or equal to 0.00")
	}
	if opts.MinPrice != nil && opts.MaxPrice != nil && opts.MinPrice.GreaterThan(*opts.MaxPrice) {
		ve.Add("min_price", "must not exceed max_price")
	}
	return ve.OrNil()
}

// ListProducts returns one page of products matching the filters of opts, ordered by ID
func (ps *ProductService) ListProducts(ctx context.Context, opts *structs.ProductListOptions) (result *database.PaginationResult[tables.Product], err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityProduct, "list", start, err) }()

	if opts == nil {
		opts = &structs.ProductListOptions{}
	}
	if err = ps.validateListOptions(opts); err != nil {
		logStoreError(ps.logger, entityProduct, "list", nil, err)
		return nil, err
	}

	result, err = database.TransactionWithResult(ps.db, ctx, func(tx bun.Tx) (*database.PaginationResult[tables.Product], error) {
		query := database.Query[tables.Product](tx).With("Category")
		if opts.CategoryID != nil {
			query = query.Where("category_id", *opts.CategoryID)
		}
		if opts.MinPrice != nil {
			query = query.WhereOp("price", ">=", *opts.MinPrice)
		}
		if opts.MaxPrice != nil {
			query = query.WhereOp("price", "<=", *opts.MaxPrice)
		}
		if term := strings.TrimSpace(opts.SearchTerm); term != "" {
			query = query.WhereLike("name", term)
		}
		return database.Paginate(query.OrderBy("id", database.ASC), ctx, opts.Page, opts.PageSize)
	})
	if err != nil {
		err = fmt.Errorf("failed to list products: %w", lib.MapDBError(err))
		logStoreError(ps.logger, entityProduct, "list", nil, err)
		return nil, err
	}

	ps.logger.Debug("Products fetched successfully",
		gecho.Field("count", len(result.Data)),
		gecho.Field("total", result.Pagination.Total),
		gecho.Field("page", result.Pagination.Page),
		gecho.Field("duration", time.Since(start)),
	)
	return result, nil
}

// UpdateProduct applies the non-nil fields of req. A category change must point at an
// existing category.
func (ps *ProductService) UpdateProduct(ctx context.Context, id int64, req *structs.UpdateProductRequest) (product *tables.Product, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityProduct, "update", start, err) }()

	if req == nil {
		req = &structs.UpdateProductRequest{}
	}
	ve := lib.ValidateStruct(req)
	if req.Price != nil {
		lib.CheckPrice(*req.Price, "price", ve)
	}
	var image *string
	if req.Image != nil && strings.TrimSpace(*req.Image) != "" {
		normalized := ps.normalizeImage(*req.Image, ve)
		image = &normalized
	}
	if err = ve.OrNil(); err != nil {
		logStoreError(ps.logger, entityProduct, "update", id, err)
		return nil, err
	}

	product, err = database.TransactionWithResult(ps.db, ctx, func(tx bun.Tx) (*tables.Product, error) {
		current, err := database.FindByID[tables.Product](tx, ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, lib.NotFound(entityProduct, id)
		}

		if req.Name != nil {
			current.Name = *req.Name
		}
		if req.Price != nil {
			current.Price = req.Price.Round(lib.PriceDecimalPlaces)
		}
		if req.ClearDescription {
			current.Description = nil
		} else if req.Description != nil {
			current.Description = req.Description
		}
		if image != nil {
			current.Image = *image
		}

		categoryID := current.CategoryID
		if req.CategoryID != nil {
			categoryID = *req.CategoryID
		}
		category, err := findCategoryTx(ctx, tx, categoryID)
		if err != nil {
			return nil, err
		}
		current.CategoryID = categoryID

		if _, err := tx.NewUpdate().Model(current).WherePK().Exec(ctx); err != nil {
			return nil, err
		}
		current.Category = category
		return current, nil
	})
	if err != nil {
		err = fmt.Errorf("failed to update product: %w", lib.MapDBError(err))
		logStoreError(ps.logger, entityProduct, "update", id, err)
		return nil, err
	}

	ps.cacheService.Forget(ctx, nil, []int64{id})
	ps.logger.Debug("Product updated", gecho.Field("id", id), gecho.Field("duration", time.Since(start)))
	return product, nil
}

// DeleteProduct removes the product and its orders
func (ps *ProductService) DeleteProduct(ctx context.Context, id int64) (result *DeleteResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(entityProduct, "delete", start, err) }()

	result, err = database.TransactionWithResult(ps.db, ctx, func(tx bun.Tx) (*DeleteResult, error) {
		products, orders, err := deleteProductsTx(ctx, tx, []int64{id})
		if err != nil {
			return nil, err
		}
		if products == 0 {
			return nil, lib.NotFound(entityProduct, id)
		}
		return &DeleteResult{Products: products, Orders: orders}, nil
	})
	if err != nil {
		err = fmt.Errorf("failed to delete product: %w", lib.MapDBError(err))
		logStoreError(ps.logger, entityProduct, "delete", id, err)
		return nil, err
	}

	ps.cacheService.Forget(ctx, nil, []int64{id})
	ps.logger.Info("Product deleted", gecho.Field("id", id), gecho.Field("orders", result.Orders))
	return result, nil
}
