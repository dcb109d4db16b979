package services

import (
	"storefront_server/database"
	"storefront_server/structs"

	"github.com/MonkyMars/gecho"
)

type ServiceManager struct {
	CacheService    *CacheService
	HealthService   *HealthService
	CategoryService *CategoryService
	CustomerService *CustomerService
	ProductService  *ProductService
	OrderService    *OrderService
}

func NewServiceManager(logger *gecho.Logger, cfg *structs.Config, db *database.DB) *ServiceManager {
	cacheService := NewCacheService(logger, cfg)
	healthService := NewHealthService(logger, db, cacheService)
	categoryService := NewCategoryService(logger, db, cacheService)
	customerService := NewCustomerService(logger, cfg, db)
	productService := NewProductService(logger, cfg, db, cacheService)
	orderService := NewOrderService(logger, cfg, db)

	return &ServiceManager{
		CacheService:    cacheService,
		HealthService:   healthService,
		CategoryService: categoryService,
		CustomerService: customerService,
		ProductService:  productService,
		OrderService:    orderService,
	}
}

// Close releases the connections held by the services
func (sm *ServiceManager) Close() error {
	return sm.CacheService.Close()
}
