package services

import (
	"storefront_server/lib"
	"storefront_server/structs"

	"github.com/MonkyMars/gecho"
)

// Entity labels used in logs and metrics.
const (
	entityCategory = "category"
	entityCustomer = "customer"
	entityProduct  = "product"
	entityOrder    = "order"
)

// DeleteResult counts the rows removed by a delete, including cascaded rows.
type DeleteResult struct {
	Categories int `json:"categories,omitempty"`
	Customers  int `json:"customers,omitempty"`
	Products   int `json:"products,omitempty"`
	Orders     int `json:"orders,omitempty"`
}

// logStoreError logs caller mistakes at Warn and storage failures at Error.
func logStoreError(logger *gecho.Logger, entity, operation string, id any, err error) {
	if lib.IsClientError(err) {
		logger.Warn("Store operation rejected",
			gecho.Field("entity", entity),
			gecho.Field("operation", operation),
			gecho.Field("id", id),
			gecho.Field("error", err),
		)
		return
	}
	logger.Error("Store operation failed",
		gecho.Field("entity", entity),
		gecho.Field("operation", operation),
		gecho.Field("id", id),
		gecho.Field("error", err),
	)
}

func listOptions(opts *structs.ListOptions) structs.ListOptions {
	if opts == nil {
		return structs.ListOptions{}
	}
	return *opts
}

func phoneRegion(cfg *structs.Config) string {
	if cfg == nil || cfg.Catalog == nil {
		return ""
	}
	return cfg.Catalog.DefaultPhoneRegion
}
