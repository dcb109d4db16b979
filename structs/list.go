package structs

// ListOptions carries pagination for list queries. Zero values fall back to page 1 and
// the default page size.
type ListOptions struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}
