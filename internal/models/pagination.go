package models

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Sortable order fields, as accepted in the sortBy query parameter.
const (
	OrderSortTotalAmount = "totalAmount"
	OrderSortOrderDate   = "orderDate"
	OrderSortStatus      = "status"
	OrderSortEmail       = "email"
)

// Sortable product fields.
const (
	ProductSortName      = "name"
	ProductSortPrice     = "price"
	ProductSortStock     = "stockQuantity"
	ProductSortCreatedAt = "createdAt"
)

// PageRequest is zero-based: PageNumber 0 is the first page.
type PageRequest struct {
	PageNumber int
	PageSize   int
	SortBy     string
	SortOrder  string
}

func (p PageRequest) Offset() int {
	return p.PageNumber * p.PageSize
}

type PaginatedResponse struct {
	Data       any  `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	TotalPages int  `json:"totalPages"`
	LastPage   bool `json:"lastPage"`
}

func NewPaginatedResponse(data any, total int, page PageRequest) *PaginatedResponse {
	totalPages := 0
	if page.PageSize > 0 {
		totalPages = (total + page.PageSize - 1) / page.PageSize
	}

	return &PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page.PageNumber,
		PageSize:   page.PageSize,
		TotalPages: totalPages,
		LastPage:   page.PageNumber+1 >= totalPages,
	}
}
