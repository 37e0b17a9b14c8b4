package response

// PageResponse wraps one page of a list endpoint.
type PageResponse[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
	LastPage int `json:"last_page"`
}

// NewPageResponse never emits a null items array. LastPage is at least 1.
func NewPageResponse[T any](items []T, page, pageSize, total int) PageResponse[T] {
	if items == nil {
		items = make([]T, 0)
	}

	lastPage := 1
	if pageSize > 0 && total > 0 {
		lastPage = (total + pageSize - 1) / pageSize
	}

	return PageResponse[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		LastPage: lastPage,
	}
}
