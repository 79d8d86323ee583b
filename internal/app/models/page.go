package models

// PageRequest selects a zero-based page of a result set.
type PageRequest struct {
	Page int
	Size int
}

// Offset returns the number of rows to skip. Requests built by
// helpers.NewPageRequest never overflow it.
func (p PageRequest) Offset() uint64 {
	return uint64(p.Page) * uint64(p.Size)
}

// Page is the envelope returned by every paginated endpoint.
type Page[T any] struct {
	Content          []T   `json:"content"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	PageNumber       int   `json:"pageNumber"`
	PageSize         int   `json:"pageSize"`
	NumberOfElements int   `json:"numberOfElements"`
	First            bool  `json:"first"`
	Last             bool  `json:"last"`
	Empty            bool  `json:"empty"`
}

// NewPage wraps one slice of results with its paging metadata.
func NewPage[T any](content []T, totalElements int64, req PageRequest) *Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((totalElements + int64(req.Size) - 1) / int64(req.Size))
	}
	return &Page[T]{
		Content:          content,
		TotalElements:    totalElements,
		TotalPages:       totalPages,
		PageNumber:       req.Page,
		PageSize:         req.Size,
		NumberOfElements: len(content),
		First:            req.Page == 0,
		Last:             req.Page >= totalPages-1,
		Empty:            len(content) == 0,
	}
}

// MapPage converts the content of a page while keeping its metadata.
func MapPage[T, U any](p *Page[T], fn func(T) U) *Page[U] {
	out := make([]U, 0, len(p.Content))
	for _, v := range p.Content {
		out = append(out, fn(v))
	}
	return &Page[U]{
		Content:          out,
		TotalElements:    p.TotalElements,
		TotalPages:       p.TotalPages,
		PageNumber:       p.PageNumber,
		PageSize:         p.PageSize,
		NumberOfElements: p.NumberOfElements,
		First:            p.First,
		Last:             p.Last,
		Empty:            p.Empty,
	}
}
