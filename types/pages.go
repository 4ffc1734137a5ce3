package types

// Pagination is the metadata block every paginated endpoint returns.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Page is one fetched slice of a paginated collection.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Paged is every page fetched so far for a collection, in fetch order.
type Paged[T any] struct {
	Pages []Page[T] `json:"pages"`
}

// NextPage returns the page number a "load more" should request, or
// false when the collection is exhausted.
func (p Paged[T]) NextPage() (int, bool) {
	if len(p.Pages) == 0 {
		return 1, true
	}

	last := p.Pages[len(p.Pages)-1].Pagination
	if last.Page >= last.TotalPages {
		return 0, false
	}

	return last.Page + 1, true
}

// Flatten concatenates all pages into one display list, dropping
// duplicate ids and keeping each item at its first-seen position. A
// refetch of page 1 racing a "load more" can redeliver items that are
// already present, so this cannot be a plain append.
func Flatten[T any](p Paged[T], id func(T) string) []T {
	seen := make(map[string]struct{})
	var out []T

	for _, page := range p.Pages {
		for _, item := range page.Items {
			key := id(item)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}

	return out
}
