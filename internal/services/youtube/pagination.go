package youtube

import (
	"context"
	"fmt"
)

// maxPageSize is the largest maxResults the list endpoints accept.
const maxPageSize = 50

// Page is one response of a paginated list endpoint.
type Page[T any] struct {
	Items         []T
	NextPageToken string
}

// PageFetcher loads the page identified by token. The empty token selects the
// first page.
type PageFetcher[T any] func(ctx context.Context, token string, pageSize int) (Page[T], error)

// Collect follows page tokens until limit items are gathered or the listing
// ends. A limit <= 0 collects every item.
func Collect[T any](ctx context.Context, limit int, fetch PageFetcher[T]) ([]T, error) {
	var (
		items []T
		token string
		seen  = make(map[string]struct{})
	)
	for {
		if err := ctx.Err(); err != nil {
			return items, err
		}
		pageSize := maxPageSize
		if limit > 0 {
			pageSize = min(maxPageSize, limit-len(items))
		}
		page, err := fetch(ctx, token, pageSize)
		if err != nil {
			return items, err
		}
		items = append(items, page.Items...)
		if limit > 0 && len(items) >= limit {
			return items[:limit], nil
		}
		if page.NextPageToken == "" || len(page.Items) == 0 {
			return items, nil
		}
		if _, dup := seen[page.NextPageToken]; dup {
			return items, fmt.Errorf("pagination loop on token %q", page.NextPageToken)
		}
		seen[page.NextPageToken] = struct{}{}
		token = page.NextPageToken
	}
}
