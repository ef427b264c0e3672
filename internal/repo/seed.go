package repo

import (
	"context"
	"fmt"

	"github.com/hamed0406/uptimatum/internal/domain"
)

type demoPage struct {
	page      domain.Page
	endpoints []domain.Endpoint
}

func demoData() []demoPage {
	ep := func(name, url string) domain.Endpoint {
		return domain.Endpoint{
			Name:     name,
			URL:      url,
			Method:   domain.DefaultMethod,
			Interval: domain.DefaultInterval,
			Timeout:  domain.DefaultTimeout,
			Active:   true,
		}
	}
	return []demoPage{
		{
			page: domain.Page{Slug: "demo", Name: "Uptimatum Demo"},
			endpoints: []domain.Endpoint{
				ep("Google", "https://www.google.com"),
				ep("GitHub", "https://github.com"),
			},
		},
		{
			page: domain.Page{Slug: "production", Name: "Production Services"},
			endpoints: []domain.Endpoint{
				ep("JSONPlaceholder API", "https://jsonplaceholder.typicode.com/posts/1"),
			},
		},
	}
}

// SeedDemo creates the demo pages and endpoints when no page exists yet.
// It reports whether anything was written.
func SeedDemo(ctx context.Context, pages PageStore, endpoints EndpointStore) (bool, error) {
	existing, err := pages.ListPages(ctx)
	if err != nil {
		return false, fmt.Errorf("list pages: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}
	for _, d := range demoData() {
		p := d.page
		if err := pages.CreatePage(ctx, &p); err != nil {
			return false, fmt.Errorf("seed page %s: %w", p.Slug, err)
		}
		for _, e := range d.endpoints {
			e.PageID = p.ID
			if err := endpoints.CreateEndpoint(ctx, &e); err != nil {
				return false, fmt.Errorf("seed endpoint %s: %w", e.Name, err)
			}
		}
	}
	return true, nil
}
