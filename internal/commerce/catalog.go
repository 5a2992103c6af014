package commerce

import (
	"context"

	"storefront-service/internal/models"
)

// Category is a catalog category as exposed by the commerce API
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProductQuery selects which products ListProducts fetches
type ProductQuery struct {
	Search   string
	Category string
	PageSize int
}

type productsData struct {
	Products struct {
		Items []rawProduct `json:"items"`
	} `json:"products"`
}

// ListProducts fetches products matching the query. An empty query returns
// the default listing the API serves for an empty search.
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	vars := map[string]any{"search": q.Search}
	if q.PageSize > 0 {
		vars["pageSize"] = q.PageSize
	}
	if q.Category != "" {
		vars["filter"] = map[string]any{
			"category_name": map[string]string{"eq": q.Category},
		}
	}

	var data productsData
	if err := c.do(ctx, "ListProducts", queryProducts, vars, "", &data); err != nil {
		return nil, err
	}
	return mapProducts(data.Products.Items, q.Category), nil
}

// SearchSuggestions returns a short list of products for type-ahead search
func (c *Client) SearchSuggestions(ctx context.Context, search string) ([]models.Product, error) {
	var data productsData
	vars := map[string]any{"search": search}
	if err := c.do(ctx, "SearchSuggestions", querySearchSuggestions, vars, "", &data); err != nil {
		return nil, err
	}
	return mapProducts(data.Products.Items, ""), nil
}

// ListCategories fetches the category tree's top level
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var data struct {
		Categories struct {
			Items []struct {
				ID          int64  `json:"id"`
				Name        string `json:"name"`
				Description string `json:"description"`
			} `json:"items"`
		} `json:"categories"`
	}
	if err := c.do(ctx, "ListCategories", queryCategories, nil, "", &data); err != nil {
		return nil, err
	}

	categories := make([]Category, 0, len(data.Categories.Items))
	for _, item := range data.Categories.Items {
		if item.Name == "" {
			continue
		}
		categories = append(categories, Category{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
		})
	}
	return categories, nil
}
