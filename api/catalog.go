package api

import (
	"context"

	"github.com/konturpay/kontur-go/types"
)

const catalogBase = "/services"

// CatalogService loads the tree of services offered to the client.
type CatalogService struct {
	api Requester
}

func NewCatalogService(api Requester) *CatalogService {
	return &CatalogService{api: api}
}

// Tree returns the catalog subtree rooted at the given category.
func (s *CatalogService) Tree(ctx context.Context, rootCategoryID int64) (*types.Category, error) {
	var root types.Category
	err := s.api.Post(ctx, catalogBase+"/tree", map[string]int64{"rootCategoryId": rootCategoryID}, &root)
	if err != nil {
		return nil, err
	}
	return &root, nil
}
