package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/freshcart/freshcart-backend/pkg/db"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var imageContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type catalogStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	CountItemsInCategory(ctx context.Context, id uuid.UUID) (int64, error)

	ListItems(ctx context.Context, filters ItemListFilters, page pagination.Params) ([]models.Item, int64, error)
	FindItemByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) (*models.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	UpdateStock(ctx context.Context, id uuid.UUID, quantity int, available bool) error
	SetImageURL(ctx context.Context, id uuid.UUID, imageURL string) error
}

type objectStore interface {
	UploadObject(ctx context.Context, bucket, object, contentType string, body io.Reader) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) error
}

// Service exposes catalog reads for shoppers and writes for admins.
type Service interface {
	ListCategories(ctx context.Context) ([]CategoryView, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*CategoryView, error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryView, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryView, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListItems(ctx context.Context, filters ItemListFilters, page pagination.Params) (*ItemListView, error)
	GetItem(ctx context.Context, id uuid.UUID) (*ItemView, error)
	CreateItem(ctx context.Context, req CreateItemRequest) (*ItemView, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req UpdateItemRequest) (*ItemView, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	UpdateStock(ctx context.Context, id uuid.UUID, req UpdateStockRequest) (*ItemView, error)
	UploadItemImage(ctx context.Context, id uuid.UUID, contentType string, body io.Reader) (*ItemView, error)
}

type service struct {
	repo    catalogStore
	objects objectStore
}

// ServiceParams bundles the catalog service dependencies.
type ServiceParams struct {
	Repo    catalogStore
	Objects objectStore
}

// NewService builds the catalog service. Objects may be nil when image
// uploads are disabled.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{
		repo:    params.Repo,
		objects: params.Objects,
	}, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryView, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	views := make([]CategoryView, 0, len(categories))
	for i := range categories {
		views = append(views, categoryView(&categories[i]))
	}
	return views, nil
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*CategoryView, error) {
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category not found", "load category")
	}
	view := categoryView(category)
	return &view, nil
}

func (s *service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryView, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	category, err := s.repo.CreateCategory(ctx, &models.Category{
		Name:         name,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	view := categoryView(category)
	return &view, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryView, error) {
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category not found", "load category")
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name cannot be empty")
		}
		category.Name = name
	}
	if req.DisplayOrder != nil {
		category.DisplayOrder = *req.DisplayOrder
	}
	category, err = s.repo.UpdateCategory(ctx, category)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	view := categoryView(category)
	return &view, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindCategoryByID(ctx, id); err != nil {
		return notFoundOr(err, "category not found", "load category")
	}
	count, err := s.repo.CountItemsInCategory(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category items")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has items")
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

func (s *service) ListItems(ctx context.Context, filters ItemListFilters, page pagination.Params) (*ItemListView, error) {
	page = page.Normalize()
	items, total, err := s.repo.ListItems(ctx, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	views := make([]ItemView, 0, len(items))
	for i := range items {
		views = append(views, itemView(&items[i]))
	}
	return &ItemListView{
		Items: views,
		Page: pagination.Page{
			Limit:  page.Limit,
			Offset: page.Offset,
			Total:  total,
		},
	}, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*ItemView, error) {
	item, err := s.repo.FindItemByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "item not found", "load item")
	}
	view := itemView(item)
	return &view, nil
}

func (s *service) CreateItem(ctx context.Context, req CreateItemRequest) (*ItemView, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if req.Price <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if req.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}
	if req.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *req.CategoryID); err != nil {
			return nil, notFoundOr(err, "category not found", "load category")
		}
	}

	available := req.StockQuantity > 0
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item, err := s.repo.CreateItem(ctx, &models.Item{
		CategoryID:    req.CategoryID,
		Name:          name,
		Description:   req.Description,
		Price:         decimal.NewFromFloat(req.Price).Round(2),
		StockQuantity: req.StockQuantity,
		IsAvailable:   available,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}
	view := itemView(item)
	return &view, nil
}

func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, req UpdateItemRequest) (*ItemView, error) {
	item, err := s.repo.FindItemByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "item not found", "load item")
	}

	if req.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *req.CategoryID); err != nil {
			return nil, notFoundOr(err, "category not found", "load category")
		}
		item.CategoryID = req.CategoryID
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name cannot be empty")
		}
		item.Name = name
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		item.Price = decimal.NewFromFloat(*req.Price).Round(2)
	}
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
		}
		item.StockQuantity = *req.StockQuantity
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	item, err = s.repo.UpdateItem(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
	}
	view := itemView(item)
	return &view, nil
}

func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindItemByID(ctx, id); err != nil {
		return notFoundOr(err, "item not found", "load item")
	}
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete item")
	}
	return nil
}

func (s *service) UpdateStock(ctx context.Context, id uuid.UUID, req UpdateStockRequest) (*ItemView, error) {
	if req.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}
	if err := s.repo.UpdateStock(ctx, id, req.StockQuantity, req.StockQuantity > 0); err != nil {
		return nil, notFoundOr(err, "item not found", "update stock")
	}
	return s.GetItem(ctx, id)
}

func (s *service) UploadItemImage(ctx context.Context, id uuid.UUID, contentType string, body io.Reader) (*ItemView, error) {
	if s.objects == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "image storage unavailable")
	}
	ext, ok := imageContentTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported image type")
	}
	item, err := s.repo.FindItemByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "item not found", "load item")
	}

	object := path.Join("items", id.String()+ext)
	publicURL, err := s.objects.UploadObject(ctx, "", object, contentType, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
	}
	if item.ImageURL != nil {
		if prior := objectKeyFromURL(*item.ImageURL); prior != "" && prior != object {
			// Best effort: a stale object must not fail the upload.
			_ = s.objects.DeleteObject(ctx, "", prior)
		}
	}
	if err := s.repo.SetImageURL(ctx, id, publicURL); err != nil {
		return nil, notFoundOr(err, "item not found", "store image url")
	}
	return s.GetItem(ctx, id)
}

// objectKeyFromURL recovers the bucket-relative object key from a stored
// public URL ("https://storage.googleapis.com/<bucket>/<key>").
func objectKeyFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := strings.TrimPrefix(u.Path, "/")
	i := strings.IndexByte(p, '/')
	if i < 0 {
		return ""
	}
	key, err := url.PathUnescape(p[i+1:])
	if err != nil {
		return ""
	}
	return key
}

func notFoundOr(err error, notFoundMsg, wrapMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, wrapMsg)
}
