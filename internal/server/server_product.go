package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"duoduo-bargain/internal/domain/entity"
	"duoduo-bargain/internal/domain/service/product"
	"duoduo-bargain/internal/domain/value"
	"duoduo-bargain/pkg/contextx"
	"duoduo-bargain/pkg/httpx/reply"
	"duoduo-bargain/pkg/httpx/req"
	"duoduo-bargain/pkg/rest"
)

type productService interface {
	Create(ctx context.Context, input product.CreateInput) (*entity.Product, error)
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	ListActive(ctx context.Context) ([]entity.Product, error)
	ListMine(ctx context.Context, publisherID string, status value.ProductStatus) ([]entity.Product, error)
	Update(ctx context.Context, id, callerID string, input product.UpdateInput) (*entity.Product, error)
	Delete(ctx context.Context, id, callerID string) error
	ExpireOverdue(ctx context.Context) (int, error)
}

type ProductServer struct {
	products productService
}

func NewProductServer(products productService) ProductServer {
	return ProductServer{
		products: products,
	}
}

func (s ProductServer) postV1Product(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	publisherID, err := contextx.SecondMeIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.SecondMeIDFromContext: %w", err)
	}

	var request rest.CreateProductRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	created, err := s.products.Create(ctx, product.CreateInput{
		Title:        request.Title,
		Description:  request.Description,
		PublishPrice: request.PublishPrice,
		ImageURL:     request.ImageURL,
		PublisherID:  publisherID.String(),
		Category:     request.Category,
		DurationDays: request.DurationDays,
	})
	if err != nil {
		return fmt.Errorf("products.Create: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTProduct(*created))

	return nil
}

func (s ProductServer) getV1Products(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	products, err := s.products.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("products.ListActive: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTProducts(products))

	return nil
}

func (s ProductServer) getV1Product(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	found, err := s.products.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		return fmt.Errorf("products.GetByID: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTProduct(*found))

	return nil
}

func (s ProductServer) getV1MyProducts(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	publisherID, err := contextx.SecondMeIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.SecondMeIDFromContext: %w", err)
	}

	// An empty status means every non-deleted listing.
	status := value.ProductStatus(r.URL.Query().Get("status"))

	products, err := s.products.ListMine(ctx, publisherID.String(), status)
	if err != nil {
		return fmt.Errorf("products.ListMine: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTProducts(products))

	return nil
}

func (s ProductServer) putV1Product(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	callerID, err := contextx.SecondMeIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.SecondMeIDFromContext: %w", err)
	}

	var request rest.UpdateProductRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	updated, err := s.products.Update(ctx, chi.URLParam(r, "id"), callerID.String(), product.UpdateInput{
		Title:        request.Title,
		Description:  request.Description,
		PublishPrice: request.PublishPrice,
		ImageURL:     request.ImageURL,
		Category:     request.Category,
		DurationDays: request.DurationDays,
	})
	if err != nil {
		return fmt.Errorf("products.Update: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTProduct(*updated))

	return nil
}

func (s ProductServer) deleteV1Product(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	callerID, err := contextx.SecondMeIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.SecondMeIDFromContext: %w", err)
	}

	if err := s.products.Delete(ctx, chi.URLParam(r, "id"), callerID.String()); err != nil {
		return fmt.Errorf("products.Delete: %w", err)
	}

	reply.OK(w)

	return nil
}

// postV1ProductsCleanup sweeps listings whose window already closed. The
// scheduled per-product tasks normally handle this; the endpoint exists for
// catch-up after downtime.
func (s ProductServer) postV1ProductsCleanup(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	expired, err := s.products.ExpireOverdue(ctx)
	if err != nil {
		return fmt.Errorf("products.ExpireOverdue: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, map[string]int{"expired": expired})

	return nil
}
