package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"duoduo-bargain/internal/domain"
	"duoduo-bargain/internal/domain/entity"
	"duoduo-bargain/internal/domain/service/bargain"
	"duoduo-bargain/pkg/contextx"
	"duoduo-bargain/pkg/errcodes"
	"duoduo-bargain/pkg/httpx/reply"
	"duoduo-bargain/pkg/httpx/req"
	"duoduo-bargain/pkg/logx"
	"duoduo-bargain/pkg/rest"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type bargainStore interface {
	CreateSession(ctx context.Context, session entity.BargainSession) (*entity.BargainSession, error)
	GetSession(ctx context.Context, id string) (*entity.BargainSession, error)
	ListPurchases(ctx context.Context, bargainerID string) ([]entity.BargainSession, error)
}

type negotiator interface {
	Run(ctx context.Context, sessionID string, sink bargain.EventSink) error
}

type productReader interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}

type BargainServer struct {
	store      bargainStore
	negotiator negotiator
	products   productReader
}

func NewBargainServer(store bargainStore, negotiator negotiator, products productReader) BargainServer {
	return BargainServer{
		store:      store,
		negotiator: negotiator,
		products:   products,
	}
}

func (s BargainServer) postV1Bargain(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	bargainerID, err := contextx.SecondMeIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.SecondMeIDFromContext: %w", err)
	}

	var request rest.CreateBargainRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	if request.TargetPrice >= request.PublishPrice {
		return domain.NewError(errcodes.InvalidTargetPrice, "target price must be below the publish price")
	}

	session, err := s.store.CreateSession(ctx, entity.BargainSession{
		ProductID:    request.ProductID,
		PublisherID:  request.PublisherID,
		BargainerID:  bargainerID.String(),
		PublishPrice: request.PublishPrice,
		TargetPrice:  request.TargetPrice,
	})
	if err != nil {
		return fmt.Errorf("store.CreateSession: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, rest.CreateBargainResponse{
		SessionID: session.ID,
		Session:   newRESTSession(*session),
	})

	return nil
}

func (s BargainServer) getV1Bargain(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	session, err := s.store.GetSession(ctx, chi.URLParam(r, "id"))
	if err != nil {
		return fmt.Errorf("store.GetSession: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTSession(*session))

	return nil
}

// getV1BargainStream drives the whole negotiation over one SSE response.
// Once the stream is open errors can no longer change the status code; they
// surface as error frames instead.
func (s BargainServer) getV1BargainStream(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	sessionID := chi.URLParam(r, "id")

	// Resolve before opening the stream so an unknown session is still a
	// regular 404 response.
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return fmt.Errorf("store.GetSession: %w", err)
	}

	sink, err := newSSEWriter(w)
	if err != nil {
		return err
	}

	if err := s.negotiator.Run(ctx, sessionID, sink); err != nil {
		logger(ctx).Warn("negotiation run stopped", "session_id", sessionID, logx.Error(err))
	}

	return nil
}

func (s BargainServer) getV1MyPurchases(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	bargainerID, err := contextx.SecondMeIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.SecondMeIDFromContext: %w", err)
	}

	sessions, err := s.store.ListPurchases(ctx, bargainerID.String())
	if err != nil {
		return fmt.Errorf("store.ListPurchases: %w", err)
	}

	purchases := make([]rest.Purchase, 0, len(sessions))

	for _, session := range sessions {
		purchase := rest.Purchase{Session: newRESTSession(session)}

		product, err := s.products.GetByID(ctx, session.ProductID)
		if err != nil {
			// The product may have been removed since; keep the purchase
			// visible with what the session still knows.
			logger(ctx).Warn("purchase product lookup failed", "product_id", session.ProductID, logx.Error(err))

			purchase.Product = rest.Product{ID: session.ProductID, PublishPrice: session.PublishPrice}
		} else {
			purchase.Product = newRESTProduct(*product)
		}

		purchases = append(purchases, purchase)
	}

	reply.JSON(ctx, w, http.StatusOK, purchases)

	return nil
}
