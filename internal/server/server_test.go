package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"duoduo-bargain/internal/domain"
	"duoduo-bargain/internal/domain/entity"
	"duoduo-bargain/internal/domain/service/bargain"
	"duoduo-bargain/internal/domain/service/product"
	"duoduo-bargain/internal/domain/value"
	"duoduo-bargain/internal/infrastructure/secondme"
	"duoduo-bargain/internal/infrastructure/sessionstore"
	"duoduo-bargain/pkg/errcodes"
	"duoduo-bargain/pkg/rest"
)

type fakeBargainStore struct {
	sessions map[string]entity.BargainSession
}

func (f *fakeBargainStore) CreateSession(_ context.Context, session entity.BargainSession) (*entity.BargainSession, error) {
	session.ID = "sess-1"
	session.CurrentPrice = session.PublishPrice
	session.Status = value.BargainNegotiating
	session.CreatedAt = time.Now()
	f.sessions[session.ID] = session

	return &session, nil
}

func (f *fakeBargainStore) GetSession(_ context.Context, id string) (*entity.BargainSession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, domain.NewError(errcodes.SessionNotFound, "session not found")
	}

	return &session, nil
}

func (f *fakeBargainStore) ListPurchases(_ context.Context, bargainerID string) ([]entity.BargainSession, error) {
	var out []entity.BargainSession
	for _, s := range f.sessions {
		if s.BargainerID == bargainerID && s.Status == value.BargainCompleted {
			out = append(out, s)
		}
	}

	return out, nil
}

// fakeNegotiator replays a fixed event script into the sink.
type fakeNegotiator struct {
	events []bargain.Event
	err    error
}

func (f *fakeNegotiator) Run(ctx context.Context, _ string, sink bargain.EventSink) error {
	for _, event := range f.events {
		if err := sink.Send(ctx, event); err != nil {
			return err
		}
	}

	return f.err
}

type fakeProducts struct {
	products map[string]entity.Product
}

func (f *fakeProducts) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, domain.NewError(errcodes.ProductNotFound, "product not found")
	}

	return &p, nil
}

type fakeUsers struct {
	users map[string]entity.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.NewError(errcodes.UserNotFound, "user not found")
	}

	return &u, nil
}

func (f *fakeUsers) Upsert(_ context.Context, user entity.User) (*entity.User, error) {
	user.ID = "user-" + user.SecondMeID
	user.CreatedAt = time.Now()
	f.users[user.ID] = user

	return &user, nil
}

type fakeOAuth struct{}

func (fakeOAuth) ExchangeCode(context.Context, string, string) (*secondme.Tokens, error) {
	return &secondme.Tokens{AccessToken: "at-1", RefreshToken: "rt-1"}, nil
}

func (fakeOAuth) UserInfo(context.Context, string) (*secondme.UserInfo, error) {
	return &secondme.UserInfo{SecondMeID: "sm-1", Name: "小明"}, nil
}

type fakeSessions struct {
	sessions map[string]sessionstore.LoginSession
}

func (f *fakeSessions) Create(_ context.Context, session sessionstore.LoginSession) (string, error) {
	sid := "sid-" + session.SecondMeID
	f.sessions[sid] = session

	return sid, nil
}

func (f *fakeSessions) Get(_ context.Context, sid string) (*sessionstore.LoginSession, error) {
	session, ok := f.sessions[sid]
	if !ok {
		return nil, domain.NewError(errcodes.Unauthorized, "login session not found")
	}

	return &session, nil
}

func (f *fakeSessions) Delete(_ context.Context, sid string) error {
	delete(f.sessions, sid)

	return nil
}

type testEnv struct {
	router     chi.Router
	store      *fakeBargainStore
	negotiator *fakeNegotiator
	sessions   *fakeSessions
	users      *fakeUsers
	products   *fakeProducts
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := &fakeBargainStore{sessions: map[string]entity.BargainSession{}}
	negotiator := &fakeNegotiator{}
	sessions := &fakeSessions{sessions: map[string]sessionstore.LoginSession{}}
	users := &fakeUsers{users: map[string]entity.User{}}
	products := &fakeProducts{products: map[string]entity.Product{}}

	repo := newMemProductRepo()
	productService := product.NewService(repo, nopScheduler{})

	srv := NewServer(
		NewAuthServer(users, fakeOAuth{}, sessions, "https://example.com/cb", "/", time.Hour, true),
		NewProductServer(productService),
		NewBargainServer(store, negotiator, products),
	)

	router := chi.NewRouter()
	srv.RegisterRoutes(router)

	return &testEnv{
		router:     router,
		store:      store,
		negotiator: negotiator,
		sessions:   sessions,
		users:      users,
		products:   products,
	}
}

func (e *testEnv) login(secondMeID string) *http.Cookie {
	sid := "sid-" + secondMeID
	e.sessions.sessions[sid] = sessionstore.LoginSession{UserID: "user-" + secondMeID, SecondMeID: secondMeID}

	return &http.Cookie{Name: sessionCookieName, Value: sid}
}

// memProductRepo backs the real product service in handler tests.
type memProductRepo struct {
	products map[string]entity.Product
	seq      int
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: map[string]entity.Product{}}
}

func (r *memProductRepo) Create(_ context.Context, p entity.Product) (*entity.Product, error) {
	r.seq++
	p.ID = "prod-" + string(rune('0'+r.seq))
	p.Status = value.ProductActive
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.products[p.ID] = p

	return &p, nil
}

func (r *memProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, domain.NewError(errcodes.ProductNotFound, "product not found")
	}

	return &p, nil
}

func (r *memProductRepo) ListActive(context.Context) ([]entity.Product, error) {
	var out []entity.Product
	for _, p := range r.products {
		if p.IsListed(time.Now()) {
			out = append(out, p)
		}
	}

	return out, nil
}

func (r *memProductRepo) ListByPublisher(_ context.Context, publisherID string, status value.ProductStatus) ([]entity.Product, error) {
	var out []entity.Product
	for _, p := range r.products {
		if p.PublisherID == publisherID && (status == "" || p.Status == status) {
			out = append(out, p)
		}
	}

	return out, nil
}

func (r *memProductRepo) Update(_ context.Context, p entity.Product) (*entity.Product, error) {
	r.products[p.ID] = p

	return &p, nil
}

func (r *memProductRepo) SetStatus(_ context.Context, id string, status value.ProductStatus) error {
	p, ok := r.products[id]
	if !ok {
		return domain.NewError(errcodes.ProductNotFound, "product not found")
	}
	p.Status = status
	r.products[id] = p

	return nil
}

func (r *memProductRepo) ExpireOverdue(context.Context) (int, error) {
	return 0, nil
}

type nopScheduler struct{}

func (nopScheduler) ScheduleExpiry(context.Context, string, time.Time) error {
	return nil
}

func TestPostV1Bargain_RequiresLogin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/bargains/", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPostV1Bargain_CreatesSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	body := `{"productId":"prod-1","publisherId":"sm-pub","publishPrice":1000,"targetPrice":700}`
	req := httptest.NewRequest(http.MethodPost, "/v1/bargains/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(env.login("sm-buyer"))

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var response rest.CreateBargainResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Equal(t, "sess-1", response.SessionID)
	require.Equal(t, "sm-buyer", response.Session.BargainerID)
	require.Equal(t, 1000, response.Session.CurrentPrice)
	require.Equal(t, "negotiating", response.Session.Status)
}

func TestPostV1Bargain_RejectsTargetAbovePublish(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	body := `{"productId":"prod-1","publisherId":"sm-pub","publishPrice":700,"targetPrice":1000}`
	req := httptest.NewRequest(http.MethodPost, "/v1/bargains/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(env.login("sm-buyer"))

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), errcodes.InvalidTargetPrice.String())
}

func TestGetV1BargainStream_UnknownSessionIs404(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/bargains/missing/stream", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestGetV1BargainStream_WritesFrames(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.store.sessions["sess-1"] = entity.BargainSession{
		ID:     "sess-1",
		Status: value.BargainNegotiating,
	}

	finalPrice := 850
	env.negotiator.events = []bargain.Event{
		bargain.StatusEvent{Status: value.BargainNegotiating},
		bargain.MessageEvent{Message: entity.BargainMessage{
			ID:         "msg-1",
			SessionID:  "sess-1",
			SenderID:   "sm-buyer",
			SenderRole: value.RoleBargainer,
			Content:    "能便宜点吗？",
			Timestamp:  time.Now(),
		}},
		bargain.CompleteEvent{Status: value.BargainCompleted, FinalPrice: finalPrice},
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/bargains/sess-1/stream", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	require.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))

	frames := decodeFrames(t, rec.Body.String())
	require.Len(t, frames, 3)

	require.Equal(t, "status", frames[0].Type)
	require.Equal(t, "negotiating", frames[0].Data.Status)

	require.Equal(t, "message", frames[1].Type)
	require.Equal(t, "bargainer", frames[1].Data.SenderRole)
	require.Equal(t, "能便宜点吗？", frames[1].Data.Content)

	require.Equal(t, "complete", frames[2].Type)
	require.Equal(t, "completed", frames[2].Data.Status)
	require.NotNil(t, frames[2].Data.FinalPrice)
	require.Equal(t, 850, *frames[2].Data.FinalPrice)
}

func decodeFrames(t *testing.T, body string) []rest.StreamEvent {
	t.Helper()

	var frames []rest.StreamEvent

	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var frame rest.StreamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame))
		frames = append(frames, frame)
	}

	return frames
}

func TestGetV1MyPurchases_JoinsProducts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	finalPrice := 800
	completedAt := time.Now()
	env.store.sessions["sess-done"] = entity.BargainSession{
		ID:           "sess-done",
		ProductID:    "prod-9",
		BargainerID:  "sm-buyer",
		PublishPrice: 1000,
		TargetPrice:  700,
		CurrentPrice: 800,
		Status:       value.BargainCompleted,
		FinalPrice:   &finalPrice,
		CompletedAt:  &completedAt,
	}
	env.products.products["prod-9"] = entity.Product{
		ID:           "prod-9",
		Title:        "iPhone 15 Pro",
		PublishPrice: 1000,
		Status:       value.ProductActive,
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/bargains/my-purchases", nil)
	req.AddCookie(env.login("sm-buyer"))

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var purchases []rest.Purchase
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &purchases))
	require.Len(t, purchases, 1)
	require.Equal(t, "iPhone 15 Pro", purchases[0].Product.Title)
	require.Equal(t, 800, *purchases[0].Session.FinalPrice)
}

func TestPostV1Product_CreatesListing(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	body := `{"title":"山地车","publishPrice":1500,"imageUrl":"https://example.com/b.jpg","durationDays":7}`
	req := httptest.NewRequest(http.MethodPost, "/v1/products/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(env.login("sm-pub"))

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created rest.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "sm-pub", created.PublisherID)
	require.Equal(t, "active", created.Status)
}

func TestPostV1MockLogin_SetsSessionCookie(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	body := `{"secondmeId":"sm-mock","name":"测试用户"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/mock-login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, sessionCookieName, cookies[0].Name)
	require.NotEmpty(t, cookies[0].Value)

	_, ok := env.sessions.sessions[cookies[0].Value]
	require.True(t, ok)
}

func TestGetV1AuthCallback_UpsertsAndRedirects(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/secondme/callback?code=abc", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	user, ok := env.users.users["user-sm-1"]
	require.True(t, ok)
	require.Equal(t, "at-1", user.AccessToken)
}
