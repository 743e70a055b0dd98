package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"duoduo-bargain/internal/domain"
	"duoduo-bargain/internal/domain/entity"
	"duoduo-bargain/internal/infrastructure/secondme"
	"duoduo-bargain/internal/infrastructure/sessionstore"
	"duoduo-bargain/pkg/contextx"
	"duoduo-bargain/pkg/errcodes"
	"duoduo-bargain/pkg/httpx/reply"
	"duoduo-bargain/pkg/httpx/req"
	"duoduo-bargain/pkg/rest"
)

const sessionCookieName = "secondme_session"

type userRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	Upsert(ctx context.Context, user entity.User) (*entity.User, error)
}

type oauthClient interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (*secondme.Tokens, error)
	UserInfo(ctx context.Context, accessToken string) (*secondme.UserInfo, error)
}

type loginSessions interface {
	Create(ctx context.Context, session sessionstore.LoginSession) (string, error)
	Get(ctx context.Context, sid string) (*sessionstore.LoginSession, error)
	Delete(ctx context.Context, sid string) error
}

type AuthServer struct {
	users    userRepository
	oauth    oauthClient
	sessions loginSessions

	redirectURI      string
	postLoginURL     string
	sessionTTL       time.Duration
	mockLoginEnabled bool
}

func NewAuthServer(
	users userRepository,
	oauth oauthClient,
	sessions loginSessions,
	redirectURI string,
	postLoginURL string,
	sessionTTL time.Duration,
	mockLoginEnabled bool,
) AuthServer {
	return AuthServer{
		users:            users,
		oauth:            oauth,
		sessions:         sessions,
		redirectURI:      redirectURI,
		postLoginURL:     postLoginURL,
		sessionTTL:       sessionTTL,
		mockLoginEnabled: mockLoginEnabled,
	}
}

// requireLogin resolves the session cookie into the current user identity and
// puts it on the request context.
func (s AuthServer) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			reply.Error(ctx, w, domain.NewError(errcodes.Unauthorized, "login required"))

			return
		}

		login, err := s.sessions.Get(ctx, cookie.Value)
		if err != nil {
			reply.Error(ctx, w, fmt.Errorf("sessions.Get: %w", err))

			return
		}

		ctx = contextx.WithUserID(ctx, contextx.UserID(login.UserID))
		ctx = contextx.WithSecondMeID(ctx, contextx.SecondMeID(login.SecondMeID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s AuthServer) getV1AuthCallback(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	if code == "" {
		return domain.NewError(errcodes.ValidationError, "code query parameter is required")
	}

	tokens, err := s.oauth.ExchangeCode(ctx, code, s.redirectURI)
	if err != nil {
		return fmt.Errorf("oauth.ExchangeCode: %w", err)
	}

	info, err := s.oauth.UserInfo(ctx, tokens.AccessToken)
	if err != nil {
		return fmt.Errorf("oauth.UserInfo: %w", err)
	}

	user := entity.User{
		SecondMeID:  info.SecondMeID,
		AccessToken: tokens.AccessToken,
	}
	if info.Name != "" {
		user.Name = &info.Name
	}

	if info.Avatar != "" {
		user.Image = &info.Avatar
	}

	if tokens.RefreshToken != "" {
		user.RefreshToken = &tokens.RefreshToken
	}

	saved, err := s.users.Upsert(ctx, user)
	if err != nil {
		return fmt.Errorf("users.Upsert: %w", err)
	}

	if err := s.issueSession(ctx, w, saved); err != nil {
		return err
	}

	http.Redirect(w, r, s.postLoginURL, http.StatusFound)

	return nil
}

// postV1MockLogin creates a local account without the OAuth dance. Meant for
// development setups only and disabled in production config.
func (s AuthServer) postV1MockLogin(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	if !s.mockLoginEnabled {
		return domain.NewError(errcodes.Forbidden, "mock login is not enabled")
	}

	var request rest.MockLoginRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	saved, err := s.users.Upsert(ctx, entity.User{
		SecondMeID:  request.SecondMeID,
		Name:        request.Name,
		AccessToken: request.AccessToken,
	})
	if err != nil {
		return fmt.Errorf("users.Upsert: %w", err)
	}

	if err := s.issueSession(ctx, w, saved); err != nil {
		return err
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTUser(*saved))

	return nil
}

func (s AuthServer) postV1Logout(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	cookie, err := r.Cookie(sessionCookieName)
	if err == nil {
		if err := s.sessions.Delete(ctx, cookie.Value); err != nil {
			return fmt.Errorf("sessions.Delete: %w", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	reply.OK(w)

	return nil
}

func (s AuthServer) getV1Me(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID.String())
	if err != nil {
		return fmt.Errorf("users.GetByID: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTUser(*user))

	return nil
}

func (s AuthServer) issueSession(ctx context.Context, w http.ResponseWriter, user *entity.User) error {
	sid, err := s.sessions.Create(ctx, sessionstore.LoginSession{
		UserID:     user.ID,
		SecondMeID: user.SecondMeID,
	})
	if err != nil {
		return fmt.Errorf("sessions.Create: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}
