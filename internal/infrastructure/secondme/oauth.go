package secondme

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"

	"duoduo-bargain/internal/domain"
	"duoduo-bargain/pkg/errcodes"
)

const userInfoCacheTTL = 5 * time.Minute

// OAuthClient implements the SecondMe OAuth surface: authorization-code
// exchange, token refresh and user info. The token endpoints expect
// x-www-form-urlencoded bodies; responses use the {code, data} envelope.
type OAuthClient struct {
	appID         string
	appSecret     string
	tokenURL      string
	refreshURL    string
	userInfoURL   string
	httpClient    *http.Client
	userInfoCache *cache.Cache
}

type OAuthConfig struct {
	AppID       string
	AppSecret   string
	TokenURL    string
	RefreshURL  string
	UserInfoURL string
}

func NewOAuthClient(cfg OAuthConfig, httpClient *http.Client) *OAuthClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &OAuthClient{
		appID:         cfg.AppID,
		appSecret:     cfg.AppSecret,
		tokenURL:      cfg.TokenURL,
		refreshURL:    cfg.RefreshURL,
		userInfoURL:   cfg.UserInfoURL,
		httpClient:    httpClient,
		userInfoCache: cache.New(userInfoCacheTTL, 10*time.Minute),
	}
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
	Scope        string `json:"scope"`
}

type UserInfo struct {
	SecondMeID string `json:"secondmeId"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	Email      string `json:"email"`
}

type envelope struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    jsoniter.RawMessage `json:"data"`
}

// ExchangeCode trades an authorization code for tokens.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*Tokens, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {c.appID},
		"client_secret": {c.appSecret},
	}

	if redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}

	var tokens Tokens
	if err := c.postForm(ctx, c.tokenURL, form, &tokens); err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	return &tokens, nil
}

// Refresh trades a refresh token for a fresh token pair.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	var tokens Tokens
	if err := c.postForm(ctx, c.refreshURL, form, &tokens); err != nil {
		return nil, domain.WrapError(err, errcodes.RefreshTokenInvalid, "refresh token")
	}

	return &tokens, nil
}

// UserInfo fetches the profile behind an access token. Results are cached
// briefly; the profile is stable within a login session.
func (c *OAuthClient) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	if cached, ok := c.userInfoCache.Get(accessToken); ok {
		info := cached.(UserInfo) //nolint:forcetypeassert
		return &info, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	var info UserInfo
	if err := c.do(req, &info); err != nil {
		return nil, fmt.Errorf("user info: %w", err)
	}

	c.userInfoCache.Set(accessToken, info, cache.DefaultExpiration)

	return &info, nil
}

func (c *OAuthClient) postForm(ctx context.Context, endpoint string, form url.Values, dest any) error {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req, dest)
}

func (c *OAuthClient) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpClient.Do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("io.ReadAll: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.NewError(
			errcodes.Unauthorized,
			fmt.Sprintf("secondme oauth: status %d", resp.StatusCode),
		)
	}

	var env envelope
	if err := json.Unmarshal(respBytes, &env); err != nil {
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	if env.Code != 0 {
		return domain.NewError(
			errcodes.Unauthorized,
			fmt.Sprintf("secondme oauth: code %d: %s", env.Code, env.Message),
		)
	}

	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("json.Unmarshal data: %w", err)
	}

	return nil
}
