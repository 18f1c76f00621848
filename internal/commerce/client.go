// Package commerce is the client for the e-commerce REST API: buyer orders,
// order details and public product listings, with OAuth refresh-token handling.
package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/imrishuroy/go-support-chatbot/internal/apperr"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.mercadolibre.com"

// CallObserver is told about every API call.
type CallObserver interface {
	APICall(ctx context.Context, sessionID, endpoint string, took time.Duration, err error)
}

// Config configures a Client.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client calls the API. Each operation issues one request, plus one token
// refresh when the stored token has expired.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *http.Client
	tokens       TokenStore
	observer     CallObserver
	nowFunc      func() time.Time
	log          zerolog.Logger
}

// NewClient returns a Client. observer may be nil.
func NewClient(cfg Config, tokens TokenStore, observer CallObserver, log zerolog.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:      base,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		http:         &http.Client{Timeout: timeout},
		tokens:       tokens,
		observer:     observer,
		nowFunc:      time.Now,
		log:          log,
	}
}

// GetUserOrders lists the orders of a buyer.
func (c *Client) GetUserOrders(ctx context.Context, userID string, q OrderQuery) (*OrdersPage, error) {
	const op = "commerce.get_user_orders"
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation(op, "user id is required")
	}
	params := url.Values{"buyer": {userID}}
	if q.Status != "" {
		params.Set("order.status", q.Status)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}

	var page OrdersPage
	if err := c.authed(ctx, op, "/orders/search?"+params.Encode(), "results", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetOrderDetails fetches a single order.
func (c *Client) GetOrderDetails(ctx context.Context, orderID string) (*Order, error) {
	const op = "commerce.get_order_details"
	if strings.TrimSpace(orderID) == "" {
		return nil, apperr.Validation(op, "order id is required")
	}
	var o Order
	if err := c.authed(ctx, op, "/orders/"+url.PathEscape(orderID), "id", &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetProductInfo fetches a public listing. It needs no token.
func (c *Client) GetProductInfo(ctx context.Context, itemID string) (*Product, error) {
	const op = "commerce.get_product_info"
	if strings.TrimSpace(itemID) == "" {
		return nil, apperr.Validation(op, "item id is required")
	}
	var p Product
	if err := c.do(ctx, op, http.MethodGet, "/items/"+url.PathEscape(strings.ToUpper(itemID)), "", nil, "id", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// TestConnection checks that the stored credentials work.
func (c *Client) TestConnection(ctx context.Context) (*User, error) {
	var u User
	if err := c.authed(ctx, "commerce.test_connection", "/users/me", "id", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) authed(ctx context.Context, op, path, marker string, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, op, http.MethodGet, path, token, nil, marker, out)
}

// accessToken returns a usable token, refreshing it when needed.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	const op = "commerce.access_token"
	noToken := func(err error) error { return apperr.Token(op, "no valid access token", err) }

	if c.tokens == nil {
		return "", noToken(errors.New("token store not configured"))
	}
	current, err := c.tokens.Load(ctx)
	if err != nil {
		return "", noToken(err)
	}
	if current != nil && current.Valid(c.nowFunc()) {
		return current.AccessToken, nil
	}
	if current == nil || current.RefreshToken == "" {
		return "", noToken(errors.New("no refresh token stored"))
	}

	next, err := c.refresh(ctx, current.RefreshToken)
	if err != nil {
		return "", noToken(err)
	}
	if err := c.tokens.Swap(ctx, current.RefreshToken, *next); err != nil {
		if !errors.Is(err, ErrTokenConflict) {
			return "", noToken(err)
		}
		// another caller rotated the token first; use theirs
		winner, lerr := c.tokens.Load(ctx)
		if lerr != nil || winner == nil || !winner.Valid(c.nowFunc()) {
			return "", noToken(err)
		}
		return winner.AccessToken, nil
	}
	c.log.Info().Time("expires_at", next.ExpiresAt).Msg("access token refreshed")
	return next.AccessToken, nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return nil, apperr.Configuration("commerce.refresh", "client id and secret are required")
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {refreshToken},
	}
	var tr tokenResponse
	if err := c.do(ctx, "commerce.refresh", http.MethodPost, "/oauth/token", "", strings.NewReader(form.Encode()), "access_token", &tr); err != nil {
		return nil, err
	}
	next := &Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    c.nowFunc().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}
	if next.RefreshToken == "" {
		next.RefreshToken = refreshToken
	}
	return next, nil
}

// do issues one request and decodes a 200 response carrying marker into out.
func (c *Client) do(ctx context.Context, op, method, path, token string, body io.Reader, marker string, out any) (err error) {
	start := c.nowFunc()
	endpoint := method + " " + strings.SplitN(path, "?", 2)[0]
	defer func() {
		if c.observer != nil && op != "commerce.refresh" {
			c.observer.APICall(ctx, "", endpoint, c.nowFunc().Sub(start), err)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Upstream(op, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return apperr.Upstream(op, "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return apperr.Upstream(op, upstreamMessage(raw, resp.Status), nil)
	}
	if !gjson.ValidBytes(raw) || !gjson.GetBytes(raw, marker).Exists() {
		return apperr.Upstream(op, upstreamMessage(raw, "unexpected response shape"), nil)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Upstream(op, "decode response", err)
	}
	return nil
}

// upstreamMessage extracts the API's own error text when present.
func upstreamMessage(raw []byte, fallback string) string {
	if gjson.ValidBytes(raw) {
		for _, path := range []string{"message", "error_description", "error"} {
			if v := gjson.GetBytes(raw, path); v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
	}
	return fallback
}
