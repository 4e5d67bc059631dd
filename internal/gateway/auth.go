package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the admin account as reported by the marketplace API.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions"`
}

// Tokens is an access/refresh token pair.
type Tokens struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"-"`
}

// LoginResult is a successful login.
type LoginResult struct {
	User   User
	Tokens Tokens
}

// AuthClient calls the unauthenticated auth endpoints.
type AuthClient struct {
	client *Client
}

// NewAuthClient wraps client.
func NewAuthClient(client *Client) *AuthClient {
	return &AuthClient{client: client}
}

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
}

// Login exchanges admin credentials for tokens. The user record falls back to
// the access token claims for anything the response leaves out.
func (a *AuthClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var resp loginResponse
	err := a.client.DoJSON(ctx, nil, Request{
		Method: http.MethodPost,
		Path:   []string{"auth", "login"},
		Body:   map[string]string{"email": strings.TrimSpace(email), "password": password},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errors.New("login response missing accessToken")
	}

	var user User
	if resp.User != nil {
		user = *resp.User
	}
	claims, _ := ParseAccessClaims(resp.AccessToken)
	if claims != nil {
		claims.fill(&user)
	}

	return &LoginResult{
		User:   user,
		Tokens: tokensFrom(resp.AccessToken, resp.RefreshToken, claims),
	}, nil
}

// Refresh exchanges a refresh token for a new pair. An empty refresh token in
// the response means the old one stays valid.
func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	if refreshToken == "" {
		return nil, errors.New("no refresh token")
	}
	var resp loginResponse
	err := a.client.DoJSON(ctx, nil, Request{
		Method: http.MethodPost,
		Path:   []string{"auth", "refresh"},
		Body:   map[string]string{"refreshToken": refreshToken},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errors.New("refresh response missing accessToken")
	}
	if resp.RefreshToken == "" {
		resp.RefreshToken = refreshToken
	}
	claims, _ := ParseAccessClaims(resp.AccessToken)
	t := tokensFrom(resp.AccessToken, resp.RefreshToken, claims)
	return &t, nil
}

func tokensFrom(access, refresh string, claims *AccessClaims) Tokens {
	t := Tokens{AccessToken: access, RefreshToken: refresh}
	if claims != nil && claims.ExpiresAt != nil {
		t.ExpiresAt = claims.ExpiresAt.Time
	}
	return t
}

// AccessClaims are the claims the marketplace puts in its access tokens.
type AccessClaims struct {
	UserID      string   `json:"userId"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// ParseAccessClaims decodes a gateway access token without verifying it. The
// gateway holds the signing key; the console only reads the claims.
func ParseAccessClaims(token string) (*AccessClaims, error) {
	var claims AccessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (c *AccessClaims) fill(u *User) {
	if u.ID == "" {
		u.ID = firstNonEmpty(c.UserID, c.Subject)
	}
	if u.Email == "" {
		u.Email = c.Email
	}
	if u.Name == "" {
		u.Name = c.Name
	}
	if u.Role == "" && len(u.Roles) == 0 {
		u.Role = c.Role
		u.Roles = c.Roles
	}
	if len(u.Permissions) == 0 {
		u.Permissions = c.Permissions
	}
}
