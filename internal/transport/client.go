// Package transport provides the authenticated HTTP client used by the API
// source adapters.
package transport

import (
	"context"
	"net/http"

	"github.com/secopslab/harmonizer/pkg/constants"
	"github.com/secopslab/harmonizer/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// UserAgent is sent on every request.
const UserAgent = "harmonizer"

// Client provides HTTP client functionality with authentication.
type Client struct {
	http   *http.Client
	auth   Authenticator
	token  string
	source string
}

// New creates a client that applies auth with token to every request.
// source names the tool in returned errors.
func New(source string, auth Authenticator, token string) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	return &Client{
		http:   &http.Client{Timeout: DefaultHTTPTimeout},
		auth:   auth,
		token:  token,
		source: source,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.http = hc
	}
	return c
}

// Source returns the source name used in errors.
func (c *Client) Source() string {
	return c.source
}

// DoWithContext performs an HTTP request with authentication applied.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.token != "" {
		c.auth.Apply(req, c.token)
	} else if _, none := c.auth.(*NoAuth); !none {
		return nil, &errors.AuthenticationError{
			Source:  c.source,
			Method:  "token",
			Message: "no API token configured",
		}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if ctxErr == context.DeadlineExceeded {
				return nil, errors.Join(errors.ErrTimeout, err)
			}
			return nil, errors.Join(errors.ErrCanceled, err)
		}
		return nil, errors.WrapAPI(c.source, 0, err)
	}
	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+url, err)
	}
	return c.DoWithContext(ctx, req)
}

// GetJSON performs a GET request and decodes a JSON response into target.
func (c *Client) GetJSON(ctx context.Context, url string, target any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	return DecodeResponse(ctx, resp, c.source, target)
}
