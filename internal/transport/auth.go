package transport

import (
	"fmt"
	"net/http"
	"strings"
)

// Authenticator applies a credential to outgoing requests.
type Authenticator interface {
	Apply(req *http.Request, token string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

// HeaderAuth sends the token in a custom header, optionally with a scheme
// prefix ("Token", "Basic", ...).
type HeaderAuth struct {
	Header string
	Scheme string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, token string) {
	value := token
	if a.Scheme != "" {
		value = a.Scheme + " " + token
	}
	req.Header.Set(a.Header, value)
}

// QueryAuth sends the token as a query parameter.
type QueryAuth struct {
	Param string
}

// Apply implements the Authenticator interface for QueryAuth.
func (a *QueryAuth) Apply(req *http.Request, token string) {
	if req.URL == nil {
		return
	}
	query := req.URL.Query()
	query.Set(a.Param, token)
	req.URL.RawQuery = query.Encode()
}

// ParseAuth builds an Authenticator from a config string:
//
//	""  or "bearer"         Authorization: Bearer <token>
//	"none"                  no credential
//	"header:<Name>"         <Name>: <token>
//	"header:<Name>:<Scheme>" <Name>: <Scheme> <token>
//	"query:<param>"         ?<param>=<token>
func ParseAuth(spec string) (Authenticator, error) {
	kind, rest, _ := strings.Cut(strings.TrimSpace(spec), ":")
	switch strings.ToLower(kind) {
	case "", "bearer":
		return &BearerAuth{}, nil
	case "none":
		return &NoAuth{}, nil
	case "header":
		name, scheme, _ := strings.Cut(rest, ":")
		if name == "" {
			return nil, fmt.Errorf("auth %q: header name is required", spec)
		}
		return &HeaderAuth{Header: name, Scheme: scheme}, nil
	case "query":
		if rest == "" {
			return nil, fmt.Errorf("auth %q: query parameter is required", spec)
		}
		return &QueryAuth{Param: rest}, nil
	}
	return nil, fmt.Errorf("unknown auth scheme %q", spec)
}
