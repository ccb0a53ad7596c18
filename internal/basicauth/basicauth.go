// Package basicauth provides per-call gRPC credentials carrying an HTTP
// basic authorization header, as expected by the broker daemon.
package basicauth

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"google.golang.org/grpc/credentials"
)

// MetadataKey is the metadata key the token is sent under
const MetadataKey = "authorization"

// Errors returned by Generate
var (
	ErrEmptyUsername = errors.New("username must not be empty")
	ErrEmptyPassword = errors.New("password must not be empty")
	ErrColonUsername = errors.New("username must not contain ':'")
)

// Credentials attaches "authorization: Basic <token>" to every call
type Credentials struct {
	username string
	token    string
}

var _ credentials.PerRPCCredentials = (*Credentials)(nil)

// Generate derives basic auth credentials from a username and password.
// The token is deterministic for the same input.
func Generate(username, password string) (*Credentials, error) {
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}
	if strings.Contains(username, ":") {
		return nil, ErrColonUsername
	}

	return &Credentials{
		username: username,
		token:    Token(username, password),
	}, nil
}

// Token returns the base64 encoding of "username:password"
func Token(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

// Username returns the user the credentials were built for
func (c *Credentials) Username() string {
	return c.username
}

// HeaderValue returns the full authorization header value
func (c *Credentials) HeaderValue() string {
	return "Basic " + c.token
}

// GetRequestMetadata implements credentials.PerRPCCredentials
func (c *Credentials) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	return map[string]string{MetadataKey: c.HeaderValue()}, nil
}

// RequireTransportSecurity implements credentials.PerRPCCredentials. The
// password must never travel over an unencrypted channel.
func (c *Credentials) RequireTransportSecurity() bool {
	return true
}

// Parse decodes an authorization header value back into username and
// password. It is the inverse of HeaderValue.
func Parse(header string) (username, password string, ok bool) {
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	username, password, ok = strings.Cut(string(raw), ":")
	return username, password, ok
}
