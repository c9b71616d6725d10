// Package auth resolves the caller identity of API requests.
//
// Authentication and session management belong to the chat application in
// front of this service. Two resolvers read what it provides:
//
//   - HeaderResolver trusts a user ID header set by an authenticating proxy
//   - JWTResolver verifies an HMAC-signed bearer token and uses its sub claim
//
// Both return errors wrapping ErrUnauthenticated, which the admission
// pipeline maps to 401.
package auth
