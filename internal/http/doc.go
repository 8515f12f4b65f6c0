// Package http provides HTTP handlers and middleware for the attendance API.
//
// The router exposes the following endpoints:
//   - GET /: login page linking to /auth.
//   - GET /auth: redirects to the provider consent screen.
//   - GET /google-auth-done?code=&state=: completes the authorization code
//     flow and answers with a plain-text confirmation.
//   - GET /auth-status: {"authenticated","expiry"}.
//   - GET /spreadsheet-data?tzo=<minutes>: {"data":[{"date","groupA","groupB"}]}.
//     tzo follows the getTimezoneOffset sign convention. Failures answer 500
//     with {"error","details"}.
//   - GET /person-mapping?from=&to=: stores an alias. Without parameters it
//     returns the alias table as JSON.
//   - GET /set-spreadsheet-id?id=, GET /set-spreadsheet-range?range=: update
//     the sheet coordinates.
//   - GET /healthz: liveness check.
//
// The three admin routes require an X-Admin-Key header when a key hash is
// configured.
package http
