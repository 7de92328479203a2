// Package session keeps a small server-side identity record per client.
//
// A client calls POST /api/session with its userId and username once, and
// later requests read them back from the session cookie. The record is a
// cache for the client's convenience and is not an authentication layer.
//
// # Configuration
//
//	SESSION_ENABLED=true          # Register the session routes
//	SESSION_LIFETIME=720h         # Absolute session lifetime
//	SESSION_SECURE_COOKIES=false  # HTTPS-only cookies
//	SESSION_CSRF_SECRET=          # Enables CSRF protection when set
//
// With the SQLite backend sessions live in the main database (sqlite3store);
// otherwise they are kept in memory.
package session
