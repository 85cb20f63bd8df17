// Package server provides HTTP routing, middleware, and the query API over
// the exported track library.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Query API
//
// [TrackHandler] serves the stored library: paginated listing and search,
// single-track lookup, genre/year facets, and library-wide stats. [RunHandler]
// triggers a full pipeline run in the background and reports its state.
// Responses use a uniform JSON envelope; errors carry a non-2xx status and a
// human-readable message.
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// During `slx auth login` a temporary HTTP server starts on the configured
// redirect address, handles the callback, and shuts down after receiving the
// token.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
