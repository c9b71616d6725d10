// Package middleware provides the HTTP middleware chain of the API server.
//
// # Middleware Components
//
//   - RequestIDMiddleware: assigns or propagates X-Request-ID and stores it in
//     the context for logging
//   - LoggingMiddleware: one structured log line per request
//   - RecoveryMiddleware: converts handler panics to a 500 INTERNAL body
//   - TimeoutMiddleware: bounds the request context
//   - CORSMiddleware: CORS headers and preflight handling for the chat front end
//
// Admission checks (identity, quota, rate limit, validation, budget) are not
// middleware; they run in pkg/admission so their order and error bodies are
// controlled in one place.
//
// # Middleware Chain Order
//
// The server applies middleware outermost first:
//
//	handler = RecoveryMiddleware(logger)(
//	    RequestIDMiddleware(
//	        tracer.Middleware(
//	            LoggingMiddleware(logger)(
//	                CORSMiddleware(cors)(
//	                    TimeoutMiddleware(timeout)(mux))))))
//
// Recovery is outermost so it catches panics from every other layer. The
// request ID is set before tracing and logging so both can report it.
package middleware
