// Package httputil provides the JSON response envelope, request parsing and
// the request-scoped middleware shared by the API and health servers.
//
// # Responses
//
//	httputil.WriteSuccess(w, decision)
//	httputil.WriteList(w, page.Items, page.Total)   // {"items": [...], "total": 6}
//	httputil.WriteForbidden(w, "insufficient permissions")
//
// Every error body has the same shape:
//
//	{"error": "insufficient permissions", "requestId": "6f1c..."}
//
// # Requests
//
//	var req CheckRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // 400 already written
//	}
//	id, ok := httputil.PathStringOrError(w, r, "id")
//	force := httputil.WantsFresh(r) // ?force=true or Cache-Control: no-cache
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(1<<20),
//	)
package httputil
