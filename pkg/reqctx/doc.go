// Package reqctx carries request-scoped values: request metadata, verified
// token claims and the caller Session.
//
// Context keys are unexported. Middleware sets values once per request:
//
//	ctx = reqctx.WithRequestMeta(ctx, &reqctx.RequestMeta{RequestID: rid})
//	ctx = reqctx.WithClaims(ctx, claims)
//	ctx = reqctx.WithSession(ctx, reqctx.Session{UserID: id, Role: reqctx.RolePatient})
//
// Services never read the Session from a context. Handlers pull it out and
// pass it as an explicit argument:
//
//	sess, ok := reqctx.SessionFromContext(ctx)
//	thread, err := chatSvc.Accept(ctx, sess, chatID)
//
// # Contracts
//
//   - RequestMeta is always set by HTTP middleware for all requests
//   - Claims and Session are set only for authenticated requests
package reqctx
