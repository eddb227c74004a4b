// Package audit records authorization outcomes: permission checks the API
// makes, form modes it hands out and requests it turns away.
//
// Events go to a Logger. The file logger writes one JSON object per line
// and rotates by size; MultiLogger fans out to several sinks.
//
//	fl, err := audit.NewFileLogger(audit.FileLoggerConfig{BasePath: "/var/log/datahub"})
//	hook := audit.DecisionHook(fl, metrics)
//	pm := rbac.NewPermissionMiddleware(rbac.DefaultEvaluator(), hook)
//
// AsyncLogger moves writes off the request path. It drops events once its
// queue is full and drains what is queued on Close:
//
//	al := audit.NewAsyncLogger(fl, audit.AsyncLoggerConfig{}, logger, metrics)
//	defer al.Close()
//
// Audit failures never change the outcome of a request; they are counted
// and logged.
package audit
