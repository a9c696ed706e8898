/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/acronis/go-docgate/log"
	"github.com/acronis/go-docgate/restapi"
)

// RecoveryDefaultStackSize is how many bytes of the goroutine stack are logged by default.
const RecoveryDefaultStackSize = 8192

// RecoveryOpts represents options for RecoveryWithOpts.
type RecoveryOpts struct {
	// StackSize limits the logged stack. Zero disables stack logging.
	StackSize int
}

// Recovery is a middleware that turns a handler panic into a logged error and a 500 response.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recovery(errDomain string) func(next http.Handler) http.Handler {
	return RecoveryWithOpts(errDomain, RecoveryOpts{StackSize: RecoveryDefaultStackSize})
}

// RecoveryWithOpts is Recovery with options.
func RecoveryWithOpts(errDomain string, opts RecoveryOpts) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					handlePanic(rw, r, p, errDomain, opts.StackSize)
				}
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

func handlePanic(rw http.ResponseWriter, r *http.Request, p interface{}, errDomain string, stackSize int) {
	logger := GetLoggerFromContext(r.Context())
	if logger == nil {
		logger = log.NewDisabledLogger()
	}

	if p == http.ErrAbortHandler { // nolint: errorlint
		logger.Warn("request has been aborted", log.Error(http.ErrAbortHandler))
		panic(p)
	}

	var fields []log.Field
	if stackSize > 0 {
		stack := make([]byte, stackSize)
		fields = append(fields, log.Bytes("stack", stack[:runtime.Stack(stack, false)]))
	}
	logger.Error(fmt.Sprintf("Panic: %+v", p), fields...)

	restapi.RespondError(rw, http.StatusInternalServerError, restapi.NewInternalError(errDomain), logger)
}
