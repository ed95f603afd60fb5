package network

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"
	logging "github.com/inconshreveable/log15"

	"boscoin.io/benor/lib/network/httputils"
)

func RecoverMiddleware(logger logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("panic: %v", r)
					}
					httputils.WriteJSON(w, http.StatusInternalServerError, err)
					if logger != nil {
						logger.Error("recover an panic", "err", err, "stack", string(debug.Stack()))
					}
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
