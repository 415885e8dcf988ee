// internal/auth/middleware.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"dispatch-gateway/internal/model"
	"dispatch-gateway/internal/storage"
)

type contextKey string

const CustomerKey contextKey = "customer"

// CustomerResolver looks up the customer owning an API token. Satisfied by
// *storage.Storage; a lookup miss must be storage.ErrNotFound so the
// middleware can tell "unknown token" (401) apart from a store outage (500).
type CustomerResolver interface {
	CustomerByToken(ctx context.Context, token string) (*model.Customer, error)
}

// Middleware resolves the bearer token to a customer and injects it into the
// request context. Unauthenticated requests never reach the handler.
func Middleware(resolver CustomerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}
			tokenStr := strings.TrimPrefix(authz, "Bearer ")

			if _, err := ValidateToken(tokenStr); err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			customer, err := resolver.CustomerByToken(r.Context(), tokenStr)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				http.Error(w, "could not complete request", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), CustomerKey, customer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCustomer extracts the authenticated customer from the request context
func GetCustomer(r *http.Request) *model.Customer {
	if val := r.Context().Value(CustomerKey); val != nil {
		return val.(*model.Customer)
	}
	return nil
}
