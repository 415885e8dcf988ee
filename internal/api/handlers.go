package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "dispatch-gateway/docs"
	"dispatch-gateway/internal/auth"
	"dispatch-gateway/internal/metrics"
	"dispatch-gateway/internal/model"
	"dispatch-gateway/internal/namespace"
	"dispatch-gateway/internal/registry"
)

func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	// Public
	r.Get("/", a.Index)
	r.Get("/init", a.Init)
	r.Get("/upload", a.UploadForm)
	r.Handle("/dispatch/{name}", http.HandlerFunc(a.Dispatch))
	r.Get("/metrics", metrics.Handler().ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Secured
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(a.Storage))

		r.Get("/script", a.ListScripts)
		r.Put("/script/{name}", a.UploadScript)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "no route matching "+req.Method+" "+req.URL.Path, http.StatusNotFound)
	})
	// A matched path with the wrong verb gets the same routing message: the
	// surface is verb+path pairs, anything else falls through to the catch-all.
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "no route matching "+req.Method+" "+req.URL.Path, http.StatusNotFound)
	})

	return r
}

// @Summary Reset store and namespace to seed state
// @Tags Admin
// @Success 302
// @Router /init [get]
func (a *API) Init(w http.ResponseWriter, r *http.Request) {
	seed := make([]model.Customer, 0, len(a.Cfg.Seed))
	for _, sc := range a.Cfg.Seed {
		id, err := uuid.Parse(sc.ID)
		if err != nil {
			log.Printf("API: Skipping seed customer with bad id %q: %v", sc.ID, err)
			continue
		}
		token, err := auth.GenerateToken(id.String())
		if err != nil {
			http.Error(w, "could not complete request", http.StatusInternalServerError)
			return
		}
		log.Printf("API: Seeded customer %s (%s) token=%s", id, sc.PlanType, token)
		seed = append(seed, model.Customer{ID: id, PlanType: sc.PlanType, Token: token})
	}

	if err := a.Storage.Reset(r.Context(), seed); err != nil {
		log.Printf("API: Store reset failed: %v", err)
		http.Error(w, "could not complete request", http.StatusInternalServerError)
		return
	}
	if err := a.Namespace.Reset(); err != nil {
		log.Printf("API: Namespace reset failed: %v", err)
		http.Error(w, "could not complete request", http.StatusInternalServerError)
		return
	}

	log.Println("API: Store and namespace reset to seed state")
	http.Redirect(w, r, "/", http.StatusFound)
}

// @Summary List scripts owned by the authenticated customer
// @Tags Scripts
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} string
// @Router /script [get]
func (a *API) ListScripts(w http.ResponseWriter, r *http.Request) {
	customer := auth.GetCustomer(r)
	if customer == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	names, err := a.Registry.List(r.Context(), customer)
	if err != nil {
		log.Printf("API: List failed for customer %s: %v", customer.ID, err)
		http.Error(w, "could not complete request", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(names)
}

// @Summary Upload a script under a namespace-unique name
// @Tags Scripts
// @Security ApiKeyAuth
// @Accept json
// @Param name path string true "Script name"
// @Success 201 {string} string "Success"
// @Failure 400 {string} string "Bad body or platform-rejected script"
// @Failure 409 {string} string "Name reserved by another customer"
// @Router /script/{name} [put]
func (a *API) UploadScript(w http.ResponseWriter, r *http.Request) {
	customer := auth.GetCustomer(r)
	if customer == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "could not read request body", http.StatusBadRequest)
		return
	}

	if err := a.Registry.Upload(r.Context(), customer, name, body); err != nil {
		a.writeUploadError(w, name, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write([]byte("Success"))
}

func (a *API) writeUploadError(w http.ResponseWriter, name string, err error) {
	var invalid *registry.InvalidInputError
	var upstream *namespace.UpstreamError
	var internal *registry.InternalError

	switch {
	case errors.Is(err, registry.ErrNameReserved):
		http.Error(w, "Script name is already reserved", http.StatusConflict)
	case errors.As(err, &invalid):
		http.Error(w, invalid.Msg, http.StatusBadRequest)
	case errors.As(err, &upstream):
		// The platform's diagnostic beats anything we could write.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write(upstream.Payload)
	case errors.As(err, &internal):
		log.Printf("API: Upload of %s failed: %v", name, err)
		http.Error(w, "could not complete request", http.StatusInternalServerError)
	default:
		log.Printf("API: Upload of %s failed: %v", name, err)
		http.Error(w, "could not complete request", http.StatusInternalServerError)
	}
}

// @Summary Dispatch a request to a named script
// @Tags Dispatch
// @Param name path string true "Script name"
// @Success 200 {string} string "Whatever the script returns"
// @Failure 404 {string} string "Could not dispatch"
// @Router /dispatch/{name} [get]
func (a *API) Dispatch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	resp, err := a.Registry.Dispatch(r.Context(), name, r)
	if err != nil {
		var dispatchErr *registry.DispatchError
		if errors.As(err, &dispatchErr) {
			// Opaque on purpose: the caller learns nothing about whether the
			// script is missing or blew up.
			log.Printf("API: Dispatch of %s failed: %v", name, err)
			http.Error(w, "could not dispatch script", http.StatusNotFound)
			return
		}
		log.Printf("API: Dispatch of %s failed: %v", name, err)
		http.Error(w, "could not complete request", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Printf("API: Failed to stream dispatch response for %s: %v", name, err)
	}
}
