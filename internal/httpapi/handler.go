// Package httpapi exposes the REST surface of the delivery backend.
package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/uzmarket/delivery/internal/domain/order"
	"github.com/uzmarket/delivery/internal/domain/user"
	"github.com/uzmarket/delivery/internal/errors"
	"github.com/uzmarket/delivery/internal/httputil"
	"github.com/uzmarket/delivery/internal/metrics"
	"github.com/uzmarket/delivery/internal/middleware"
	authsvc "github.com/uzmarket/delivery/internal/services/auth"
	catalogsvc "github.com/uzmarket/delivery/internal/services/catalog"
	orderssvc "github.com/uzmarket/delivery/internal/services/orders"
	"github.com/uzmarket/delivery/pkg/logger"
)

// PublicPaths are reachable without an access token. The refresh route
// carries a refresh token instead of an access token, so it skips the auth
// middleware and validates the header itself.
var PublicPaths = []string{
	"/health",
	"/metrics",
	"/auth/signup",
	"/auth/login",
	"/auth/login/refresh",
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	auth    *authsvc.Service
	catalog *catalogsvc.Service
	orders  *orderssvc.Service
	log     *logger.Logger
}

// NewRouter builds the mux router with all API routes registered.
func NewRouter(auth *authsvc.Service, catalog *catalogsvc.Service, orders *orderssvc.Service, log *logger.Logger) *mux.Router {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{auth: auth, catalog: catalog, orders: orders, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/auth/signup", h.signup).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/login/refresh", h.refresh).Methods(http.MethodGet)

	r.HandleFunc("/order/make", h.makeOrder).Methods(http.MethodPost)
	r.HandleFunc("/order/list", h.listOrders).Methods(http.MethodGet)
	r.HandleFunc("/order/user/orders", h.listMyOrders).Methods(http.MethodGet)
	r.HandleFunc("/order/user/order/{id}", h.getMyOrder).Methods(http.MethodGet)
	r.HandleFunc("/order/update/{id}", h.updateOrder).Methods(http.MethodPut)
	r.HandleFunc("/order/update-status/{id}", h.updateOrderStatus).Methods(http.MethodPatch)
	r.HandleFunc("/order/delete/{id}", h.deleteOrder).Methods(http.MethodDelete)
	r.HandleFunc("/order/{id}", h.getOrder).Methods(http.MethodGet)

	r.HandleFunc("/product/create", h.createProduct).Methods(http.MethodPost)
	r.HandleFunc("/product/list", h.listProducts).Methods(http.MethodGet)
	r.HandleFunc("/product/{id}", h.getProduct).Methods(http.MethodGet)
	r.HandleFunc("/product/{id}", h.updateProduct).Methods(http.MethodPut)
	r.HandleFunc("/product/{id}", h.deleteProduct).Methods(http.MethodDelete)

	return r
}

func (h *handler) actor(r *http.Request) user.User {
	actor, _ := middleware.ActorFrom(r.Context())
	return actor
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Auth -------------------------------------------------------------------

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		IsStaff  bool   `json:"is_staff"`
		IsActive bool   `json:"is_active"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteServiceError(w, errors.Validation("invalid request body"))
		return
	}

	created, err := h.auth.Signup(r.Context(), payload.Username, payload.Email, payload.Password, payload.IsStaff, payload.IsActive)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteServiceError(w, errors.Validation("invalid request body"))
		return
	}

	pair, err := h.auth.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pair)
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		httputil.WriteServiceError(w, errors.Unauthorized("missing refresh token"))
		return
	}

	access, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"access_token": access})
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// --- Orders -----------------------------------------------------------------

func (h *handler) makeOrder(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteServiceError(w, errors.Validation("invalid request body"))
		return
	}

	view, err := h.orders.Create(r.Context(), h.actor(r), payload.ProductID, payload.Quantity)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, view)
}

func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	views, err := h.orders.ListAll(r.Context(), h.actor(r))
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	view, err := h.orders.Get(r.Context(), h.actor(r), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	views, err := h.orders.ListMine(r.Context(), h.actor(r))
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

func (h *handler) getMyOrder(w http.ResponseWriter, r *http.Request) {
	view, err := h.orders.GetMine(r.Context(), h.actor(r), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteServiceError(w, errors.Validation("invalid request body"))
		return
	}

	view, err := h.orders.Update(r.Context(), h.actor(r), mux.Vars(r)["id"], payload.Quantity, payload.ProductID)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteServiceError(w, errors.Validation("invalid request body"))
		return
	}

	status := order.Status(strings.ToUpper(strings.TrimSpace(payload.Status)))
	view, err := h.orders.UpdateStatus(r.Context(), h.actor(r), mux.Vars(r)["id"], status)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), h.actor(r), mux.Vars(r)["id"]); err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

// --- Products ---------------------------------------------------------------

func (h *handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Price       int64  `json:"price"`
		Quantity    int    `json:"quantity"`
		Image       string `json:"image"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteServiceError(w, errors.Validation("invalid request body"))
		return
	}

	created, err := h.catalog.Create(r.Context(), h.actor(r), payload.Name, payload.Description, payload.Price, payload.Quantity, payload.Image)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context(), h.actor(r))
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, products)
}

func (h *handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Get(r.Context(), h.actor(r), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, product)
}

func (h *handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Price       *int64  `json:"price"`
		Quantity    *int    `json:"quantity"`
		Image       *string `json:"image"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteServiceError(w, errors.Validation("invalid request body"))
		return
	}

	updated, err := h.catalog.Update(r.Context(), h.actor(r), mux.Vars(r)["id"], payload.Name, payload.Description, payload.Price, payload.Quantity, payload.Image)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), h.actor(r), mux.Vars(r)["id"]); err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
