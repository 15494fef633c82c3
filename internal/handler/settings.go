package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"stripemeta-proxy/internal/catalog"
	"stripemeta-proxy/internal/model"
	"stripemeta-proxy/internal/settings"
)

// FieldCatalogResponse lists the selectable fields per category.
// Subscription fields are present only when the store runs the
// subscriptions extension.
type FieldCatalogResponse struct {
	CartFields          []catalog.Field `json:"cart_fields"`
	UserFields          []catalog.Field `json:"user_fields"`
	ProductFields       []catalog.Field `json:"product_fields"`
	ProductCustomFields []catalog.Field `json:"product_custom_fields"`
	SubscriptionFields  []catalog.Field `json:"subscription_fields,omitempty"`
}

// handleListFields returns the field catalog.
// GET /fields
func (h *Handler) handleListFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.writeJSON(w, http.StatusOK, FieldCatalogResponse{
		CartFields:          h.catalog.CartFields(),
		UserFields:          h.catalog.UserFields(ctx),
		ProductFields:       h.catalog.ProductFields(ctx),
		ProductCustomFields: h.catalog.ProductCustomFields(ctx),
		SubscriptionFields:  h.catalog.SubscriptionFields(),
	})
}

// handleGetSettings returns the stored configuration, or the empty
// defaults when nothing has been saved yet.
// GET /settings
func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.Load(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if cfg == nil {
		cfg = &settings.Settings{MultiProductMethod: settings.MethodDelimited}
	}
	h.writeJSON(w, http.StatusOK, cfg)
}

// handleUpdateSettings replaces the stored configuration wholesale.
// Unknown and malformed selections are sanitized away rather than
// rejected, matching how the admin screen has always saved.
// PUT /settings
func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req settings.Settings
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	cfg := settings.Sanitize(&req)
	if err := h.settings.Save(ctx, cfg); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "settings updated",
		slog.Int("cart_fields", len(cfg.CartMetadata)),
		slog.Int("user_fields", len(cfg.UserMetadata)),
		slog.Int("product_fields", len(cfg.ProductMetadata)),
		slog.Int("static_pairs", len(cfg.StaticMetadata)),
	)
	h.writeJSON(w, http.StatusOK, cfg)
}

// handleDeleteSettings clears the stored configuration.
// DELETE /settings
func (h *Handler) handleDeleteSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.Save(r.Context(), &settings.Settings{}); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "settings cleared")
	w.WriteHeader(http.StatusNoContent)
}

// PreviewMetadataRequest carries the entries an intent already has.
type PreviewMetadataRequest struct {
	Existing map[string]string `json:"existing,omitempty"`
}

// PreviewMetadataResponse is the assembled metadata for an order.
type PreviewMetadataResponse struct {
	OrderID  int               `json:"order_id"`
	Metadata map[string]string `json:"metadata"`
}

// handlePreviewMetadata assembles the metadata an intent for this order
// would carry, without touching Stripe.
// POST /orders/{id}/intent-metadata
func (h *Handler) handlePreviewMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || orderID <= 0 {
		h.writeError(w, model.NewValidationError("id", "order ID must be a positive integer"))
		return
	}

	var req PreviewMetadataRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.writeError(w, err)
			return
		}
	}

	meta, err := h.gateway.IntentMetadata(ctx, req.Existing, orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, PreviewMetadataResponse{OrderID: orderID, Metadata: meta})
}

// SyncIntentRequest names the order whose metadata should be pushed.
type SyncIntentRequest struct {
	OrderID int `json:"order_id"`
}

// SyncIntentResponse reports the write.
type SyncIntentResponse struct {
	IntentID string            `json:"intent_id"`
	OrderID  int               `json:"order_id"`
	Metadata map[string]string `json:"metadata"`
}

// handleSyncIntent re-assembles an order's metadata and writes it to the
// named payment intent.
// POST /payment-intents/{id}/sync
func (h *Handler) handleSyncIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	intentID := r.PathValue("id")

	var req SyncIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.OrderID <= 0 {
		h.writeError(w, model.NewValidationError("order_id", "order ID must be a positive integer"))
		return
	}

	h.logger.InfoContext(ctx, "syncing intent metadata",
		slog.String("intent_id", intentID),
		slog.Int("order_id", req.OrderID),
	)

	intent, err := h.gateway.UpdateIntent(ctx, intentID, req.OrderID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, SyncIntentResponse{
		IntentID: intent.ID,
		OrderID:  req.OrderID,
		Metadata: intent.Metadata,
	})
}
