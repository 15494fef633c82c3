// MCP transport handler using the official MCP Go SDK.
// Exposes the settings and metadata operations as MCP tools so an
// operator agent can inspect and adjust the configuration.
package handler

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"stripemeta-proxy/internal/model"
	"stripemeta-proxy/internal/settings"
)

// === MCP Tool Input/Output Types ===

// GetSettingsInput is the input schema for the get_settings tool.
type GetSettingsInput struct{}

// ListFieldsInput is the input schema for the list_fields tool.
type ListFieldsInput struct{}

// UpdateSettingsInput is the input schema for the update_settings tool.
// Uses full replacement semantics: the payload is the complete desired
// configuration.
type UpdateSettingsInput struct {
	Settings settings.Settings `json:"settings" jsonschema:"complete metadata configuration,required"`
}

// PreviewMetadataInput is the input schema for the preview_metadata tool.
type PreviewMetadataInput struct {
	OrderID  int               `json:"order_id" jsonschema:"order to assemble metadata for,required"`
	Existing map[string]string `json:"existing,omitempty" jsonschema:"entries the payment intent already carries"`
}

// NewMCPServer creates an MCP server with the proxy's tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "stripemeta-proxy",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Stripe metadata proxy - configure which order, customer, " +
				"product, and subscription fields are attached to payment intents, " +
				"and preview the metadata an order would produce.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_settings",
		Description: "Get the current metadata configuration.",
	}, h.mcpGetSettings)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_settings",
		Description: "Replace the metadata configuration. Send the complete desired state; unknown fields are sanitized away.",
	}, h.mcpUpdateSettings)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_fields",
		Description: "List the selectable metadata fields per category, as discovered from the store.",
	}, h.mcpListFields)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "preview_metadata",
		Description: "Assemble the metadata a payment intent for an order would carry, without writing to Stripe.",
	}, h.mcpPreviewMetadata)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpGetSettings(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetSettingsInput,
) (*mcp.CallToolResult, *settings.Settings, error) {
	cfg, err := h.settings.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if cfg == nil {
		cfg = &settings.Settings{MultiProductMethod: settings.MethodDelimited}
	}
	return nil, cfg, nil
}

func (h *Handler) mcpUpdateSettings(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input UpdateSettingsInput,
) (*mcp.CallToolResult, *settings.Settings, error) {
	cfg := settings.Sanitize(&input.Settings)
	if err := h.settings.Save(ctx, cfg); err != nil {
		return nil, nil, err
	}
	return nil, cfg, nil
}

func (h *Handler) mcpListFields(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListFieldsInput,
) (*mcp.CallToolResult, *FieldCatalogResponse, error) {
	return nil, &FieldCatalogResponse{
		CartFields:          h.catalog.CartFields(),
		UserFields:          h.catalog.UserFields(ctx),
		ProductFields:       h.catalog.ProductFields(ctx),
		ProductCustomFields: h.catalog.ProductCustomFields(ctx),
		SubscriptionFields:  h.catalog.SubscriptionFields(),
	}, nil
}

func (h *Handler) mcpPreviewMetadata(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input PreviewMetadataInput,
) (*mcp.CallToolResult, *PreviewMetadataResponse, error) {
	if input.OrderID <= 0 {
		return nil, nil, model.NewValidationError("order_id", "order ID must be a positive integer")
	}
	meta, err := h.gateway.IntentMetadata(ctx, input.Existing, input.OrderID)
	if err != nil {
		return nil, nil, err
	}
	return nil, &PreviewMetadataResponse{OrderID: input.OrderID, Metadata: meta}, nil
}
