// Package mcp exposes the script engine to AI assistants over the Model
// Context Protocol. Tools are stateless: the caller carries the
// navigation state between calls, so one server can serve any number of
// concurrent assistant sessions without session bookkeeping.
package mcp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/roteiro/internal/runtime"
	"github.com/aretw0/roteiro/pkg/domain"
	"github.com/aretw0/roteiro/pkg/render"
)

// Source is the read surface the MCP tools need.
type Source interface {
	GetStep(id string) (*domain.Step, error)
	GetProduct(id string) (*domain.Product, error)
	GetProducts() []*domain.Product
}

// StepResponse is the unified tool output: the (possibly moved) state plus
// the rendered view of wherever it points now.
type StepResponse struct {
	State *domain.NavigationState `json:"state"`
	View  *runtime.StepView       `json:"view,omitempty"`
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	source    Source
	nav       *runtime.Navigator
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server over the given script source.
func NewServer(source Source, version string) *Server {
	s := &Server{
		source:    source,
		nav:       runtime.NewNavigator(source),
		mcpServer: server.NewMCPServer("roteiro-mcp", version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: list_products
	s.mcpServer.AddTool(mcp.NewTool("list_products",
		mcp.WithDescription("List the products (scripts) available to start."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.source.GetProducts())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: start_script
	startTool := mcp.NewTool("start_script",
		mcp.WithDescription("Start a product's script at its first step and render it."),
		mcp.WithString("product_id", mcp.Required(), mcp.Description("Product to start")),
		mcp.WithString("operator", mcp.Description("Operator name for placeholder substitution")),
		mcp.WithString("customer", mcp.Description("Customer first name for placeholder substitution")),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStart))

	// TOOL: render_step
	renderTool := mcp.NewTool("render_step",
		mcp.WithDescription("Render one step's content, buttons and annotations without moving."),
		mcp.WithString("step_id", mcp.Required(), mcp.Description("Step to render")),
		mcp.WithString("operator", mcp.Description("Operator name for placeholder substitution")),
		mcp.WithString("customer", mcp.Description("Customer first name for placeholder substitution")),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(renderTool, mcp.NewStructuredToolHandler(s.handleRenderStep))

	// TOOL: advance
	advanceTool := mcp.NewTool("advance",
		mcp.WithDescription("Click a button on the current step and render the destination."),
		mcp.WithString("state", mcp.Required(), mcp.Description("JSON navigation state returned by a previous call")),
		mcp.WithString("button_id", mcp.Required(), mcp.Description("Button to click")),
		mcp.WithString("operator", mcp.Description("Operator name for placeholder substitution")),
		mcp.WithString("customer", mcp.Description("Customer first name for placeholder substitution")),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(advanceTool, mcp.NewStructuredToolHandler(s.handleAdvance))

	// TOOL: go_back
	backTool := mcp.NewTool("go_back",
		mcp.WithDescription("Pop one entry of navigation history and render the previous step."),
		mcp.WithString("state", mcp.Required(), mcp.Description("JSON navigation state returned by a previous call")),
		mcp.WithString("operator", mcp.Description("Operator name for placeholder substitution")),
		mcp.WithString("customer", mcp.Description("Customer first name for placeholder substitution")),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(backTool, mcp.NewStructuredToolHandler(s.handleGoBack))
}

// Handler methods for structured tools

func placeholdersFromArgs(args map[string]any) render.Placeholders {
	operator, _ := args["operator"].(string)
	customer, _ := args["customer"].(string)
	return render.Placeholders{OperatorName: operator, CustomerFirstName: customer}
}

func stateFromArgs(args map[string]any) (*domain.NavigationState, error) {
	raw, _ := args["state"].(string)
	if raw == "" {
		return nil, fmt.Errorf("missing state")
	}
	var state domain.NavigationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("invalid state: %w", err)
	}
	return &state, nil
}

func (s *Server) respond(state *domain.NavigationState, ph render.Placeholders) (StepResponse, error) {
	view, err := s.nav.View(state, ph)
	if err != nil {
		return StepResponse{}, err
	}
	return StepResponse{State: state, View: view}, nil
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	productID, _ := args["product_id"].(string)
	state, err := s.nav.Start(productID)
	if err != nil {
		return StepResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return s.respond(state, placeholdersFromArgs(args))
}

func (s *Server) handleRenderStep(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	stepID, _ := args["step_id"].(string)
	step, err := s.nav.Resolve(stepID)
	if err != nil {
		return StepResponse{}, fmt.Errorf("render failed: %w", err)
	}
	state := &domain.NavigationState{CurrentStepID: step.ID, ProductID: step.ProductID, BackStack: []string{}}
	return s.respond(state, placeholdersFromArgs(args))
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	state, err := stateFromArgs(args)
	if err != nil {
		return StepResponse{}, err
	}
	buttonID, _ := args["button_id"].(string)

	next, err := s.nav.Advance(state, buttonID)
	if err != nil {
		return StepResponse{}, fmt.Errorf("advance failed: %w", err)
	}
	return s.respond(next, placeholdersFromArgs(args))
}

func (s *Server) handleGoBack(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	state, err := stateFromArgs(args)
	if err != nil {
		return StepResponse{}, err
	}
	next, _ := s.nav.GoBack(state)
	return s.respond(next, placeholdersFromArgs(args))
}

func (s *Server) registerResources() {
	// EXPOSE: roteiro://products
	s.mcpServer.AddResource(mcp.NewResource("roteiro://products", "Available Products",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, _ := json.Marshal(s.source.GetProducts())
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "roteiro://products",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
