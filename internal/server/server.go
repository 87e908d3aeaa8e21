// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"
	"go.uber.org/zap"

	"meal-sync/internal/mealsync"
	"meal-sync/internal/models"
)

// errInvalidParams marks tool errors caused by the caller's arguments.
var errInvalidParams = errors.New("invalid parameters")

type Config struct {
	Host         string
	Port         int
	Version      string
	DefaultDates []string
}

// Runner is the sync pipeline exposed over MCP.
type Runner interface {
	Run(ctx context.Context, dates []string) (mealsync.Report, error)
	Deliveries(ctx context.Context, date string) ([]models.Delivery, error)
}

type toolHandler func(context.Context, *protocol.CallToolRequest) (*protocol.CallToolResult, error)

type SyncServer struct {
	server     *server.Server
	httpServer *http.Server
	runner     Runner
	config     *Config
	logger     *zap.Logger
	tools      map[string]toolHandler

	// runMu serializes sync runs.
	runMu sync.Mutex
}

func NewSyncServer(cfg *Config, runner Runner, logger *zap.Logger) (*SyncServer, error) {
	if runner == nil {
		return nil, errors.New("server: runner is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	version := cfg.Version
	if version == "" {
		version = "1.0.0"
	}

	syncServer := &SyncServer{
		runner: runner,
		config: cfg,
		logger: logger,
	}

	// Tool calls are routed by handleHTTP; the MCP server carries identity only.
	mcpServer, err := server.NewServer(
		nil,
		server.WithServerInfo(protocol.Implementation{
			Name:    "meal-sync",
			Version: version,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	syncServer.server = mcpServer

	if err := syncServer.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", syncServer.handleHTTP)

	syncServer.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: mux,
	}

	return syncServer, nil
}

func (s *SyncServer) handleHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	handler, ok := s.tools[request.Name]
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	logger := s.logger.With(zap.String("tool", request.Name))
	result, err := handler(r.Context(), &request)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errInvalidParams) {
			status = http.StatusBadRequest
		}
		logger.Warn("tool call failed", zap.Int("status", status), zap.Error(err))
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *SyncServer) Start(ctx context.Context) error {
	s.logger.Info("starting meal sync server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *SyncServer) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *SyncServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
