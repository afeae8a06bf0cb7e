package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"voiceowl/backend/internal/services"
	"voiceowl/backend/internal/workflow"
)

type Server struct {
	mcpServer      *server.MCPServer
	transcriptions *services.TranscriptionService
	engine         *workflow.Engine
}

func NewServer(transcriptions *services.TranscriptionService, engine *workflow.Engine) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"VoiceOwl Transcription",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		transcriptions: transcriptions,
		engine:         engine,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_transcription",
			mcp.WithDescription("Download and transcribe an audio file, creating a new record"),
			mcp.WithString("audioUrl", mcp.Required(), mcp.Description("URL of the audio to transcribe")),
		),
		s.handleCreateTranscription,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"start_workflow",
			mcp.WithDescription("Start the review workflow for a transcription record"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The id of the transcription record")),
		),
		s.handleStartWorkflow,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_workflow",
			mcp.WithDescription("Get the current review workflow state of a transcription record"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The id of the transcription record")),
		),
		s.handleGetWorkflow,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"recent_transcriptions",
			mcp.WithDescription("List transcription records created in the last 30 days"),
		),
		s.handleRecentTranscriptions,
	)
}

func (s *Server) handleCreateTranscription(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	audioURL, ok := args["audioUrl"].(string)
	if !ok || audioURL == "" {
		return mcp.NewToolResultError("Missing required parameter: audioUrl"), nil
	}

	rec, err := s.transcriptions.CreateFromURL(ctx, audioURL)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to transcribe: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(rec)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleStartWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}

	rec, err := s.engine.Start(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to start workflow: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(rec)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}

	rec, err := s.engine.GetWorkflow(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get workflow: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(rec.Workflow)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleRecentTranscriptions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := s.transcriptions.GetRecent(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list transcriptions: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(records)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
