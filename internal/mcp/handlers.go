package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/opoerator/drop/internal/errors"
	"github.com/opoerator/drop/internal/hub"
	"github.com/opoerator/drop/internal/record"
)

// Hub is the subset of the hub client the tools need.
type Hub interface {
	Create(ctx context.Context, in hub.CreateInput) (*record.Record, error)
	List(ctx context.Context, in hub.ListInput) ([]record.Record, error)
	Read(ctx context.Context, id string) (*record.Record, error)
}

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	hub Hub
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(h Hub) *Handlers {
	return &Handlers{hub: h}
}

// Request types for each tool

// CreateRequest represents the arguments for drop_create.
type CreateRequest struct {
	FromAgent string   `json:"from_agent,omitempty"`
	Title     string   `json:"title,omitempty"`
	Content   string   `json:"content"`
	DropType  string   `json:"drop_type,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

func (r CreateRequest) validate() *errors.DropError {
	if r.Content == "" {
		return errors.NewConfig("content is required")
	}
	return nil
}

// ListRequest represents the arguments for drop_list.
type ListRequest struct {
	FromAgent string `json:"from_agent,omitempty"`
	DropType  string `json:"drop_type,omitempty"`
	Since     string `json:"since,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// ReadRequest represents the arguments for drop_read.
type ReadRequest struct {
	ID string `json:"id"`
}

func (r ReadRequest) validate() *errors.DropError {
	if r.ID == "" {
		return errors.NewConfig("id is required")
	}
	return nil
}

// HandleCreate handles the drop_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, dErr := decodeArgs[CreateRequest](req)
	if dErr != nil {
		return errorResult(dErr), nil
	}

	// Resolve defaults and the title fallback the same way the CLI does.
	rec := record.New(record.NewInput{
		Content: input.Content,
		Sender:  input.FromAgent,
		Type:    input.DropType,
		Title:   input.Title,
		Tags:    input.Tags,
	})

	result, err := h.hub.Create(ctx, hub.CreateInput{
		FromAgent: rec.From,
		Title:     rec.Title,
		Content:   input.Content,
		DropType:  rec.Type,
		Tags:      input.Tags,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the drop_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, dErr := decodeArgs[ListRequest](req)
	if dErr != nil {
		return errorResult(dErr), nil
	}

	drops, err := h.hub.List(ctx, hub.ListInput{
		FromAgent: input.FromAgent,
		DropType:  input.DropType,
		Since:     input.Since,
		Limit:     input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"drops": drops})
}

// HandleRead handles the drop_read tool call.
func (h *Handlers) HandleRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, dErr := decodeArgs[ReadRequest](req)
	if dErr != nil {
		return errorResult(dErr), nil
	}

	rec, err := h.hub.Read(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(rec)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if dErr, ok := err.(*errors.DropError); ok {
		errorObj := map[string]any{
			"code":    dErr.Code,
			"message": dErr.Message,
			"status":  dErr.Status,
		}
		// Internal details may carry file paths; keep those out of tool output.
		if dErr.Code != errors.ErrInternal && dErr.Details != nil {
			errorObj["details"] = dErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
