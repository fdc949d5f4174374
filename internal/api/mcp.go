package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/brainstorm/internal/assist"
	"github.com/kalambet/brainstorm/internal/board"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Board  *board.Store
	Assist *assist.Facade
}

// NewMCPServer creates an MCP server exposing the board as tools and a
// snapshot resource.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"brainstorm",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("brainstorm: a board of sticky notes. Add ideas, rearrange them, and ask for AI help on a note."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("add_idea",
			mcp.WithDescription("Add a note with the given text at a random spot on the board."),
			mcp.WithString("text", mcp.Description("The idea text"), mcp.Required()),
		),
		mcpAddIdea(deps),
	)

	s.AddTool(
		mcp.NewTool("dispatch_action",
			mcp.WithDescription("Dispatch one board action, e.g. UPDATE_NOTE or ADD_CONNECTOR."),
			mcp.WithString("type", mcp.Description("Action type tag"), mcp.Required()),
			mcp.WithString("payload", mcp.Description("JSON object payload for the action")),
		),
		mcpDispatchAction(deps),
	)

	for _, t := range []struct {
		name, desc string
		run        func(context.Context, string) error
	}{
		{"improve_note", "Rewrite a note's text to be more specific and actionable.", deps.Assist.Improve},
		{"expand_note", "Add related notes next to a note, one per idea returned.", deps.Assist.Expand},
		{"generate_image", "Generate an image for a note and attach its URL.", deps.Assist.GenerateImage},
	} {
		s.AddTool(
			mcp.NewTool(t.name,
				mcp.WithDescription(t.desc),
				mcp.WithString("note_id", mcp.Description("Target note id"), mcp.Required()),
			),
			mcpAssist(deps, t.run),
		)
	}

	s.AddResource(
		mcp.NewResource(
			"board://snapshot",
			"Board Snapshot",
			mcp.WithResourceDescription("Current notes, connectors and groups as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceSnapshot(deps),
	)

	return s
}

func mcpAddIdea(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		n, err := deps.Assist.AddIdea(text)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to add idea: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Added note %s", n.ID)), nil
	}
}

func mcpDispatchAction(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		typ, err := req.RequireString("type")
		if err != nil {
			return mcpError("type is required"), nil
		}
		wire := board.WireAction{Type: typ}
		if p := req.GetString("payload", ""); p != "" {
			if !json.Valid([]byte(p)) {
				return mcpError("payload must be a JSON object"), nil
			}
			wire.Payload = json.RawMessage(p)
		}

		a, err := wire.Action()
		if err != nil {
			return mcpError(err.Error()), nil
		}
		a = withIDs(a)
		deps.Board.Dispatch(a)

		if u, ok := a.(board.Unknown); ok {
			return mcpError(fmt.Sprintf("unknown action type %q was ignored", u.Tag)), nil
		}
		out, err := board.EncodeAction(a)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal action: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAssist(deps MCPDeps, run func(context.Context, string) error) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("note_id")
		if err != nil {
			return mcpError("note_id is required"), nil
		}
		if err := run(ctx, id); err != nil {
			return mcpError(err.Error()), nil
		}
		n, ok := deps.Board.Note(id)
		if !ok {
			return mcpText("Done; the note has since been deleted."), nil
		}
		b, err := json.Marshal(n)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal note: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceSnapshot(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(NewBoardView(deps.Board.Snapshot(), deps.Assist))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal board: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
