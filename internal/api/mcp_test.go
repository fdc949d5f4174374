package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/brainstorm/internal/assist"
	"github.com/kalambet/brainstorm/internal/board"
	"github.com/kalambet/brainstorm/internal/completion"
)

// --- helpers ---

func newTestMCPDeps(t *testing.T) (MCPDeps, *stubCompleter) {
	t.Helper()
	b := board.NewStore()
	c := &stubCompleter{}
	return MCPDeps{Board: b, Assist: assist.New(b, c, nil, 1)}, c
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// --- tests ---

func TestNewMCPServer(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	if s := NewMCPServer(deps); s == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}

func TestMCPTool_AddIdea(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	handler := mcpAddIdea(deps)

	result, err := handler(context.Background(), makeCallToolRequest("add_idea", map[string]interface{}{
		"text": "weekly demo day",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	snap := deps.Board.Snapshot()
	if len(snap.Notes) != 1 || snap.Notes[0].Content != "weekly demo day" {
		t.Fatalf("notes = %+v", snap.Notes)
	}
	if !strings.Contains(toolText(t, result), snap.Notes[0].ID) {
		t.Errorf("response %q does not name the note id", toolText(t, result))
	}
}

func TestMCPTool_AddIdea_Blank(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	result, _ := mcpAddIdea(deps)(context.Background(), makeCallToolRequest("add_idea", map[string]interface{}{
		"text": "  ",
	}))
	if !result.IsError {
		t.Fatal("expected tool error for blank idea")
	}
}

func TestMCPTool_DispatchAction(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	handler := mcpDispatchAction(deps)

	result, err := handler(context.Background(), makeCallToolRequest("dispatch_action", map[string]interface{}{
		"type":    "ADD_NOTE",
		"payload": `{"content":"from mcp","position":{"x":5,"y":5}}`,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var out board.WireAction
	if err := json.Unmarshal([]byte(toolText(t, result)), &out); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	var n board.Note
	if err := json.Unmarshal(out.Payload, &n); err != nil {
		t.Fatal(err)
	}
	if n.ID == "" {
		t.Error("note id not assigned")
	}
	if got, ok := deps.Board.Note(n.ID); !ok || got.Content != "from mcp" {
		t.Errorf("stored note = %+v, %v", got, ok)
	}
}

func TestMCPTool_DispatchAction_Unknown(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	result, _ := mcpDispatchAction(deps)(context.Background(), makeCallToolRequest("dispatch_action", map[string]interface{}{
		"type": "TELEPORT",
	}))
	if !result.IsError {
		t.Fatal("expected tool error for unknown action")
	}
}

func TestMCPTool_DispatchAction_BadPayload(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	result, _ := mcpDispatchAction(deps)(context.Background(), makeCallToolRequest("dispatch_action", map[string]interface{}{
		"type":    "ADD_NOTE",
		"payload": "{not json",
	}))
	if !result.IsError {
		t.Fatal("expected tool error for invalid payload")
	}
}

func TestMCPTool_Improve(t *testing.T) {
	deps, c := newTestMCPDeps(t)
	n := board.NewNote("draft", board.Position{})
	deps.Board.Dispatch(board.AddNote{Note: n})
	c.out = "polished"

	result, err := mcpAssist(deps, deps.Assist.Improve)(context.Background(), makeCallToolRequest("improve_note", map[string]interface{}{
		"note_id": n.ID,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}
	if got, _ := deps.Board.Note(n.ID); got.Content != "polished" {
		t.Errorf("content = %q", got.Content)
	}
}

func TestMCPTool_MissingCredential(t *testing.T) {
	deps, c := newTestMCPDeps(t)
	n := board.NewNote("draft", board.Position{})
	deps.Board.Dispatch(board.AddNote{Note: n})
	c.err = completion.ErrMissingCredential

	result, _ := mcpAssist(deps, deps.Assist.Expand)(context.Background(), makeCallToolRequest("expand_note", map[string]interface{}{
		"note_id": n.ID,
	}))
	if !result.IsError {
		t.Fatal("expected tool error")
	}
	if deps.Board.NoteCount() != 1 {
		t.Errorf("notes = %d, want 1", deps.Board.NoteCount())
	}
}

func TestMCPResource_Snapshot(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	deps.Board.Dispatch(board.AddNote{Note: board.NewNote("x", board.Position{})})

	contents, err := mcpResourceSnapshot(deps)(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "board://snapshot"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	var view BoardView
	if err := json.Unmarshal([]byte(tc.Text), &view); err != nil {
		t.Fatalf("parsing snapshot: %v", err)
	}
	if len(view.Notes) != 1 {
		t.Errorf("notes = %d, want 1", len(view.Notes))
	}
}
