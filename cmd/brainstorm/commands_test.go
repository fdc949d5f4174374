package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/kalambet/brainstorm/internal/api"
	"github.com/kalambet/brainstorm/internal/assist"
	"github.com/kalambet/brainstorm/internal/board"
	"github.com/kalambet/brainstorm/internal/completion"
	"github.com/kalambet/brainstorm/internal/config"
	"github.com/kalambet/brainstorm/internal/credential"
	"github.com/kalambet/brainstorm/internal/storage"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

type stubCompleter struct {
	reply string
}

func (s stubCompleter) Complete(context.Context, string, completion.Kind) (string, error) {
	return s.reply, nil
}

// liveBoard serves the real API over an in-memory board and points the CLI
// client at it.
func liveBoard(t *testing.T, reply string) *board.Store {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	b := board.NewStore()
	srv := httptest.NewServer(api.NewHandler(api.Deps{
		Board:       b,
		Assist:      assist.New(b, stubCompleter{reply: reply}, store, 2),
		Credentials: credential.NewPersistent(store),
		History:     store,
		Token:       "test-token",
	}))
	t.Cleanup(srv.Close)

	old := newAPIClient
	newAPIClient = func() (*apiClient, error) {
		return &apiClient{baseURL: srv.URL, token: "test-token", httpClient: srv.Client()}, nil
	}
	t.Cleanup(func() { newAPIClient = old })
	return b
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	defer rootCmd.SetArgs(nil)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func addNote(b *board.Store, id, content string) {
	n := board.NewNote(content, board.Position{X: 10, Y: 10})
	n.ID = id
	b.Dispatch(board.AddNote{Note: n})
}

var ctx = context.Background()

func TestAPIClientAuth(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health": `{"status":"ok"}`,
	})

	client := ts.client()
	client.token = "my-secret-token"

	resp, err := client.get(ctx, "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	if ts.requests[0].Auth != "Bearer my-secret-token" {
		t.Errorf("auth = %q, want 'Bearer my-secret-token'", ts.requests[0].Auth)
	}
}

func TestDispatchSendsWireAction(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /board/actions": `{"type":"DELETE_NOTE","payload":{"id":"n1"}}`,
	})

	applied, err := ts.client().dispatch(ctx, board.DeleteNote{ID: "n1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied != (board.DeleteNote{ID: "n1"}) {
		t.Errorf("applied = %#v", applied)
	}

	var sent board.WireAction
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &sent); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if sent.Type != "DELETE_NOTE" {
		t.Errorf("type = %q, want DELETE_NOTE", sent.Type)
	}
}

func TestStatusCommand_Stopped(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	ts.server.Close()

	_, err := ts.client().get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestDecodeJSON_ErrorEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		w.Write([]byte(`{"error":{"message":"no API key configured","type":"missing_credential"}}`))
	}))
	defer ts.Close()

	client := &apiClient{baseURL: ts.URL, token: "t", httpClient: ts.Client()}
	resp, err := client.post(ctx, "/board/notes/x/improve", nil)
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var result any
	err = decodeJSON(resp, &result)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	for _, want := range []string{"401", "no API key configured", "missing_credential"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error = %q, want it to contain %q", err.Error(), want)
		}
	}
}

func TestResolveNoteID(t *testing.T) {
	b := liveBoard(t, "")
	addNote(b, "abc-111", "one")
	addNote(b, "abc-222", "two")
	addNote(b, "def-333", "three")
	client, _ := newAPIClient()

	tests := []struct {
		prefix  string
		want    string
		wantErr string
	}{
		{"def", "def-333", ""},
		{"abc-2", "abc-222", ""},
		{"abc-111", "abc-111", ""},
		{"abc", "", "ambiguous"},
		{"zzz", "", "no note matches"},
	}
	for _, tt := range tests {
		got, err := resolveNoteID(ctx, client, tt.prefix)
		if tt.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("resolveNoteID(%q) error = %v, want %q", tt.prefix, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("resolveNoteID(%q) = %q, %v; want %q", tt.prefix, got, err, tt.want)
		}
	}
}

func TestIdeaAddCommand(t *testing.T) {
	b := liveBoard(t, "")

	if err := execute(t, "idea", "add", "ship", "it"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := b.Snapshot()
	if len(snap.Notes) != 1 || snap.Notes[0].Content != "ship it" {
		t.Fatalf("notes = %+v, want one note 'ship it'", snap.Notes)
	}
}

func TestIdeaAddCommand_MissingArgs(t *testing.T) {
	liveBoard(t, "")

	err := execute(t, "idea", "add")
	if err == nil {
		t.Fatal("expected error for missing args")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q, want it to mention 'required'", err.Error())
	}
}

func TestIdeaRequest_PDFIsBase64(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.PDF")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	req, err := ideaRequest("", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Type != "pdf" {
		t.Errorf("type = %q, want pdf", req.Type)
	}
	raw, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil || string(raw) != "%PDF-1.4" {
		t.Errorf("content = %q, want base64 of the file", req.Content)
	}
}

func TestNoteCommands(t *testing.T) {
	b := liveBoard(t, "Sharper idea")
	addNote(b, "note-1", "idea")
	addNote(b, "note-2", "other")

	steps := [][]string{
		{"note", "move", "note-1", "300", "120"},
		{"note", "resize", "note-1", "1000", "100"},
		{"note", "color", "note-1", "Pink"},
		{"note", "link", "note-1", "https://example.com"},
		{"note", "improve", "note-1"},
	}
	for _, args := range steps {
		if err := execute(t, args...); err != nil {
			t.Fatalf("%v: unexpected error: %v", args, err)
		}
	}

	n, _ := b.Note("note-1")
	if n.Position != (board.Position{X: 300, Y: 120}) {
		t.Errorf("position = %+v", n.Position)
	}
	if n.Size != (board.Size{Width: 400, Height: 150}) {
		t.Errorf("size = %+v, want clamped 400x150", n.Size)
	}
	if n.Color != board.ColorPink {
		t.Errorf("color = %q, want pink", n.Color)
	}
	if n.Link != "https://example.com" {
		t.Errorf("link = %q", n.Link)
	}
	if n.Content != "Sharper idea" {
		t.Errorf("content = %q, want improved text", n.Content)
	}
	if order := board.PaintOrder(b.Snapshot().Notes); order[len(order)-1].ID != "note-1" {
		t.Error("moved note should be in front")
	}

	if err := execute(t, "note", "color", "note-2", "orange"); err == nil {
		t.Error("expected error for color outside the palette")
	}
	if err := execute(t, "note", "delete", "note-2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := b.Note("note-2"); ok {
		t.Error("note-2 should be deleted")
	}
}

func TestConnectAndGroupCommands(t *testing.T) {
	b := liveBoard(t, "")
	addNote(b, "aaa-1", "a")
	addNote(b, "bbb-2", "b")

	if err := execute(t, "connect", "aaa", "bbb", "--label", "leads to"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := execute(t, "group", "create", "pair", "aaa", "bbb"); err != nil {
		t.Fatalf("group: %v", err)
	}

	snap := b.Snapshot()
	if len(snap.Connectors) != 1 {
		t.Fatalf("connectors = %d, want 1", len(snap.Connectors))
	}
	c := snap.Connectors[0]
	if c.ID == "" || c.StartID != "aaa-1" || c.EndID != "bbb-2" || c.Label != "leads to" {
		t.Errorf("connector = %+v", c)
	}
	if len(snap.Groups) != 1 || snap.Groups[0].Name != "pair" || len(snap.Groups[0].NoteIDs) != 2 {
		t.Errorf("groups = %+v", snap.Groups)
	}
}

func TestExportFormat(t *testing.T) {
	tests := []struct {
		format, output, want string
	}{
		{"", "", "json"},
		{"", "board.yml", "yaml"},
		{"", "out/board.PNG", "png"},
		{"YAML", "board.json", "yaml"},
		{"yml", "", "yaml"},
	}
	for _, tt := range tests {
		got, err := exportFormat(tt.format, tt.output)
		if err != nil || got != tt.want {
			t.Errorf("exportFormat(%q, %q) = %q, %v; want %q", tt.format, tt.output, got, err, tt.want)
		}
	}
	if _, err := exportFormat("svg", ""); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteSnapshotYAMLUsesJSONNames(t *testing.T) {
	n := board.NewNote("idea", board.Position{X: 1, Y: 2})
	n.ImageURL = "https://img"
	snap := board.Snapshot{Notes: []board.Note{n}}

	var buf bytes.Buffer
	if err := writeSnapshot(&buf, formatYAML, snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "imageUrl: https://img") {
		t.Errorf("yaml missing imageUrl key:\n%s", buf.String())
	}

	var doc struct {
		Notes []struct {
			ID      string `yaml:"id"`
			Content string `yaml:"content"`
		} `yaml:"notes"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if len(doc.Notes) != 1 || doc.Notes[0].ID != n.ID || doc.Notes[0].Content != "idea" {
		t.Errorf("decoded = %+v", doc)
	}
}

func TestExportPNGCommand(t *testing.T) {
	b := liveBoard(t, "")
	addNote(b, "n1", "draw me")

	out := filepath.Join(t.TempDir(), "board.png")
	if err := execute(t, "export", "--output", out); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestNoteLine(t *testing.T) {
	old := noColor
	noColor = true
	defer func() { noColor = old }()

	n := board.NewNote(strings.Repeat("word ", 20), board.Position{X: 5, Y: 6})
	n.ID = "0123456789abcdef"
	n.Link = "https://x"
	line := noteLine(n)

	for _, want := range []string{"01234567 ", "(5,6) 200x200", "...", "→ https://x"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

// useTestServer points the CLI client at ts for the rest of the test.
func useTestServer(t *testing.T, ts *testServer) {
	t.Helper()
	old := newAPIClient
	newAPIClient = func() (*apiClient, error) { return ts.client(), nil }
	t.Cleanup(func() { newAPIClient = old })
}

func TestKeyClearCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"DELETE /settings/api-key": `{"set":false}`,
	})
	useTestServer(t, ts)

	if err := execute(t, "key", "clear"); err != nil {
		t.Fatalf("key clear: %v", err)
	}
	if len(ts.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(ts.requests))
	}
	if got := ts.requests[0]; got.Method != http.MethodDelete || got.Path != "/settings/api-key" {
		t.Errorf("request = %s %s", got.Method, got.Path)
	}
}

func TestInteractionsDeleteCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"DELETE /interactions/ix-1": `{"status":"deleted"}`,
	})
	useTestServer(t, ts)

	if err := execute(t, "interactions", "delete", "ix-1"); err != nil {
		t.Fatalf("interactions delete: %v", err)
	}
	if got := ts.requests[0]; got.Method != http.MethodDelete || got.Path != "/interactions/ix-1" {
		t.Errorf("request = %s %s", got.Method, got.Path)
	}

	err := execute(t, "interactions", "delete", "ix-missing")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("missing interaction err = %v, want 404", err)
	}
}

func TestConfigShowAll(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.Port = 4000
	cfg.Completion.Model = "gpt-4o-mini"

	found := false
	for _, k := range config.ShowAll(cfg, nil) {
		if k.Key == "server.port" && k.Value == "4000" {
			found = true
		}
	}
	if !found {
		t.Error("expected to find server.port=4000 in ShowAll output")
	}
}

func TestCountLabel(t *testing.T) {
	tests := []struct {
		count, limit int
		want         string
	}{
		{5, 100, "5"},
		{0, 100, "0"},
		{100, 100, "100+"},
		{150, 100, "150+"},
	}
	for _, tt := range tests {
		got := countLabel(tt.count, tt.limit)
		if got != tt.want {
			t.Errorf("countLabel(%d, %d) = %q, want %q", tt.count, tt.limit, got, tt.want)
		}
	}
}
