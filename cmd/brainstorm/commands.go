package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/brainstorm/internal/api"
	"github.com/kalambet/brainstorm/internal/board"
	"github.com/kalambet/brainstorm/internal/config"
	"github.com/kalambet/brainstorm/internal/docimport"
	"github.com/kalambet/brainstorm/internal/storage"
)

// resolveNoteID expands a unique id prefix, as printed by board show, to the
// full note id.
func resolveNoteID(ctx context.Context, c *apiClient, prefix string) (string, error) {
	view, err := fetchBoard(ctx, c)
	if err != nil {
		return "", err
	}
	var match string
	for _, n := range view.Notes {
		if n.ID == prefix {
			return n.ID, nil
		}
		if strings.HasPrefix(n.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("note id %q is ambiguous", prefix)
			}
			match = n.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no note matches %q", prefix)
	}
	return match, nil
}

func parseFloats(args ...string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

// --- board ---

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Inspect or reset the board",
}

var boardShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List notes in paint order, back to front",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		view, err := fetchBoard(cmd.Context(), client)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		}
		printBoard(view)
		return nil
	},
}

func printBoard(view api.BoardView) {
	if len(view.Notes) == 0 {
		fmt.Println("The board is empty.")
	}
	for _, n := range view.Notes {
		line := noteLine(n)
		if n.ID == view.Loading {
			line += colorize(colorCyan, " (thinking...)")
		}
		fmt.Println(line)
	}
	for _, s := range view.Segments {
		label := ""
		if s.Label != "" {
			label = " " + s.Label
		}
		fmt.Printf("%s  (%.0f,%.0f) → (%.0f,%.0f)%s\n",
			colorize(colorBold, "link "+shortID(s.ConnectorID)),
			s.Start.X, s.Start.Y, s.End.X, s.End.Y, label)
	}
	for _, f := range view.Frames {
		fmt.Printf("%s  %d notes  (%.0f,%.0f) %.0fx%.0f\n",
			colorize(colorBold, "group "+f.Name),
			f.Members, f.Bounds.X, f.Bounds.Y, f.Bounds.Width, f.Bounds.Height)
	}
	if view.Error != "" {
		printWarning("%s", view.Error)
	}
}

var boardResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove every note, connector and group",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This clears the whole board. Use --confirm to proceed.")
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/board/reset", nil)
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Board cleared")
		return nil
	},
}

func init() {
	boardShowCmd.Flags().Bool("json", false, "print the raw board view as JSON")
	boardResetCmd.Flags().Bool("confirm", false, "confirm board reset")
	boardCmd.AddCommand(boardShowCmd)
	boardCmd.AddCommand(boardResetCmd)
}

// --- idea ---

var ideaCmd = &cobra.Command{
	Use:   "idea",
	Short: "Add ideas to the board",
}

var ideaAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a note at a random spot",
	Long: `Add a note at a random spot on the board.

Examples:
  brainstorm idea add "offline mode for the mobile app"
  brainstorm idea add --file ./notes.txt
  brainstorm idea add --file ./meeting.pdf     # one note per paragraph`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		text := strings.Join(args, " ")
		if text == "" && file == "" {
			return fmt.Errorf("idea text or --file is required")
		}

		req, err := ideaRequest(text, file)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/board/ideas", req)
		if err != nil {
			return err
		}
		var added []board.Note
		if err := decodeJSON(resp, &added); err != nil {
			return err
		}

		for _, n := range added {
			fmt.Println(noteLine(n))
		}
		printSuccess("Added %d note(s)", len(added))
		return nil
	},
}

func ideaRequest(text, file string) (api.IdeaRequest, error) {
	if file == "" {
		return api.IdeaRequest{Type: docimport.TypeText, Content: text}, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return api.IdeaRequest{}, fmt.Errorf("reading file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(file), ".pdf") {
		return api.IdeaRequest{Type: docimport.TypePDF, Content: base64.StdEncoding.EncodeToString(data)}, nil
	}
	return api.IdeaRequest{Type: docimport.TypeText, Content: string(data)}, nil
}

func init() {
	ideaAddCmd.Flags().String("file", "", "text or PDF file to import")
	ideaCmd.AddCommand(ideaAddCmd)
}

// --- note ---

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Edit a note or ask for AI help with it",
}

// assistCmd builds the improve, expand and image subcommands.
func assistCmd(action, short, done string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			id, err := resolveNoteID(ctx, client, args[0])
			if err != nil {
				return err
			}

			printWarning("Waiting for the completion provider...")
			resp, err := client.post(ctx, "/board/notes/"+id+"/"+action, nil)
			if err != nil {
				return err
			}
			var view api.BoardView
			if err := decodeJSON(resp, &view); err != nil {
				return err
			}
			printSuccess(done, shortID(id))
			return nil
		},
	}
}

// gestureCmd builds the subcommands that post to a note gesture endpoint.
func gestureCmd(use, endpoint, short string, nargs int, body func(args []string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs + 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			req, err := body(args[1:])
			if err != nil {
				return err
			}
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			id, err := resolveNoteID(ctx, client, args[0])
			if err != nil {
				return err
			}

			resp, err := client.post(ctx, "/board/notes/"+id+"/"+endpoint, req)
			if err != nil {
				return err
			}
			var n board.Note
			if err := decodeJSON(resp, &n); err != nil {
				return err
			}
			fmt.Println(noteLine(n))
			return nil
		},
	}
}

var noteMoveCmd = gestureCmd("move <id> <x> <y>", "drag", "Move a note to x,y and bring it to front", 2,
	func(args []string) (any, error) {
		v, err := parseFloats(args...)
		if err != nil {
			return nil, err
		}
		return map[string]float64{"x": v[0], "y": v[1]}, nil
	})

var noteResizeCmd = gestureCmd("resize <id> <width> <height>", "resize", "Resize a note (clamped to 150..400 per side)", 2,
	func(args []string) (any, error) {
		v, err := parseFloats(args...)
		if err != nil {
			return nil, err
		}
		return map[string]float64{"width": v[0], "height": v[1]}, nil
	})

var noteColorCmd = gestureCmd("color <id> <color>", "color", "Set a note color (yellow, blue, green, pink, purple)", 1,
	func(args []string) (any, error) {
		c := board.Color(strings.ToLower(args[0]))
		if !c.Valid() {
			return nil, fmt.Errorf("unknown color %q", args[0])
		}
		return map[string]board.Color{"color": c}, nil
	})

var noteLinkCmd = gestureCmd("link <id> <url>", "link", "Attach a URL to a note", 1,
	func(args []string) (any, error) {
		return map[string]string{"url": args[0]}, nil
	})

var noteEditCmd = gestureCmd("edit <id> <text>", "content", "Replace a note's text", 1,
	func(args []string) (any, error) {
		return map[string]string{"content": args[0]}, nil
	})

var noteDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatchOnNote(cmd.Context(), args[0], func(id string) board.Action {
			return board.DeleteNote{ID: id}
		}, "Deleted note %s")
	},
}

var noteFrontCmd = &cobra.Command{
	Use:   "front <id>",
	Short: "Bring a note in front of all others",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatchOnNote(cmd.Context(), args[0], func(id string) board.Action {
			return board.BringToFront{ID: id}
		}, "Brought note %s to front")
	},
}

func dispatchOnNote(ctx context.Context, prefix string, action func(id string) board.Action, done string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	id, err := resolveNoteID(ctx, client, prefix)
	if err != nil {
		return err
	}
	if _, err := client.dispatch(ctx, action(id)); err != nil {
		return err
	}
	printSuccess(done, shortID(id))
	return nil
}

func init() {
	noteCmd.AddCommand(assistCmd("improve", "Rewrite a note to be more specific and actionable", "Improved note %s"))
	noteCmd.AddCommand(assistCmd("expand", "Add related notes next to a note", "Expanded note %s"))
	noteCmd.AddCommand(assistCmd("image", "Generate an image for a note", "Attached image to note %s"))
	noteCmd.AddCommand(noteMoveCmd)
	noteCmd.AddCommand(noteResizeCmd)
	noteCmd.AddCommand(noteColorCmd)
	noteCmd.AddCommand(noteLinkCmd)
	noteCmd.AddCommand(noteEditCmd)
	noteCmd.AddCommand(noteDeleteCmd)
	noteCmd.AddCommand(noteFrontCmd)
}

// --- connect / group ---

var connectCmd = &cobra.Command{
	Use:   "connect <from> <to>",
	Short: "Draw a connector between two notes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		label, _ := cmd.Flags().GetString("label")
		style, _ := cmd.Flags().GetString("style")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		from, err := resolveNoteID(ctx, client, args[0])
		if err != nil {
			return err
		}
		to, err := resolveNoteID(ctx, client, args[1])
		if err != nil {
			return err
		}

		applied, err := client.dispatch(ctx, board.AddConnector{Connector: board.Connector{
			StartID: from,
			EndID:   to,
			Label:   label,
			Style:   style,
		}})
		if err != nil {
			return err
		}
		if a, ok := applied.(board.AddConnector); ok {
			printSuccess("Connected %s → %s (%s)", shortID(from), shortID(to), shortID(a.Connector.ID))
		}
		return nil
	},
}

func init() {
	connectCmd.Flags().String("label", "", "connector label")
	connectCmd.Flags().String("style", "", "connector style")
}

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Organize notes into named groups",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create <name> <note-id>...",
	Short: "Create a group around the given notes",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(args)-1)
		for _, prefix := range args[1:] {
			id, err := resolveNoteID(ctx, client, prefix)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		applied, err := client.dispatch(ctx, board.AddGroup{Group: board.Group{Name: args[0], NoteIDs: ids}})
		if err != nil {
			return err
		}
		if a, ok := applied.(board.AddGroup); ok {
			printSuccess("Created group %q with %d notes (%s)", a.Group.Name, len(ids), shortID(a.Group.ID))
		}
		return nil
	},
}

func init() {
	groupCmd.AddCommand(groupCreateCmd)
}

// --- key ---

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the completion provider API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set <key>",
	Short: "Store the API key used for AI actions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(cmd.Context(), "/settings/api-key", map[string]string{"key": args[0]})
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("API key stored")
		return nil
	},
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show whether an API key is set",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/settings/api-key")
		if err != nil {
			return err
		}
		var status api.APIKeyStatus
		if err := decodeJSON(resp, &status); err != nil {
			return err
		}
		if !status.Set {
			printWarning("No API key set")
			return nil
		}
		printStatus("API key", "%s", status.Masked)
		return nil
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the stored API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/settings/api-key")
		if err != nil {
			return err
		}
		var status api.APIKeyStatus
		if err := decodeJSON(resp, &status); err != nil {
			return err
		}
		printSuccess("Stored API key removed")
		if status.Set {
			printWarning("A key from the environment or config is still in effect (%s)", status.Masked)
		}
		return nil
	},
}

func init() {
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyShowCmd)
	keyCmd.AddCommand(keyClearCmd)
}

// --- interactions ---

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "Browse the log of AI calls",
}

var interactionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent AI calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), fmt.Sprintf("/interactions?limit=%d", limit))
		if err != nil {
			return err
		}
		var interactions []storage.Interaction
		if err := decodeJSON(resp, &interactions); err != nil {
			return err
		}

		if len(interactions) == 0 {
			fmt.Println("No interactions found.")
			return nil
		}
		for _, ix := range interactions {
			status := colorize(colorGreen, ix.Status)
			if ix.Status == storage.StatusFailed {
				status = colorize(colorRed, ix.Status)
			}
			fmt.Printf("%s  %s  %-8s %s  note %s  %dms\n",
				colorize(colorCyan, shortID(ix.ID)),
				ix.CreatedAt.Format("2006-01-02 15:04:05"),
				ix.Action,
				status,
				shortID(ix.NoteID),
				ix.DurationMs,
			)
		}
		return nil
	},
}

var interactionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single AI call with its prompt and response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/interactions/"+args[0])
		if err != nil {
			return err
		}
		var interaction storage.Interaction
		if err := decodeJSON(resp, &interaction); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(interaction)
	},
}

var interactionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an AI call from the log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/interactions/"+args[0])
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Interaction %s deleted", args[0])
		return nil
	},
}

func init() {
	interactionsListCmd.Flags().Int("limit", 20, "maximum number of interactions to list")
	interactionsCmd.AddCommand(interactionsListCmd)
	interactionsCmd.AddCommand(interactionsShowCmd)
	interactionsCmd.AddCommand(interactionsDeleteCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg, config.NewSettings()) {
			source := "default"
			switch {
			case os.Getenv(k.EnvVar) != "":
				source = "env"
			case k.Stored:
				source = "stored"
			}
			fmt.Printf("  %s = %s  %s %s\n", colorize(colorBold, k.Key), k.Value, colorize(colorCyan, "$"+k.EnvVar), source)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetKey(config.NewSettings(), key, value); err != nil {
			return err
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a stored configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(config.NewSettings(), args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
