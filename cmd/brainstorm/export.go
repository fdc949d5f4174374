package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kalambet/brainstorm/internal/api"
	"github.com/kalambet/brainstorm/internal/board"
	"github.com/kalambet/brainstorm/internal/render"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatPNG  = "png"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a snapshot of the board as JSON, YAML or PNG",
	Long: `Write a one-way snapshot of the board.

The format defaults to the output file extension, or json on stdout.

Examples:
  brainstorm export > board.json
  brainstorm export --output board.yaml
  brainstorm export --format png --output board.png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")
		format, err := exportFormat(format, output)
		if err != nil {
			return err
		}
		if format == formatPNG && output == "" {
			return fmt.Errorf("png export needs --output")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		view, err := fetchBoard(cmd.Context(), client)
		if err != nil {
			return err
		}

		if format == formatPNG {
			if err := render.SavePNG(output, snapshotOf(view)); err != nil {
				return err
			}
			printSuccess("Board exported to %s", output)
			return nil
		}

		var w io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			w = f
		}
		if err := writeSnapshot(w, format, snapshotOf(view)); err != nil {
			return err
		}
		if output != "" {
			printSuccess("Board exported to %s", output)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "", "json, yaml or png")
	exportCmd.Flags().String("output", "", "output file path (default: stdout)")
}

func exportFormat(format, output string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".yaml", ".yml":
			return formatYAML, nil
		case ".png":
			return formatPNG, nil
		default:
			return formatJSON, nil
		}
	}
	switch f := strings.ToLower(format); f {
	case formatJSON, formatYAML, formatPNG:
		return f, nil
	case "yml":
		return formatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, yaml or png)", format)
}

func snapshotOf(view api.BoardView) board.Snapshot {
	return board.Snapshot{
		Notes:      view.Notes,
		Connectors: view.Connectors,
		Groups:     view.Groups,
	}
}

// writeSnapshot encodes snap. YAML goes through the JSON form so both
// formats share the same field names.
func writeSnapshot(w io.Writer, format string, snap board.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if format == formatJSON {
		_, err := w.Write(append(data, '\n'))
		return err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
