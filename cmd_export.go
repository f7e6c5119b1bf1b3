package main

import (
	"fmt"
	"io"
	"os"

	"github.com/chazu/spatial/pkg/canvas"
	"github.com/chazu/spatial/pkg/export"
	"github.com/chazu/spatial/pkg/store"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a space as JSON, YAML or SVG",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().String("space", "", "space id (default the active space)")
	exportCmd.Flags().StringP("format", "f", "", "json, yaml or svg (default from --output, else json)")
	exportCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	spaceID, _ := cmd.Flags().GetString("space")
	formatName, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	format := export.FormatJSON
	if formatName != "" {
		f, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}
		format = f
	} else if f, ok := export.FormatFromPath(output); ok {
		format = f
	}

	w, err := openWorkspace()
	if err != nil {
		return err
	}
	defer w.repo.Close()

	if spaceID != "" {
		if err := w.store.SetActiveSpace(spaceID); err != nil {
			return fmt.Errorf("space %q: %w", spaceID, err)
		}
	}
	active, _ := w.store.ActiveSpace()

	out := io.Writer(cmd.OutOrStdout())
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return writeSpace(out, w.store, w.controller(), active.ID, format)
}

// writeSpace encodes one space. SVG renders the space fitted to the
// controller's viewport.
func writeSpace(out io.Writer, st *store.Memory, ctrl *canvas.Controller, spaceID string, format export.Format) error {
	if format == export.FormatSVG {
		ctrl.Fit()
		return export.SVG(out, ctrl.Frame())
	}
	doc, err := st.ExportSpace(spaceID)
	if err != nil {
		return err
	}
	return export.Encode(out, doc, format)
}
