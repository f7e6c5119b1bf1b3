package main

import (
	"fmt"
	"os"

	"github.com/chazu/spatial/pkg/engine"
	"github.com/chazu/spatial/pkg/export"
	"github.com/chazu/spatial/pkg/store"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the saved canvas with a layout script or JSON/YAML document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := readDocument(args[0])
		if err != nil {
			return err
		}
		if errs := store.Errors(store.Validate(doc)); len(errs) > 0 {
			report(cmd, errs)
			return fmt.Errorf("%s: %d errors", args[0], len(errs))
		}

		_, log, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()
		if err := repo.Save(doc); err != nil {
			return err
		}
		log.WithField("file", args[0]).Info("imported")
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d spaces, %d nodes\n", len(doc.Spaces), len(doc.Nodes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

// readDocument decodes a JSON or YAML document by extension. Anything else
// is evaluated as a layout script.
func readDocument(path string) (store.Document, error) {
	if format, ok := export.FormatFromPath(path); ok && format != export.FormatSVG {
		f, err := os.Open(path)
		if err != nil {
			return store.Document{}, err
		}
		defer f.Close()
		return export.Decode(f, format)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return store.Document{}, err
	}
	return evalLayout(engine.NewEngine(), string(data))
}
