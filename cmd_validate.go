package main

import (
	"fmt"

	"github.com/chazu/spatial/pkg/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
	okColor   = color.New(color.FgGreen)
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the saved canvas for structural problems",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()
		log.WithField("db", cfg.DBPath).Debug("validating")

		doc, err := repo.Load()
		if err != nil {
			return err
		}
		findings := store.Validate(doc)
		if report(cmd, findings) > 0 {
			return fmt.Errorf("%d errors", len(store.Errors(findings)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// report prints findings and returns the number of errors among them.
func report(cmd *cobra.Command, findings []store.ValidationError) int {
	out := cmd.OutOrStdout()
	if len(findings) == 0 {
		okColor.Fprintln(out, "ok")
		return 0
	}
	errs := 0
	for _, f := range findings {
		if f.Severity == store.SeverityError {
			errs++
			errColor.Fprintln(out, f.Error())
			continue
		}
		warnColor.Fprintln(out, f.Error())
	}
	return errs
}
