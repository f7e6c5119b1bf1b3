package main

import (
	"os"
	"path/filepath"

	"github.com/chazu/spatial/pkg/console"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Drive the canvas from a command prompt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w, err := openWorkspace()
		if err != nil {
			return err
		}
		defer w.Close()
		w.autosave()

		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "canvas> ",
			HistoryFile:     filepath.Join(filepath.Dir(w.cfg.DBPath), "console_history"),
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return err
		}
		defer rl.Close()

		c := console.New(w.store, w.controller(), os.Stdout,
			console.WithLogger(w.log),
			console.WithSave(func() error { return w.repo.Save(w.store.Export()) }),
		)
		return c.Run(rl)
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
