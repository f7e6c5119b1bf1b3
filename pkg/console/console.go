// Package console drives the canvas from a line-oriented REPL. Every
// command is translated into the same controller calls the desktop shell
// makes, which makes it handy for scripting interaction scenarios.
package console

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chazu/spatial/pkg/canvas"
	"github.com/chazu/spatial/pkg/store"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// ErrExit is returned by Exec for the exit command.
var ErrExit = errors.New("exit requested")

// Output colours.
var (
	Title  = color.New(color.FgHiGreen, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Info   = color.New(color.FgCyan)
	Bad    = color.New(color.FgRed)
)

// Console executes text commands against a store and its controller.
type Console struct {
	store *store.Memory
	ctrl  *canvas.Controller
	out   io.Writer
	log   logrus.FieldLogger
	save  func() error
}

// Option configures a Console.
type Option func(*Console)

// WithSave sets the function run by the save command.
func WithSave(fn func() error) Option {
	return func(c *Console) { c.save = fn }
}

// WithLogger sets the console's logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Console) { c.log = l }
}

// New returns a console writing to out.
func New(st *store.Memory, ctrl *canvas.Controller, out io.Writer, opts ...Option) *Console {
	c := &Console{store: st, ctrl: ctrl, out: out, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run reads commands from rl until EOF, interrupt or exit. Command errors
// are printed and do not stop the loop.
func (c *Console) Run(rl *readline.Instance) error {
	fmt.Fprintf(c.out, "%s canvas console. Type 'help' for commands.\n", Title.Sprint("spatial"))
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := c.Exec(line); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			fmt.Fprintln(c.out, Bad.Sprint("error: ")+err.Error())
		}
	}
}

// ParseArgs splits a command line on spaces, keeping double-quoted runs
// together.
func ParseArgs(input string) []string {
	var args []string
	var current strings.Builder
	inQuotes, quoted := false, false

	flush := func() {
		if current.Len() > 0 || quoted {
			args = append(args, current.String())
			current.Reset()
		}
		quoted = false
	}
	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			quoted = true
		case (r == ' ' || r == '\t') && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return args
}

// Exec runs one command line.
func (c *Console) Exec(line string) error {
	args := ParseArgs(strings.TrimSpace(line))
	if len(args) == 0 {
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	if len(args)-1 < cmd.minArgs {
		return fmt.Errorf("usage: %s", cmd.usage)
	}
	c.log.WithField("command", args[0]).Debug("console: exec")
	return cmd.run(c, args[1:])
}

type command struct {
	usage   string
	minArgs int
	run     func(c *Console, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"press":    {"press X Y [middle|right] [shift|meta|ctrl]...", 2, (*Console).press},
		"move":     {"move X Y", 2, (*Console).move},
		"release":  {"release X Y", 2, (*Console).release},
		"leave":    {"leave", 0, func(c *Console, _ []string) error { c.ctrl.Leave(); return nil }},
		"click":    {"click X Y [shift|meta]", 2, (*Console).click},
		"dblclick": {"dblclick X Y", 2, (*Console).dblclick},
		"drag":     {"drag X1 Y1 X2 Y2", 4, (*Console).drag},
		"wheel":    {"wheel X Y DX DY [zoom]", 4, (*Console).wheel},
		"mode":     {"mode pan|select", 1, (*Console).mode},
		"fit":      {"fit", 0, func(c *Console, _ []string) error { c.ctrl.Fit(); return c.view() }},
		"zoomin":   {"zoomin", 0, func(c *Console, _ []string) error { c.ctrl.ZoomIn(); return c.view() }},
		"zoomout":  {"zoomout", 0, func(c *Console, _ []string) error { c.ctrl.ZoomOut(); return c.view() }},
		"view":     {"view", 0, func(c *Console, _ []string) error { return c.view() }},
		"show":     {"show", 0, func(c *Console, _ []string) error { return c.show() }},
		"spaces":   {"spaces", 0, func(c *Console, _ []string) error { return c.spaces() }},
		"recent":   {"recent [N]", 0, (*Console).recent},
		"space":    {"space ID", 1, func(c *Console, a []string) error { return c.store.SetActiveSpace(a[0]) }},
		"newspace": {"newspace NAME", 1, (*Console).newSpace},
		"add":      {"add", 0, func(c *Console, _ []string) error { c.ctrl.AddProject(); return nil }},
		"child":    {"child ID", 1, func(c *Console, a []string) error { c.ctrl.AddChild(canvas.NodeID(a[0])); return nil }},
		"group":    {"group", 0, (*Console).group},
		"collapse": {"collapse ID", 1, func(c *Console, a []string) error { c.ctrl.ToggleCollapse(canvas.NodeID(a[0])); return nil }},
		"icon":     {"icon ID", 1, func(c *Console, a []string) error { c.ctrl.CycleIcon(canvas.NodeID(a[0])); return nil }},
		"delete":   {"delete ID", 1, func(c *Console, a []string) error { c.ctrl.Delete(canvas.NodeID(a[0])); return nil }},
		"rename":   {"rename ID TITLE", 2, (*Console).rename},
		"bg":       {"bg COLOUR", 1, (*Console).background},
		"svg":      {"svg FILE", 1, (*Console).svg},
		"save":     {"save", 0, (*Console).saveCmd},
		"help":     {"help", 0, (*Console).help},
		"exit":     {"exit", 0, func(*Console, []string) error { return ErrExit }},
		"quit":     {"quit", 0, func(*Console, []string) error { return ErrExit }},
	}
}
