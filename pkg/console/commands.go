package console

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/chazu/spatial/pkg/canvas"
	"github.com/chazu/spatial/pkg/export"
	"github.com/chazu/spatial/pkg/store"
)

func parseXY(args []string) (x, y float64, err error) {
	if x, err = strconv.ParseFloat(args[0], 64); err != nil {
		return 0, 0, fmt.Errorf("bad x %q", args[0])
	}
	if y, err = strconv.ParseFloat(args[1], 64); err != nil {
		return 0, 0, fmt.Errorf("bad y %q", args[1])
	}
	return x, y, nil
}

// pointer builds an event from "X Y [button] [modifiers...]".
func pointer(args []string) (canvas.PointerEvent, error) {
	x, y, err := parseXY(args)
	if err != nil {
		return canvas.PointerEvent{}, err
	}
	ev := canvas.PointerEvent{X: x, Y: y}
	for _, a := range args[2:] {
		switch strings.ToLower(a) {
		case "left":
			ev.Button = canvas.ButtonLeft
		case "middle":
			ev.Button = canvas.ButtonMiddle
		case "right":
			ev.Button = canvas.ButtonRight
		case "shift":
			ev.Shift = true
		case "meta":
			ev.Meta = true
		case "ctrl":
			ev.Ctrl = true
		default:
			return ev, fmt.Errorf("unknown modifier %q", a)
		}
	}
	return ev, nil
}

func (c *Console) press(args []string) error {
	ev, err := pointer(args)
	if err != nil {
		return err
	}
	c.ctrl.Press(ev)
	return nil
}

func (c *Console) move(args []string) error {
	ev, err := pointer(args)
	if err != nil {
		return err
	}
	c.ctrl.Move(ev)
	return nil
}

func (c *Console) release(args []string) error {
	ev, err := pointer(args)
	if err != nil {
		return err
	}
	c.ctrl.Release(ev)
	return nil
}

func (c *Console) click(args []string) error {
	ev, err := pointer(args)
	if err != nil {
		return err
	}
	c.ctrl.Press(ev)
	c.ctrl.Release(ev)
	return nil
}

func (c *Console) dblclick(args []string) error {
	ev, err := pointer(args)
	if err != nil {
		return err
	}
	c.ctrl.DoubleClick(ev)
	if n, ok := c.store.ActiveNode(); ok {
		fmt.Fprintf(c.out, "opened %s %s\n", n.ID, Info.Sprint(n.Title))
	}
	return nil
}

// drag presses at the first point, moves to the second in one step and
// releases there.
func (c *Console) drag(args []string) error {
	from, err := pointer(args[:2])
	if err != nil {
		return err
	}
	to, err := pointer(args[2:4])
	if err != nil {
		return err
	}
	mods, err := pointer(append([]string{"0", "0"}, args[4:]...))
	if err != nil {
		return err
	}
	for _, ev := range []*canvas.PointerEvent{&from, &to} {
		ev.Button, ev.Shift, ev.Meta, ev.Ctrl = mods.Button, mods.Shift, mods.Meta, mods.Ctrl
	}
	c.ctrl.Press(from)
	c.ctrl.Move(to)
	c.ctrl.Release(to)
	return nil
}

func (c *Console) wheel(args []string) error {
	x, y, err := parseXY(args)
	if err != nil {
		return err
	}
	dx, dy, err := parseXY(args[2:])
	if err != nil {
		return err
	}
	ev := canvas.WheelEvent{X: x, Y: y, DeltaX: dx, DeltaY: dy}
	if len(args) > 4 && args[4] == "zoom" {
		ev.Ctrl = true
	}
	c.ctrl.Wheel(ev)
	return c.view()
}

func (c *Console) mode(args []string) error {
	m, err := canvas.ParseMode(args[0])
	if err != nil {
		return err
	}
	c.ctrl.SetMode(m)
	return nil
}

func (c *Console) view() error {
	v := c.ctrl.Viewport()
	fmt.Fprintf(c.out, "zoom %d%%  pan %g,%g  mode %s\n",
		c.ctrl.Frame().ZoomPercent, v.Pan.X, v.Pan.Y, c.ctrl.Mode())
	return nil
}

// show prints the visible nodes in draw order.
func (c *Console) show() error {
	f := c.ctrl.Frame()
	Title.Fprintf(c.out, "space %s", f.SpaceID)
	fmt.Fprintf(c.out, "  %s\n", Subtle.Sprintf("%d nodes, %d connections", len(f.Nodes), len(f.Connections)))

	rows := make([][]string, 0, len(f.Nodes))
	for i := range f.Nodes {
		n := &f.Nodes[i]
		size := n.Size()
		var flags []string
		if n.Selected {
			flags = append(flags, "selected")
		}
		if n.Collapsed {
			flags = append(flags, "collapsed")
		}
		if n.Renaming {
			flags = append(flags, "renaming")
		}
		rows = append(rows, []string{
			string(n.ID),
			n.Type.String(),
			n.Title,
			fmt.Sprintf("%g,%g", n.Position.X, n.Position.Y),
			fmt.Sprintf("%gx%g", size.X, size.Y),
			string(n.ParentID),
			strings.Join(flags, " "),
		})
	}
	c.table([]string{"ID", "TYPE", "TITLE", "AT", "SIZE", "PARENT", "FLAGS"}, rows)
	return nil
}

func (c *Console) spaces() error {
	active, _ := c.store.ActiveSpace()
	var rows [][]string
	for _, s := range c.store.Spaces() {
		mark := ""
		if s.ID == active.ID {
			mark = "*"
		}
		rows = append(rows, []string{mark, s.ID, s.Name, s.Background, strconv.Itoa(len(c.store.Nodes(s.ID)))})
	}
	c.table([]string{"", "ID", "NAME", "BACKGROUND", "NODES"}, rows)
	return nil
}

// recent lists the first nodes across every space, five unless a count is
// given.
func (c *Console) recent(args []string) error {
	limit := 5
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("bad count %q", args[0])
		}
		limit = n
	}
	var rows [][]string
	for _, n := range c.store.Recent(limit) {
		rows = append(rows, []string{string(n.ID), n.Type.String(), n.Title, n.SpaceID})
	}
	c.table([]string{"ID", "TYPE", "TITLE", "SPACE"}, rows)
	return nil
}

func (c *Console) newSpace(args []string) error {
	s, err := c.store.CreateSpace(store.SpaceInput{Name: strings.Join(args, " ")})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created %s\n", s.ID)
	return c.store.SetActiveSpace(s.ID)
}

func (c *Console) group([]string) error {
	if !c.ctrl.CreateGroup() {
		return errors.New("select at least two nodes to group")
	}
	return nil
}

func (c *Console) rename(args []string) error {
	id := canvas.NodeID(args[0])
	c.ctrl.Rename(id)
	if !c.ctrl.RenameKey(id, strings.Join(args[1:], " "), "Enter") {
		return fmt.Errorf("cannot rename %s", id)
	}
	return nil
}

func (c *Console) background(args []string) error {
	if !c.ctrl.SetBackground(args[0]) {
		names := make([]string, len(canvas.Palette))
		for i, s := range canvas.Palette {
			names[i] = s.Value
		}
		return fmt.Errorf("colour must be one of %s", strings.Join(names, " "))
	}
	return nil
}

func (c *Console) svg(args []string) error {
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := export.SVG(f, c.ctrl.Frame()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "wrote %s\n", args[0])
	return nil
}

func (c *Console) saveCmd([]string) error {
	if c.save == nil {
		return errors.New("no database attached")
	}
	if err := c.save(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "saved")
	return nil
}

func (c *Console) help([]string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(c.out, "  %-10s %s\n", name, Subtle.Sprint(commands[name].usage))
	}
	return nil
}

// table prints rows under a dimmed header, padding each column to its
// widest cell.
func (c *Console) table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(c.out, Subtle.Sprint("  (none)"))
		return
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	header, sep := "  ", "  "
	for i, h := range headers {
		header += fmt.Sprintf("%-*s  ", widths[i], h)
		sep += strings.Repeat("─", widths[i]) + "  "
	}
	fmt.Fprintln(c.out, Subtle.Sprint(strings.TrimRight(header, " ")))
	fmt.Fprintln(c.out, Subtle.Sprint(strings.TrimRight(sep, " ")))
	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += fmt.Sprintf("%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(c.out, strings.TrimRight(line, " "))
	}
}
