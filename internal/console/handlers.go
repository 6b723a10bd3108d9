package console

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/cory-johannsen/exa/internal/game/command"
	"github.com/cory-johannsen/exa/internal/game/entity"
	"github.com/cory-johannsen/exa/internal/game/modifier"
	"github.com/cory-johannsen/exa/internal/game/roll"
)

const defaultHistoryLimit = 10

func handleCreate(c *Console, req *request) (bool, error) {
	args := req.parsed.Args
	if len(args) < 2 || len(args) > 3 {
		return false, usage(req.cmd)
	}
	kind := entity.Kind(strings.ToLower(args[0]))
	link := ""
	if len(args) == 3 {
		link = args[2]
	}
	e, err := c.sheets.Create(req.ctx, kind, args[1], link)
	if err != nil {
		return false, err
	}
	fmt.Fprintf(req.out, "created %s %q: %s\n", e.Kind, e.Name, e.ID)
	return false, nil
}

func handleShow(c *Console, req *request) (bool, error) {
	if len(req.parsed.Args) != 1 {
		return false, usage(req.cmd)
	}
	e, err := c.sheets.Get(req.ctx, req.parsed.Args[0])
	if err != nil {
		return false, err
	}
	return false, writeJSON(req.out, e)
}

func handleSet(c *Console, req *request) (bool, error) {
	args := req.parsed.Args
	if len(args) < 2 {
		return false, usage(req.cmd)
	}
	patch := make(map[string]any, len(args)-1)
	for _, a := range args[1:] {
		path, value, ok := strings.Cut(a, "=")
		path = strings.TrimSpace(path)
		if !ok || path == "" {
			return false, usage(req.cmd)
		}
		patch[path] = value
	}
	e, err := c.sheets.Update(req.ctx, args[0], patch)
	if err != nil {
		return false, err
	}
	fmt.Fprintf(req.out, "updated %s %q (%d fields)\n", e.Kind, e.Name, len(patch))
	return false, nil
}

func handleList(c *Console, req *request) (bool, error) {
	if len(req.parsed.Args) != 1 {
		return false, usage(req.cmd)
	}
	kind := entity.Kind(strings.ToLower(req.parsed.Args[0]))
	if !kind.Valid() {
		return false, usage(req.cmd)
	}
	es, err := c.sheets.List(req.ctx, kind)
	if err != nil {
		return false, err
	}
	tw := tabwriter.NewWriter(req.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRANK\tPOINTS\tEXA\tINIT\tMOB\tDODGE")
	for _, e := range es {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g/%g\t%g/%g\t%g\t%g\t%g\n",
			e.ID, e.Name, e.Rank,
			e.Points.Distributed, e.Points.Total,
			e.Exa.Current, e.Exa.Max,
			e.Combat.Initiative, e.Combat.Mobility, e.Combat.Dodge,
		)
	}
	return false, tw.Flush()
}

func handleCompanion(c *Console, req *request) (bool, error) {
	if len(req.parsed.Args) != 1 {
		return false, usage(req.cmd)
	}
	view, err := c.sheets.Companion(req.ctx, req.parsed.Args[0])
	if err != nil {
		return false, err
	}
	return false, writeJSON(req.out, view)
}

func handleParse(c *Console, req *request) (bool, error) {
	text := strings.Trim(req.parsed.RawArgs, `"`)
	if text == "" {
		return false, usage(req.cmd)
	}
	ledger := modifier.NewLedger(c.aliases.Parse(text, "console"))
	if len(ledger.Breakdown) == 0 {
		fmt.Fprintln(req.out, "no modifiers")
		return false, nil
	}
	for _, p := range ledger.Paths() {
		fmt.Fprintf(req.out, "%s %+g\n", p, ledger.Totals[p])
	}
	return false, nil
}

func handleRoll(c *Console, req *request) (bool, error) {
	args := req.parsed.Args
	if len(args) < 1 {
		return false, usage(req.cmd)
	}
	rr := roll.Request{EntityID: args[0]}
	ints := map[string]*int{
		"base":   &rr.BaseDice,
		"bonus":  &rr.BonusDice,
		"attr":   &rr.AttributeBonus,
		"spend":  &rr.ResourceSpend,
		"lattr":  &rr.LinkedAttributeBonus,
		"lspend": &rr.LinkedResourceSpend,
	}
	for _, a := range args[1:] {
		key, value, ok := command.KeyValue(a)
		if !ok {
			return false, usage(req.cmd)
		}
		switch key {
		case "linked":
			rr.LinkedID = value
		case "label":
			rr.Label = value
		default:
			dst, known := ints[key]
			if !known {
				return false, fmt.Errorf("%w: unknown roll option %q", ErrUsage, key)
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return false, fmt.Errorf("%w: %s must be an integer, got %q", ErrUsage, key, value)
			}
			*dst = n
		}
	}
	out, err := c.roller.Roll(req.ctx, rr)
	if out.ID != uuid.Nil {
		renderOutcome(req.out, out)
	}
	return false, err
}

func handleHistory(c *Console, req *request) (bool, error) {
	args := req.parsed.Args
	if len(args) < 1 || len(args) > 2 {
		return false, usage(req.cmd)
	}
	if c.history == nil {
		return false, ErrNoHistory
	}
	limit := defaultHistoryLimit
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return false, usage(req.cmd)
		}
		limit = n
	}
	outs, err := c.history.Recent(req.ctx, args[0], limit)
	if err != nil {
		return false, err
	}
	if len(outs) == 0 {
		fmt.Fprintln(req.out, "no rolls")
	}
	for _, o := range outs {
		renderOutcome(req.out, o)
	}
	return false, nil
}

func handleHelp(c *Console, req *request) (bool, error) {
	if len(req.parsed.Args) == 1 {
		cmd, ok := c.registry.Resolve(strings.ToLower(req.parsed.Args[0]))
		if !ok {
			return false, fmt.Errorf("%w %q", ErrUnknownCommand, req.parsed.Args[0])
		}
		fmt.Fprintf(req.out, "%s %s\n  %s\n", cmd.Name, cmd.Usage, cmd.Help)
		if len(cmd.Aliases) > 0 {
			fmt.Fprintf(req.out, "  aliases: %s\n", strings.Join(cmd.Aliases, ", "))
		}
		return false, nil
	}
	cats := c.registry.CommandsByCategory()
	for _, cat := range []string{command.CategorySheet, command.CategoryDice, command.CategorySystem} {
		fmt.Fprintf(req.out, "%s:\n", cat)
		for _, cmd := range cats[cat] {
			fmt.Fprintf(req.out, "  %-10s %s\n", cmd.Name, cmd.Help)
		}
	}
	return false, nil
}

func handleQuit(_ *Console, _ *request) (bool, error) {
	return true, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderOutcome(w io.Writer, o roll.Outcome) {
	label := o.Label
	if label == "" {
		label = "roll"
	}
	fmt.Fprintf(w, "%s [%s]\n", label, o.ID)
	for _, g := range o.Groups {
		fmt.Fprintf(w, "  %-16s %v\n", g.Group, g.Results)
	}
	fmt.Fprintf(w, "  successes: %d\n", o.Successes)
	fmt.Fprintf(w, "  consumed: %d\n", o.Primary.Committed)
	if o.Linked != nil {
		fmt.Fprintf(w, "  linked consumed: %d\n", o.Linked.Committed)
	}
	for _, warn := range o.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
}
