// Package command provides the command registry, parser, and built-in
// command definitions for the sheet console.
package command

// Categories for organizing commands.
const (
	CategorySheet  = "sheet"
	CategoryDice   = "dice"
	CategorySystem = "system"
)

// Handler identifiers mapping commands to console handlers.
const (
	HandlerCreate    = "create"
	HandlerShow      = "show"
	HandlerSet       = "set"
	HandlerList      = "list"
	HandlerCompanion = "companion"
	HandlerParse     = "parse"
	HandlerRoll      = "roll"
	HandlerHistory   = "history"
	HandlerHelp      = "help"
	HandlerQuit      = "quit"
)

// Command defines a console command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage is the argument synopsis shown by help.
	Usage string
	// Help is the short help text.
	Help string
	// Category groups the command.
	Category string
	// Handler maps to the console handler.
	Handler string
}

// BuiltinCommands returns all built-in console commands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "create", Aliases: []string{"new"}, Usage: "<pilot|creature|companion|unit> <name> [link]", Help: "Create a sheet with default values", Category: CategorySheet, Handler: HandlerCreate},
		{Name: "show", Aliases: []string{"get", "sheet"}, Usage: "<id>", Help: "Print the derived sheet as JSON", Category: CategorySheet, Handler: HandlerShow},
		{Name: "set", Aliases: []string{"update"}, Usage: "<id> <path>=<value>...", Help: "Write stored fields and re-derive", Category: CategorySheet, Handler: HandlerSet},
		{Name: "list", Aliases: []string{"ls"}, Usage: "<kind>", Help: "List sheets of a kind", Category: CategorySheet, Handler: HandlerList},
		{Name: "companion", Aliases: []string{"comp"}, Usage: "<id>", Help: "Show a companion next to its pilot's combat stats", Category: CategorySheet, Handler: HandlerCompanion},
		{Name: "parse", Usage: "<text>", Help: "Show the numeric modifiers found in text", Category: CategorySheet, Handler: HandlerParse},
		{Name: "roll", Aliases: []string{"r"}, Usage: "<id> [base=N] [bonus=N] [attr=N] [spend=N] [linked=<id>] [lattr=N] [lspend=N] [label=<text>]", Help: "Roll a dice pool", Category: CategoryDice, Handler: HandlerRoll},
		{Name: "history", Aliases: []string{"log"}, Usage: "<id> [limit]", Help: "Show recent stored rolls", Category: CategoryDice, Handler: HandlerHistory},
		{Name: "help", Aliases: []string{"?"}, Usage: "[command]", Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit", "q"}, Help: "Leave the console", Category: CategorySystem, Handler: HandlerQuit},
	}
}
