// Package command maps chat commands onto task, timer and report
// operations and formats their replies. It knows nothing about the chat
// platform; adapters translate to and from Request and Response.
package command

// OptionType is the value type of a command option.
type OptionType int

const (
	OptionString OptionType = iota
	OptionBool
)

// Option describes one named argument.
type Option struct {
	Name        string
	Description string
	Type        OptionType
	Required    bool
}

// Definition describes a command or subcommand.
type Definition struct {
	Name        string
	Description string
	Options     []Option
	Subcommands []Definition
}

// Definitions is the full command surface.
var Definitions = []Definition{
	{
		Name:        "task",
		Description: "Manage tasks",
		Subcommands: []Definition{
			{
				Name:        "add",
				Description: "Add a new task",
				Options: []Option{
					{Name: "description", Description: "Task description", Type: OptionString, Required: true},
					{Name: "duedate", Description: "Due date (YYYY-MM-DD)", Type: OptionString, Required: true},
				},
			},
			{Name: "list", Description: "List all active tasks"},
			{
				Name:        "complete",
				Description: "Mark a task as completed",
				Options: []Option{
					{Name: "taskid", Description: "Task ID", Type: OptionString, Required: true},
				},
			},
		},
	},
	{
		Name:        "time",
		Description: "Track time on tasks",
		Subcommands: []Definition{
			{
				Name:        "start",
				Description: "Start tracking time on a task",
				Options: []Option{
					{Name: "taskid", Description: "Task ID", Type: OptionString, Required: true},
				},
			},
			{Name: "stop", Description: "Stop tracking time"},
			{Name: "report", Description: "Generate a time report"},
		},
	},
	{
		Name:        "setup",
		Description: "Configure Grallix for this channel",
		Options: []Option{
			{Name: "standups", Description: "Enable/disable daily standups", Type: OptionBool, Required: true},
			{Name: "weekly", Description: "Enable/disable weekly summaries", Type: OptionBool, Required: true},
		},
	},
}

// Lookup returns the definition that takes the options of command and
// subcommand (empty for commands without subcommands).
func Lookup(command, subcommand string) (Definition, bool) {
	for _, d := range Definitions {
		if d.Name != command {
			continue
		}
		if len(d.Subcommands) == 0 {
			return d, subcommand == ""
		}
		for _, sub := range d.Subcommands {
			if sub.Name == subcommand {
				return sub, true
			}
		}
	}
	return Definition{}, false
}
