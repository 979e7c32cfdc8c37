package dispatch

// Application command and option types used when registering commands.
const (
	CommandTypeChatInput = 1
	OptionTypeString     = 3
)

// Command is an application command definition, in the shape the Discord
// API accepts for registration.
type Command struct {
	Name        string                    `json:"name"`
	Type        int                       `json:"type"`
	Description string                    `json:"description"`
	Options     []CommandOptionDefinition `json:"options,omitempty"`
}

// CommandOptionDefinition describes one option of a Command.
type CommandOptionDefinition struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Type         int    `json:"type"`
	Required     bool   `json:"required"`
	Autocomplete bool   `json:"autocomplete,omitempty"`
}

// Commands returns the definitions of every command Handle understands.
// /nominate offers autocomplete only when a FilmSearcher is configured.
func (d *Dispatcher) Commands() []Command {
	return RegisteredCommands(d.searcher != nil)
}

// RegisteredCommands returns the command definitions for a dispatcher with
// or without a FilmSearcher.
func RegisteredCommands(searchable bool) []Command {
	filmOption := func(description string, autocomplete bool) []CommandOptionDefinition {
		return []CommandOptionDefinition{{
			Name:         optionFilm,
			Description:  description,
			Type:         OptionTypeString,
			Required:     true,
			Autocomplete: autocomplete,
		}}
	}

	return []Command{
		{
			Name:        "vote",
			Type:        CommandTypeChatInput,
			Description: "Cast your vote for the next film to watch",
			Options:     filmOption("The film you want to vote for", true),
		},
		{
			Name:        "nominate",
			Type:        CommandTypeChatInput,
			Description: "Nominate your next film",
			Options:     filmOption("The name of the film you would like to nominate", searchable),
		},
		{
			Name:        "peek",
			Type:        CommandTypeChatInput,
			Description: "Display the current set of nominations",
		},
		{
			Name:        "watch",
			Type:        CommandTypeChatInput,
			Description: "Indicate that the specified film is being watched and take attendance",
			Options:     filmOption("The film currently being watched", true),
		},
		{
			Name:        "here",
			Type:        CommandTypeChatInput,
			Description: "Register attendance for the film currently being watched",
		},
		{
			Name:        "naughty",
			Type:        CommandTypeChatInput,
			Description: "List the users who still need to nominate or vote",
		},
		{
			Name:        "history",
			Type:        CommandTypeChatInput,
			Description: "List the films that have been watched",
		},
	}
}
