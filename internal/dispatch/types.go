package dispatch

// InteractionType is the kind of interaction Discord delivers.
type InteractionType int

const (
	InteractionPing               InteractionType = 1
	InteractionApplicationCommand InteractionType = 2
	InteractionMessageComponent   InteractionType = 3
	InteractionAutocomplete       InteractionType = 4
)

// ResponseType is the kind of interaction response.
type ResponseType int

const (
	ResponsePong               ResponseType = 1
	ResponseChannelMessage     ResponseType = 4
	ResponseAutocompleteResult ResponseType = 8
)

// FlagEphemeral shows a message only to the invoking user.
const FlagEphemeral = 64

// ComponentType is the kind of message component.
type ComponentType int

const (
	ComponentActionRow ComponentType = 1
	ComponentButton    ComponentType = 2
)

// ButtonStyle is the colour of a button.
type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = 1
	ButtonDanger  ButtonStyle = 4
)

// Custom IDs of the buttons this bot attaches to its messages.
const (
	CustomIDRegisterAttendance = "register_attendance"
	CustomIDShame              = "shame"
)

// Interaction is an incoming interaction payload. Only the fields the bot
// reads are decoded.
type Interaction struct {
	Type    InteractionType  `json:"type"`
	GuildID string           `json:"guild_id,omitempty"`
	Member  *Member          `json:"member,omitempty"`
	Data    *InteractionData `json:"data,omitempty"`
}

// Member is the guild member who triggered the interaction.
type Member struct {
	User User `json:"user"`
}

// User is a Discord user.
type User struct {
	ID string `json:"id"`
}

// InteractionData carries the command or component details.
type InteractionData struct {
	// Name is the command name for commands and autocomplete.
	Name    string          `json:"name,omitempty"`
	Options []CommandOption `json:"options,omitempty"`

	// ComponentType and CustomID are set for message components.
	ComponentType ComponentType `json:"component_type,omitempty"`
	CustomID      string        `json:"custom_id,omitempty"`
}

// CommandOption is one filled-in command option. Every option this bot
// registers is a string.
type CommandOption struct {
	Name    string `json:"name"`
	Type    int    `json:"type"`
	Value   string `json:"value"`
	Focused bool   `json:"focused,omitempty"`
}

// Response is the reply to an interaction.
//
// Data is a *Message for message responses and an *AutocompleteResult for
// autocomplete responses.
type Response struct {
	Type ResponseType `json:"type"`
	Data any          `json:"data,omitempty"`
}

// Message returns the message payload, or nil for other responses.
func (r Response) Message() *Message {
	m, _ := r.Data.(*Message)
	return m
}

// Choices returns the autocomplete choices, or nil for other responses.
func (r Response) Choices() []Choice {
	a, ok := r.Data.(*AutocompleteResult)
	if !ok {
		return nil
	}
	return a.Choices
}

// Message is the data of a channel message response.
type Message struct {
	Content    string      `json:"content"`
	Flags      int         `json:"flags,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// Ephemeral reports whether only the invoking user sees the message.
func (m *Message) Ephemeral() bool {
	return m.Flags&FlagEphemeral != 0
}

// Component is an action row or a button.
type Component struct {
	Type       ComponentType `json:"type"`
	Components []Component   `json:"components,omitempty"`
	Label      string        `json:"label,omitempty"`
	Style      ButtonStyle   `json:"style,omitempty"`
	CustomID   string        `json:"custom_id,omitempty"`
}

// AutocompleteResult is the data of an autocomplete response.
type AutocompleteResult struct {
	Choices []Choice `json:"choices"`
}

// Choice is one autocomplete suggestion.
type Choice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func pong() Response {
	return Response{Type: ResponsePong}
}

func reply(content string) Response {
	return Response{Type: ResponseChannelMessage, Data: &Message{Content: content}}
}

func ephemeral(content string) Response {
	return Response{Type: ResponseChannelMessage, Data: &Message{Content: content, Flags: FlagEphemeral}}
}

func choices(cs []Choice) Response {
	if cs == nil {
		cs = []Choice{}
	}
	return Response{Type: ResponseAutocompleteResult, Data: &AutocompleteResult{Choices: cs}}
}

// buttonRow wraps a single button in an action row.
func buttonRow(label string, style ButtonStyle, customID string) []Component {
	return []Component{{
		Type: ComponentActionRow,
		Components: []Component{{
			Type:     ComponentButton,
			Label:    label,
			Style:    style,
			CustomID: customID,
		}},
	}}
}
