// Package payload builds the JSON body sent to the prediction endpoint.
package payload

// Roles accepted by the prediction API for history entries.
const (
	RoleUser = "userMessage"
	RoleAPI  = "apiMessage"
)

// Message is a single prior turn sent as history
type Message struct {
	Role    string `json:"role" toml:"role" yaml:"role"`
	Content string `json:"content" toml:"content" yaml:"content"`
}

// Payload is the request body of a prediction call
type Payload struct {
	Question       string                 `json:"question" yaml:"question"`
	History        []Message              `json:"history" yaml:"history"`
	Streaming      bool                   `json:"streaming,omitempty" yaml:"streaming,omitempty"`
	OverrideConfig map[string]interface{} `json:"overrideConfig,omitempty" yaml:"override_config,omitempty"`
}

// New returns a payload with the given question and an empty history.
// History is never nil so it always serializes as [].
func New(question string) Payload {
	return Payload{
		Question: question,
		History:  []Message{},
	}
}
