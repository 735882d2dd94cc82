package transport

import "encoding/json"

// Message is the body of every non-resource response, success or failure.
type Message struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewMessage returns a plain success message.
func NewMessage(text string) Message {
	return Message{Message: text}
}

// NewError returns an error message tagged with a domain code.
func NewError(code string, text string) Message {
	return Message{Message: text, Code: code}
}

type AccessResponse struct {
	Access string `json:"access"`
}

// String returns the JSON representation (best-effort) for logging purposes.
func (m Message) String() string {
	out, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(out)
}
