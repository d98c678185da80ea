package structured

import (
	"context"
	"fmt"

	"praxis/internal/llm"
)

// Email is the parsed form of an inbound email message.
type Email struct {
	Sender      string   `json:"sender" desc:"name of the person who wrote the email"`
	Subject     string   `json:"subject" desc:"one-line topic of the email"`
	Intent      string   `json:"intent" enum:"question,request,complaint,information" desc:"what the sender wants"`
	Urgency     string   `json:"urgency" enum:"low,medium,high"`
	ActionItems []string `json:"action_items,omitempty" desc:"concrete tasks the email asks for"`
}

// Validate rejects obviously empty extractions.
func (e *Email) Validate() error {
	if e.Subject == "" {
		return fmt.Errorf("subject must not be empty")
	}
	return nil
}

// ParseEmail extracts the structured form of an email body.
func ParseEmail(ctx context.Context, client llm.Client, body string) (Email, error) {
	return Extract[Email](ctx, client,
		"Extract the structured fields from the email below.", body)
}
