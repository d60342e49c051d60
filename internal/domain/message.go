package domain

// InboundMessage describes an incoming chat message after the webhook
// payload has been unwrapped.
type InboundMessage struct {
	From      string // user identity on the chat transport (phone number)
	Text      string
	RequestID string // transport message id, reused for outbound correlation
}
