package llm

// DefaultContextPairs is the number of request/response exchanges carried
// into the next call.
const DefaultContextPairs = 3

// Conversation keeps the most recent request/response pairs sent to the
// model. Older pairs are dropped from the front.
type Conversation struct {
	messages []Message
	maxPairs int
}

// NewConversation creates a conversation that keeps at most maxPairs
// exchanges (DefaultContextPairs when maxPairs <= 0).
func NewConversation(maxPairs int) *Conversation {
	if maxPairs <= 0 {
		maxPairs = DefaultContextPairs
	}
	return &Conversation{
		messages: make([]Message, 0, maxPairs*2),
		maxPairs: maxPairs,
	}
}

// AddExchange appends a user request and the model answer that was
// accepted for it, trimming the oldest pairs beyond the limit.
func (c *Conversation) AddExchange(request, response string) {
	c.messages = append(c.messages,
		Message{Role: RoleUser, Content: request},
		Message{Role: RoleModel, Content: response},
	)

	if excess := len(c.messages) - c.maxPairs*2; excess > 0 {
		c.messages = append(c.messages[:0:0], c.messages[excess:]...)
	}
}

// History returns a copy of the retained messages.
func (c *Conversation) History() []Message {
	history := make([]Message, len(c.messages))
	copy(history, c.messages)
	return history
}

// Request builds the call for a new user turn on top of the history.
func (c *Conversation) Request(systemInstruction, userContent string) Request {
	messages := c.History()
	messages = append(messages, Message{Role: RoleUser, Content: userContent})
	return Request{
		SystemInstruction: systemInstruction,
		Messages:          messages,
	}
}

// Len returns the number of retained messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Size returns the total content length of the retained messages.
func (c *Conversation) Size() int {
	size := 0
	for _, msg := range c.messages {
		size += len(msg.Content)
	}
	return size
}

// Clear drops all history.
func (c *Conversation) Clear() {
	c.messages = c.messages[:0]
}
