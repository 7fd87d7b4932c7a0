package llm

// Role of a conversation message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one turn of the conversation sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a single model call: the system instruction, the bounded
// conversation history and the new user turn, in order.
type Request struct {
	SystemInstruction string
	Messages          []Message
}

// Response holds the answer text and any reasoning the model emitted
// alongside it.
type Response struct {
	Text     string
	Thoughts string
}

// Chunk is a piece of model output. Thought carries provider-flagged
// reasoning parts, Text everything else.
type Chunk struct {
	Text    string
	Thought string
}

// ChunkFunc is called after each streamed chunk with the cumulative answer
// length in bytes.
type ChunkFunc func(answerLen int)

// ModelInfo describes a model available to an API key.
type ModelInfo struct {
	Name             string
	DisplayName      string
	Description      string
	InputTokenLimit  int
	OutputTokenLimit int
	SupportsThinking bool
}
