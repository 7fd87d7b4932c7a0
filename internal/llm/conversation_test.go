package llm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationKeepsLastThreePairs(t *testing.T) {
	conv := NewConversation(0)

	for i := 1; i <= 5; i++ {
		conv.AddExchange(fmt.Sprintf("req-%d", i), fmt.Sprintf("resp-%d", i))
		assert.LessOrEqual(t, conv.Len(), 6)
	}

	history := conv.History()
	require.Len(t, history, 6)
	assert.Equal(t, Message{Role: RoleUser, Content: "req-3"}, history[0])
	assert.Equal(t, Message{Role: RoleModel, Content: "resp-3"}, history[1])
	assert.Equal(t, Message{Role: RoleModel, Content: "resp-5"}, history[5])
}

func TestConversationRequestAppendsUserTurn(t *testing.T) {
	conv := NewConversation(2)
	conv.AddExchange("a", "b")

	req := conv.Request("system", "c")
	assert.Equal(t, "system", req.SystemInstruction)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, Message{Role: RoleUser, Content: "c"}, req.Messages[2])

	// building a request does not change the history
	assert.Equal(t, 2, conv.Len())
	assert.Equal(t, 2, conv.Size())

	conv.Clear()
	assert.Zero(t, conv.Len())
}
