package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	typ, err := ParseType("")
	require.NoError(t, err)
	assert.Equal(t, TypeGeneral, typ)

	typ, err = ParseType("finance")
	require.NoError(t, err)
	assert.Equal(t, TypeFinance, typ)
	assert.True(t, typ.Advisory())
	assert.False(t, TypeGeneral.Advisory())

	_, err = ParseType("astrology")
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestConversationAppendIsBounded(t *testing.T) {
	var c Conversation
	for i := 0; i < 60; i++ {
		c.Append(Message{Role: RoleUser, Content: fmt.Sprintf("m%d", i)})
	}

	require.Len(t, c.Messages, MaxStoredMessages)
	assert.Equal(t, "m10", c.Messages[0].Content)
	assert.Equal(t, "m59", c.Messages[MaxStoredMessages-1].Content)

	h := c.History()
	require.Len(t, h, MaxHistoryMessages)
	assert.Equal(t, "m40", h[0].Content)
}
