package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentKinds_RegistrationOrder(t *testing.T) {
	assert.Equal(t, []AgentKind{
		AgentDashboard, AgentProducts, AgentChat, AgentVendor,
		AgentCustomer, AgentOrder, AgentInquiry, AgentCommission,
	}, AgentKinds)

	for _, k := range AgentKinds {
		assert.True(t, k.Valid())
		assert.NotEmpty(t, k.DisplayName())
	}
	assert.False(t, AgentKind("billing").Valid())
}

func TestMatchAgentKind(t *testing.T) {
	tests := []struct {
		reply string
		want  AgentKind
		ok    bool
	}{
		{"commission", AgentCommission, true},
		{"  Order\n", AgentOrder, true},
		{"The best agent is: inquiry.", AgentInquiry, true},
		{"customer or order", AgentCustomer, true},
		{"nonsense", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := MatchAgentKind(tt.reply)
		assert.Equal(t, tt.ok, ok, tt.reply)
		assert.Equal(t, tt.want, got, tt.reply)
	}
}

func TestNewConversationMessage(t *testing.T) {
	now := time.Now()
	m := NewConversationMessage(RoleUser, "hi", "", now)
	_, err := uuid.Parse(m.ID)
	assert.NoError(t, err)
	assert.Equal(t, RoleUser, m.Role)
	assert.Equal(t, now, m.CreatedAt)

	other := NewConversationMessage(RoleUser, "hi", "", now)
	assert.NotEqual(t, m.ID, other.ID)
}

func TestTrimHistory(t *testing.T) {
	history := make([]ConversationMessage, 30)
	for i := range history {
		history[i].Content = string(rune('a' + i%26))
	}
	trimmed := TrimHistory(history, 20)
	require.Len(t, trimmed, 20)
	assert.Equal(t, history[10], trimmed[0])

	assert.Len(t, TrimHistory(history[:5], 20), 5)
	assert.Len(t, TrimHistory(history, 0), 30)
}

func TestAgentInput_ContextValue(t *testing.T) {
	in := AgentInput{}
	assert.Equal(t, "", in.ContextValue("confirm"))
	in.Context = map[string]string{"confirm": "true"}
	assert.Equal(t, "true", in.ContextValue("confirm"))
}

func TestProcessRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     ProcessRequest
		wantErr bool
	}{
		{"ok", ProcessRequest{Message: "show me orders"}, false},
		{"ok with session", ProcessRequest{Message: "hi", SessionID: uuid.NewString()}, false},
		{"blank", ProcessRequest{Message: "   "}, true},
		{"bad session", ProcessRequest{Message: "hi", SessionID: "not-a-uuid"}, true},
		{"too long", ProcessRequest{Message: string(make([]byte, 4001))}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				var ve ValidationError
				assert.True(t, errors.As(err, &ve))
				return
			}
			assert.NoError(t, err)
		})
	}
}
