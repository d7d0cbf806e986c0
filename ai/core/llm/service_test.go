package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name     string
		provider string
	}{
		{"deepseek", "deepseek"},
		{"openai", "openai"},
		{"siliconflow", "siliconflow"},
		{"ollama", "ollama"},
		{"generic OpenAI-compatible", "my-custom-gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(&Config{
				Provider: tt.provider,
				Model:    "test-model",
				APIKey:   "sk-test",
			})
			require.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestNewServiceDefaultTimeout(t *testing.T) {
	svc, err := NewService(&Config{Provider: "openai", Model: "gpt-4o", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, 120, svc.(*service).timeout)
}

func TestMessageHelpers(t *testing.T) {
	assert.Equal(t, Message{Role: "system", Content: "s"}, SystemPrompt("s"))
	assert.Equal(t, Message{Role: "user", Content: "u"}, UserMessage("u"))
	assert.Equal(t, Message{Role: "assistant", Content: "a"}, AssistantMessage("a"))
}

func TestFormatMessages(t *testing.T) {
	history := []Message{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
	}
	messages := FormatMessages("be helpful", "second question", history)

	require.Len(t, messages, 4)
	assert.Equal(t, Message{Role: "system", Content: "be helpful"}, messages[0])
	assert.Equal(t, history[0], messages[1])
	assert.Equal(t, history[1], messages[2])
	assert.Equal(t, Message{Role: "user", Content: "second question"}, messages[3])
}

func TestFormatMessagesWithoutSystemPrompt(t *testing.T) {
	messages := FormatMessages("", "question", nil)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].Role)
}
