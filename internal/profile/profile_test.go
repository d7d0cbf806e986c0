package profile

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "deepseek", p.LLMProvider)
	assert.Equal(t, "https://api.deepseek.com", p.LLMBaseURL)
	assert.Equal(t, "deepseek-chat", p.LLMModel)
	assert.Equal(t, 120, p.LLMTimeout)
	assert.Equal(t, "siliconflow", p.EmbeddingProvider)
	assert.Equal(t, "BAAI/bge-m3", p.EmbeddingModel)
	assert.Equal(t, 1024, p.EmbeddingDimensions)
	assert.False(t, p.Offline)
	assert.False(t, p.AIEnabled)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SYNVECTORDB_AI_LLM_PROVIDER", "openai")
	t.Setenv("SYNVECTORDB_AI_LLM_API_KEY", "sk-test")
	t.Setenv("SYNVECTORDB_AI_EMBEDDING_DIMENSIONS", "256")
	t.Setenv("SYNVECTORDB_AI_OFFLINE", "true")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "openai", p.LLMProvider)
	assert.Equal(t, "https://api.openai.com/v1", p.LLMBaseURL)
	assert.Equal(t, "gpt-4o", p.LLMModel)
	assert.Equal(t, "sk-test", p.LLMAPIKey)
	assert.Equal(t, 256, p.EmbeddingDimensions)
	assert.True(t, p.Offline)
	assert.True(t, p.AIEnabled)
}

func TestFromEnvUnknownProviderFallsBack(t *testing.T) {
	t.Setenv("SYNVECTORDB_AI_LLM_PROVIDER", "no-such-provider")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "deepseek", p.LLMProvider)
	assert.Equal(t, "https://api.deepseek.com", p.LLMBaseURL)
}

func TestFromEnvExplicitBaseURLWins(t *testing.T) {
	t.Setenv("SYNVECTORDB_AI_LLM_PROVIDER", "ollama")
	t.Setenv("SYNVECTORDB_AI_LLM_BASE_URL", "http://models.internal:11434")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "http://models.internal:11434", p.LLMBaseURL)
	assert.Equal(t, "llama3.1", p.LLMModel)
}

func TestIsAIEnabled(t *testing.T) {
	assert.False(t, (&Profile{}).IsAIEnabled())
	assert.True(t, (&Profile{LLMAPIKey: "sk-test"}).IsAIEnabled())
	assert.True(t, (&Profile{Offline: true}).IsAIEnabled())
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{Mode: "dev", Driver: "sqlite", Data: dir}
	require.NoError(t, p.Validate())

	assert.Equal(t, dir, p.Data)
	assert.Equal(t, filepath.Join(dir, "synvectordb_dev.db"), p.DSN)
}

func TestValidateInvalidModeDefaultsToDemo(t *testing.T) {
	p := &Profile{Mode: "staging", Driver: "sqlite", Data: t.TempDir()}
	require.NoError(t, p.Validate())

	assert.Equal(t, "demo", p.Mode)
	assert.True(t, strings.HasSuffix(p.DSN, "synvectordb_demo.db"))
}

func TestValidateKeepsExplicitDSN(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "sqlite", Data: t.TempDir(), DSN: "/tmp/custom.db"}
	require.NoError(t, p.Validate())
	assert.Equal(t, "/tmp/custom.db", p.DSN)
}

func TestValidateMissingDataDir(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "sqlite", Data: "/no/such/directory"}
	assert.Error(t, p.Validate())
}
