package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bnest/b2bnest-api/internal/assistant/domain"
)

func TestDefaultCoversEveryType(t *testing.T) {
	s := Default()
	for _, typ := range domain.ConversationTypes() {
		assert.NotEmpty(t, s.System[typ], typ)
	}
}

func TestSystemPrompt(t *testing.T) {
	s := Default()

	p := s.SystemPrompt(domain.TypeFinance, UserContext{})
	assert.Contains(t, p, "financial advisor")
	assert.Contains(t, p, "About the platform:")
	assert.NotContains(t, p, "User context:")

	p = s.SystemPrompt(domain.TypeMarketing, UserContext{Industry: "Bakery", BusinessStage: "startup", Notes: "two shops"})
	assert.Contains(t, p, "Industry: Bakery")
	assert.Contains(t, p, "Business stage: startup")
	assert.Contains(t, p, "Additional context: two shops")
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
platform: Custom platform text.
prompts:
  finance: You only talk about invoices.
`), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Custom platform text.", s.Platform)
	assert.Equal(t, "You only talk about invoices.", s.System[domain.TypeFinance])
	assert.Equal(t, Default().System[domain.TypeMarketing], s.System[domain.TypeMarketing])
}

func TestLoadRejectsUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prompts:\n  astrology: hi\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Platform, s.Platform)
}
