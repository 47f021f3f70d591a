package attribution_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/serroba/ai-referral-go/internal/attribution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRule(t *testing.T) {
	t.Run("compiles case-insensitive pattern", func(t *testing.T) {
		rule, err := attribution.NewRule(`claude\.ai`, "claude")

		require.NoError(t, err)
		assert.True(t, rule.Pattern.MatchString("https://Claude.AI/"))
	})

	t.Run("rejects labels with whitespace or upper case", func(t *testing.T) {
		for _, source := range []string{"", "Claude", "chat gpt", " claude"} {
			_, err := attribution.NewRule(`x`, source)

			assert.ErrorIs(t, err, attribution.ErrInvalidSource, source)
		}
	})

	t.Run("rejects invalid regex", func(t *testing.T) {
		_, err := attribution.NewRule(`claude(`, "claude")

		assert.ErrorIs(t, err, attribution.ErrInvalidPattern)
	})

	t.Run("rejects empty pattern", func(t *testing.T) {
		_, err := attribution.NewRule("", "claude")

		assert.ErrorIs(t, err, attribution.ErrInvalidPattern)
	})

	t.Run("MustRule panics on invalid input", func(t *testing.T) {
		assert.Panics(t, func() { attribution.MustRule(`(`, "x") })
	})
}

func TestTable(t *testing.T) {
	t.Run("Rules returns a copy", func(t *testing.T) {
		table := attribution.DefaultReferrerRules()

		rules := table.Rules()
		rules[0] = attribution.MustRule(`nothing`, "nothing")

		source, ok := table.Match("https://chatgpt.com/")
		require.True(t, ok)
		assert.Equal(t, "chatgpt", source)
	})

	t.Run("default tables keep their order", func(t *testing.T) {
		assert.Equal(t, 12, attribution.DefaultReferrerRules().Len())
		assert.Equal(t, 7, attribution.DefaultBotRules().Len())
		assert.Equal(t, "gptbot", attribution.DefaultBotRules().Rules()[0].Source)
	})

	t.Run("empty table never matches", func(t *testing.T) {
		_, ok := attribution.NewTable().Match("anything")

		assert.False(t, ok)
	})
}

func TestParseRules(t *testing.T) {
	t.Run("overrides referrers and keeps default bots", func(t *testing.T) {
		rules, err := attribution.ParseRules([]byte(`
referrers:
  - pattern: 'deepseek\.com'
    source: deepseek
  - pattern: 'claude\.ai'
    source: claude
`))

		require.NoError(t, err)
		assert.Equal(t, 2, rules.Referrers.Len())
		assert.Equal(t, attribution.DefaultBotRules().Len(), rules.Bots.Len())

		source, ok := rules.Referrers.Match("https://chat.DeepSeek.com/")
		require.True(t, ok)
		assert.Equal(t, "deepseek", source)
	})

	t.Run("empty document returns defaults", func(t *testing.T) {
		rules, err := attribution.ParseRules(nil)

		require.NoError(t, err)
		assert.Equal(t, 12, rules.Referrers.Len())
	})

	t.Run("invalid source label fails", func(t *testing.T) {
		_, err := attribution.ParseRules([]byte(`
bots:
  - pattern: Bytespider
    source: Byte Spider
`))

		require.ErrorIs(t, err, attribution.ErrInvalidSource)
		assert.Contains(t, err.Error(), "bots")
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		_, err := attribution.ParseRules([]byte("referrers: [unclosed"))

		assert.Error(t, err)
	})
}

func TestLoadRules(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		rules, err := attribution.LoadRules("")

		require.NoError(t, err)
		assert.Equal(t, 7, rules.Bots.Len())
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("bots:\n  - pattern: Bytespider\n    source: bytespider\n"), 0o600))

		rules, err := attribution.LoadRules(path)

		require.NoError(t, err)
		assert.Equal(t, 1, rules.Bots.Len())
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := attribution.LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))

		assert.Error(t, err)
	})
}
