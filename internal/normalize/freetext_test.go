package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devin-analytics/devin-stats/internal/domain"
)

func TestParseFreeTextSessions(t *testing.T) {
	t.Run("single record with headers and separator", func(t *testing.T) {
		text := "Session\nCreated At\nACUs Used\nFoo Bar\nJun 12, 2025\n0.44\nview session"

		sessions, warnings := ParseFreeTextSessions(text)
		require.Len(t, sessions, 1)
		assert.Empty(t, warnings)
		assert.Equal(t, domain.UsageSession{
			SessionName: "Foo Bar",
			CreatedAt:   "Jun 12, 2025",
			ACUsUsed:    0.44,
			Date:        "2025-06-12",
		}, sessions[0])
	})

	t.Run("multiple records", func(t *testing.T) {
		text := `Session
Created At
ACUs Used
Fix login bug
Jun 12, 2025
0.44
View session
Update README
Jun 11, 2025
1.2
View session`

		sessions, _ := ParseFreeTextSessions(text)
		require.Len(t, sessions, 2)
		assert.Equal(t, "Fix login bug", sessions[0].SessionName)
		assert.Equal(t, "Update README", sessions[1].SessionName)
		assert.Equal(t, 1.2, sessions[1].ACUsUsed)
	})

	t.Run("wrapped session name spans multiple lines", func(t *testing.T) {
		text := "Long session name\nthat wraps around\nJun 10, 2025\n2.5\nview session"

		sessions, _ := ParseFreeTextSessions(text)
		require.Len(t, sessions, 1)
		assert.Equal(t, "Long session name that wraps around", sessions[0].SessionName)
		assert.Equal(t, "Jun 10, 2025", sessions[0].CreatedAt)
	})

	t.Run("incomplete record dropped with warning", func(t *testing.T) {
		text := "Only a name\nview session\nComplete one\nJun 9, 2025\n3\nview session"

		sessions, warnings := ParseFreeTextSessions(text)
		require.Len(t, sessions, 1)
		assert.Equal(t, "Complete one", sessions[0].SessionName)
		require.Len(t, warnings, 1)
		assert.Equal(t, "session", warnings[0].Field)
	})

	t.Run("trailing record without separator is flushed", func(t *testing.T) {
		text := "Final session\nJun 8, 2025\n0.5"

		sessions, _ := ParseFreeTextSessions(text)
		require.Len(t, sessions, 1)
		assert.Equal(t, 0.5, sessions[0].ACUsUsed)
	})
}

func TestParseStructuredSessions(t *testing.T) {
	text := `Session
Created At
ACUs Used
First task
Jun 12, 2025
0.44
Second task
Jun 11, 2025
12.14`

	sessions, warnings := ParseStructuredSessions(text)
	require.Len(t, sessions, 2)
	assert.Empty(t, warnings)
	assert.Equal(t, "First task", sessions[0].SessionName)
	assert.Equal(t, 0.44, sessions[0].ACUsUsed)
	assert.Equal(t, "Second task", sessions[1].SessionName)
	assert.Equal(t, 12.14, sessions[1].ACUsUsed)
}

func TestParseUsageText(t *testing.T) {
	t.Run("prefers the separator-aware parser", func(t *testing.T) {
		text := "Foo Bar\nJun 12, 2025\n0.44\nview session"

		sessions, _ := ParseUsageText(text)
		require.Len(t, sessions, 1)
		assert.Equal(t, "Foo Bar", sessions[0].SessionName)
	})

	t.Run("empty input yields nothing", func(t *testing.T) {
		sessions, warnings := ParseUsageText("")
		assert.Empty(t, sessions)
		assert.Empty(t, warnings)
	})
}
