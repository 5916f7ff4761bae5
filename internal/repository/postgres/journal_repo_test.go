package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/blaxing-console/internal/journal"
)

func TestBuildJournalInsert(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []journal.Entry{
		{ID: "a", SessionID: "s", Mode: "mock", Action: "activate", AgentID: "sniper", Level: "success", Message: "ok", Timestamp: at},
		{ID: "b", SessionID: "s", Mode: "mock", Action: "refresh", Level: "info", Message: "tick", Timestamp: at},
	}

	query, args := buildJournalInsert(entries)

	assert.True(t, strings.HasPrefix(query, "INSERT INTO console_journal"))
	assert.Contains(t, query, "($1, $2, $3, $4, $5, $6, $7, $8),($9, $10, $11, $12, $13, $14, $15, $16)")
	assert.True(t, strings.HasSuffix(query, "ON CONFLICT (id) DO NOTHING"))
	require.Len(t, args, 16)
	assert.Equal(t, "sniper", args[4])
	assert.Nil(t, args[12])
	assert.Equal(t, at, args[15])
}
