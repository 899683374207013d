package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchToolReturnsSummaryAndResource(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleSearch(context.Background(), callReq(map[string]any{
		"query": "golang concurrency",
	}))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 2)
}

func TestSearchToolRejectsEmptyQuery(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleSearch(context.Background(), callReq(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
