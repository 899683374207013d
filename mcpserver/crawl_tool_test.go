package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlToolStartReturnsJobHandle(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleCrawl(context.Background(), callReq(map[string]any{
		"url": "https://example.com",
	}))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
}

func TestCrawlToolStatusReturnsResource(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleCrawl(context.Background(), callReq(map[string]any{
		"jobId": "job-1",
	}))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
}

func TestCrawlToolCancelRequiresJobID(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleCrawl(context.Background(), callReq(map[string]any{
		"url":    "https://example.com",
		"cancel": true,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestCrawlToolRejectsBothURLAndJobID(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleCrawl(context.Background(), callReq(map[string]any{
		"url":   "https://example.com",
		"jobId": "job-1",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
