package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapToolReturnsTextForReturnOnly(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleMap(context.Background(), callReq(map[string]any{
		"url": "https://example.com",
	}))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
}

func TestMapToolReturnsResourceLinkForSaveOnly(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleMap(context.Background(), callReq(map[string]any{
		"url":            "https://example.com",
		"resultHandling": "saveOnly",
	}))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
}

func TestMapToolRejectsInvalidURL(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleMap(context.Background(), callReq(map[string]any{
		"url": "not a url",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
