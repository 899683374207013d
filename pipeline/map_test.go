package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/fetchmcp/models"
	"github.com/use-agent/fetchmcp/pipeline"
)

type fakeMapClient struct {
	result *models.MapResult
	err    error
}

func (f *fakeMapClient) Map(ctx context.Context, req *models.MapRequest) (*models.MapResult, error) {
	return f.result, f.err
}

func TestMapPaginatesEntries(t *testing.T) {
	client := &fakeMapClient{result: &models.MapResult{Entries: []models.MapEntry{
		{URL: "https://example.com/a"},
		{URL: "https://example.com/b"},
		{URL: "https://example.com/c"},
	}}}
	p := pipeline.NewMapPipeline(client)

	req := &models.MapRequest{URL: "https://example.com", MaxResults: 2}
	req.Defaults()

	resp, err := p.Map(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, resp.Entries, 2)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.NextIndex)
}

func TestMapFiltersBySearchTerm(t *testing.T) {
	client := &fakeMapClient{result: &models.MapResult{Entries: []models.MapEntry{
		{URL: "https://example.com/docs/api"},
		{URL: "https://example.com/blog/post"},
	}}}
	p := pipeline.NewMapPipeline(client)

	req := &models.MapRequest{URL: "https://example.com", Search: "docs"}
	req.Defaults()

	resp, err := p.Map(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "https://example.com/docs/api", resp.Entries[0].URL)
}

func TestMapPropagatesErrorWhenDiscoveryFallbackEmpty(t *testing.T) {
	client := &fakeMapClient{err: models.NewError(models.ErrServer, "remote map failed", nil)}
	p := pipeline.NewMapPipeline(client)

	req := &models.MapRequest{URL: "https://unreachable.invalid"}
	req.Defaults()

	_, err := p.Map(context.Background(), req)
	require.Error(t, err)
}
