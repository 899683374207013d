package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/fetchmcp/models"
	"github.com/use-agent/fetchmcp/pipeline"
)

type fakeSearchClient struct {
	result *models.SearchResult
	err    error
	gotReq *models.SearchRequest
}

func (f *fakeSearchClient) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	f.gotReq = req
	return f.result, f.err
}

func TestSearchPassesRequestThrough(t *testing.T) {
	client := &fakeSearchClient{result: &models.SearchResult{Hits: []models.SearchHit{
		{URL: "https://example.com", Title: "Example"},
	}}}
	p := pipeline.NewSearchPipeline(client)

	req := &models.SearchRequest{Query: "golang mcp servers"}
	req.Defaults()

	result, err := p.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "golang mcp servers", client.gotReq.Query)
	assert.Equal(t, []string{"web"}, client.gotReq.Sources)
}

func TestSearchPropagatesError(t *testing.T) {
	client := &fakeSearchClient{err: models.NewError(models.ErrRateLimit, "too many requests", nil)}
	p := pipeline.NewSearchPipeline(client)

	req := &models.SearchRequest{Query: "x"}
	req.Defaults()

	_, err := p.Search(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, models.ErrRateLimit, models.AsAcquireError(err).Kind)
}
