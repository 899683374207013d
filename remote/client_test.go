package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/fetchmcp/models"
)

func TestClientClassifiesErrorsByStatus(t *testing.T) {
	cases := []struct {
		status int
		header string
		want   models.ErrorKind
	}{
		{http.StatusUnauthorized, "", models.ErrAuth},
		{http.StatusForbidden, "", models.ErrAuth},
		{http.StatusPaymentRequired, "", models.ErrPayment},
		{http.StatusTooManyRequests, "5", models.ErrRateLimit},
		{http.StatusBadRequest, "", models.ErrValidation},
		{http.StatusInternalServerError, "", models.ErrServer},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tc.header != "" {
				w.Header().Set("Retry-After", tc.header)
			}
			w.WriteHeader(tc.status)
			w.Write([]byte(`{"error":{"message":"boom"}}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "key")
		err := c.do(context.Background(), "GET", "/x", nil, nil)
		require.Error(t, err)
		acq := models.AsAcquireError(err)
		assert.Equal(t, tc.want, acq.Kind)
	}
}

func TestClientRateLimitCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	err := c.do(context.Background(), "GET", "/x", nil, nil)
	require.Error(t, err)
	acq := models.AsAcquireError(err)
	assert.Equal(t, int64(3000), acq.RetryAfterMs)
}

func TestClientDecodesSuccessResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobId":"job_abc"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	var out struct {
		JobID string `json:"jobId"`
	}
	require.NoError(t, c.do(context.Background(), "GET", "/x", nil, &out))
	assert.Equal(t, "job_abc", out.JobID)
}
