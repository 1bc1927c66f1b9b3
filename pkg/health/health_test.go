package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
)

func TestRunAggregatesWorstStatus(t *testing.T) {
	c := NewChecker()
	c.Register("corpus", func(context.Context) error { return nil })
	assert.Equal(t, StatusUp, c.Run(context.Background()).Status)

	c.Register("collation", func(context.Context) error {
		return fmt.Errorf("tr_TR: %w", apperrors.ErrConfigurationDegraded)
	})
	r := c.Run(context.Background())
	assert.Equal(t, StatusDegraded, r.Status)
	assert.Equal(t, StatusDegraded, r.Components["collation"].Status)

	c.Register("redis", func(context.Context) error { return errors.New("connection refused") })
	r = c.Run(context.Background())
	assert.Equal(t, StatusDown, r.Status)
	assert.Equal(t, "connection refused", r.Components["redis"].Message)
	assert.Equal(t, []string{"collation", "corpus", "redis"}, r.Names())
}

func TestHandlers(t *testing.T) {
	c := NewChecker()
	c.Register("postgres", func(context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	c.ReadyHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, StatusDown, report.Status)

	rec = httptest.NewRecorder()
	LiveHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
