package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/models"
)

type webhookCapture struct {
	calls  int
	body   map[string]interface{}
	status int
}

func newWebhook(t *testing.T, capture *webhookCapture) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capture.calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &capture.body))

		if capture.status != 0 {
			w.WriteHeader(capture.status)
			_, _ = w.Write([]byte("rejected"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func sampleRecords() []models.CanonicalRecord {
	return []models.CanonicalRecord{
		{Name: "Asha", CreatedAt: "2024-01-02 10:00:00", RawLeadID: "2"},
	}
}

func TestDispatch_IncrementalPayload(t *testing.T) {
	capture := &webhookCapture{}
	server := newWebhook(t, capture)
	svc := NewService(server.URL, 5*time.Second, arbor.NewLogger())

	err := svc.Dispatch(context.Background(), models.Batch{
		Mode:           models.HarvestModeIncremental,
		DateFilter:     "01/01/2024 - 01/31/2024",
		PreviousCursor: "2024-01-01 12:00:00",
		Records:        sampleRecords(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, capture.calls)

	meta, ok := capture.body["meta"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, models.SourceName, meta["source"])
	assert.Equal(t, "01/01/2024 - 01/31/2024", meta["date_filter"])
	assert.Equal(t, "2024-01-01 12:00:00", meta["previous_cursor"])
	assert.Equal(t, float64(1), meta["new_records"])

	records, ok := capture.body["records"].([]interface{})
	require.True(t, ok)
	require.Len(t, records, 1)
	first := records[0].(map[string]interface{})
	assert.Equal(t, "Asha", first["name"])
	assert.Equal(t, "", first["contact"], "empty fields are still present")
}

func TestDispatch_FullPayload(t *testing.T) {
	capture := &webhookCapture{}
	server := newWebhook(t, capture)
	svc := NewService(server.URL, 5*time.Second, arbor.NewLogger())

	fetchedAt := time.Date(2024, 2, 3, 4, 5, 6, 789000000, time.FixedZone("IST", 5*3600+1800))
	err := svc.Dispatch(context.Background(), models.Batch{
		Mode:       models.HarvestModeFull,
		DateFilter: "01/01/2024 - 01/31/2024",
		FetchedAt:  fetchedAt,
	})
	require.NoError(t, err)

	assert.Equal(t, models.SourceName, capture.body["source"])
	assert.Equal(t, "2024-02-02T22:35:06.789Z", capture.body["fetched_at"])
	assert.Equal(t, float64(0), capture.body["total_records"])
	assert.Equal(t, []interface{}{}, capture.body["records"], "empty batch sends [] not null")
}

func TestDispatch_RejectedStatus(t *testing.T) {
	capture := &webhookCapture{status: http.StatusBadGateway}
	server := newWebhook(t, capture)
	svc := NewService(server.URL, 5*time.Second, arbor.NewLogger())

	err := svc.Dispatch(context.Background(), models.Batch{Records: sampleRecords()})
	require.Error(t, err)

	var deliveryErr *models.DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, http.StatusBadGateway, deliveryErr.StatusCode)
	assert.Equal(t, "rejected", deliveryErr.Body)
	assert.Equal(t, 1, capture.calls, "no retries")
}

func TestDispatch_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	target := server.URL
	server.Close()

	svc := NewService(target, time.Second, arbor.NewLogger())
	err := svc.Dispatch(context.Background(), models.Batch{})

	var deliveryErr *models.DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, 0, deliveryErr.StatusCode)
}

func TestDispatch_MissingURL(t *testing.T) {
	svc := NewService("", time.Second, arbor.NewLogger())
	err := svc.Dispatch(context.Background(), models.Batch{})

	var cfgErr *models.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "webhook.url", cfgErr.Field)
}
