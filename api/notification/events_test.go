package notification

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	notif "VentaCommSaas/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecentEventsPagination(t *testing.T) {
	feed := notif.NewFeed(10)
	for i := 0; i < 5; i++ {
		feed.Publish(notif.KindUpload, fmt.Sprintf("file-%d", i))
	}
	handler := RecentEvents(feed)

	r := httptest.NewRequest(http.MethodGet, "/notification/events/recent?page=2&limit=2", nil)
	w := httptest.NewRecorder()
	handler(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success    bool          `json:"success"`
		Count      int           `json:"count"`
		Events     []notif.Event `json:"events"`
		Pagination struct {
			TotalRecords int `json:"total_records"`
			TotalPages   int `json:"total_pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, "file-2", resp.Events[0].Message)
	assert.Equal(t, "file-3", resp.Events[1].Message)
	assert.Equal(t, 5, resp.Pagination.TotalRecords)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
}

func TestRecentEventsPageBeyondEnd(t *testing.T) {
	feed := notif.NewFeed(10)
	feed.Publish(notif.KindUpload, "only one")
	handler := RecentEvents(feed)

	r := httptest.NewRequest(http.MethodGet, "/notification/events/recent?page=9", nil)
	w := httptest.NewRecorder()
	handler(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count  int           `json:"count"`
		Events []notif.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
	assert.Empty(t, resp.Events)
}

func TestRecentEventsBadQuery(t *testing.T) {
	handler := RecentEvents(notif.NewFeed(10))

	r := httptest.NewRequest(http.MethodGet, "/notification/events/recent?limit=zero", nil)
	w := httptest.NewRecorder()
	handler(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "limit")
}
