package notification_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"VentaCommSaas/internal/notification"
)

func TestFeedPublishAndRecent(t *testing.T) {
	f := notification.NewFeed(10)

	f.Publish(notification.KindUpload, "ventas_marzo.xlsx: 120 filas")
	f.Publish(notification.KindRateRefresh, "BCV 36.42")

	events := f.Recent()
	if assert.Len(t, events, 2) {
		assert.Equal(t, notification.KindUpload, events[0].Kind)
		assert.Equal(t, notification.KindRateRefresh, events[1].Kind)
		assert.False(t, events[0].At.IsZero())
	}

	events[0].Message = "mutated"
	assert.Equal(t, "ventas_marzo.xlsx: 120 filas", f.Recent()[0].Message)
}

func TestFeedDropsOldest(t *testing.T) {
	f := notification.NewFeed(3)
	for i := 1; i <= 5; i++ {
		f.Publish(notification.KindApproval, fmt.Sprintf("evento %d", i))
	}

	events := f.Recent()
	if assert.Len(t, events, 3) {
		assert.Equal(t, "evento 3", events[0].Message)
		assert.Equal(t, "evento 5", events[2].Message)
	}
}

func TestFeedClear(t *testing.T) {
	f := notification.NewFeed(0)
	f.Publish(notification.KindUpload, "x")
	f.Clear()
	assert.Empty(t, f.Recent())
}
