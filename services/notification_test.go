package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNotificationService_SingleInstance(t *testing.T) {
	const callers = 16
	got := make([]*NotificationService, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = GetNotificationService()
		}(i)
	}
	wg.Wait()

	require.NotNil(t, got[0])
	assert.NotNil(t, got[0].Mailer())
	for _, ns := range got[1:] {
		assert.Same(t, got[0], ns)
	}
}
