package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMaxRetriesCutoff(t *testing.T) {
	b := New(Config{BaseInterval: time.Millisecond, MaxRetries: 3, Scale: 2})

	for i := 0; i < 3; i++ {
		assert.True(t, b.Wait(), "retry %d should succeed", i)
	}
	assert.False(t, b.Wait(), "4th wait should exceed max retries")
	assert.Equal(t, uint32(3), b.Retries())
}

func TestResetRestoresBaseInterval(t *testing.T) {
	b := New(Config{BaseInterval: time.Millisecond, MaxRetries: 2, Scale: 2})

	require := assert.New(t)
	require.True(b.Wait())
	require.True(b.Wait())
	require.False(b.Wait())

	b.Reset()
	require.Equal(uint32(0), b.Retries())
	require.True(b.Wait())
}

func TestStopCancelsWait(t *testing.T) {
	b := New(Config{BaseInterval: time.Hour, MaxRetries: Infinite, Scale: 1})

	done := make(chan bool, 1)
	go func() { done <- b.Wait() }()

	time.Sleep(10 * time.Millisecond)
	b.Stop()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock after Stop")
	}
	assert.True(t, b.Stopped())
}

func TestInfiniteRetries(t *testing.T) {
	b := New(Config{BaseInterval: time.Microsecond, MaxRetries: Infinite, Scale: 1.5, MaxInterval: time.Millisecond})
	for i := 0; i < 50; i++ {
		assert.True(t, b.Wait())
	}
}
