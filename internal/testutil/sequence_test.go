package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence_Next(t *testing.T) {
	s := NewSequence()
	assert.Equal(t, int64(0), s.Current())
	assert.Equal(t, int64(1), s.Next())
	assert.Equal(t, int64(2), s.Next())
	assert.Equal(t, int64(2), s.Current())
}

func TestSequence_Reset(t *testing.T) {
	s := NewSequence()
	s.Next()
	s.Next()
	s.Reset()
	assert.Equal(t, int64(1), s.Next())
}

func TestSequence_Concurrent(t *testing.T) {
	s := NewSequence()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Next()
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), s.Current())
}

func TestQuietLogger(t *testing.T) {
	l := QuietLogger()
	l.Info("discarded", "key", "value")
	assert.NotNil(t, l)
}

func TestTestLogger(t *testing.T) {
	l := TestLogger(t)
	l.Debug("visible with -v", "key", "value")
	assert.True(t, l.Enabled(t.Context(), -4))
}
