package progress

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracker(t *testing.T) {
	tests := []struct {
		name  string
		label string
		total int
	}{
		{"standard tracker", "Analyzing files", 100},
		{"zero total", "Empty task", 0},
		{"single item", "One file", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tracker := NewTrackerTo(&buf, tt.label, tt.total)

			require.NotNil(t, tracker)
			assert.NotNil(t, tracker.bar)
			assert.Equal(t, tt.label, tracker.label)
		})
	}
}

func TestSpinnerConcurrentTicks(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewSpinnerTo(&buf, "Analyzing")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				tracker.Tick()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(200), tracker.Count())
	tracker.FinishSuccess()
}

func TestFinishError(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTrackerTo(&buf, "Analyzing", 3)
	tracker.Tick()

	tracker.FinishError(errors.New("parse error in a.py: bad"))
	assert.Contains(t, buf.String(), "Analyzing error: parse error in a.py: bad")
}
