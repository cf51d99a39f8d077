package registrar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDeviceIDUniqueAndShort(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := newDeviceID()
		if err != nil {
			t.Fatalf("newDeviceID: %v", err)
		}
		if id == "" {
			t.Fatal("newDeviceID returned empty string")
		}
		if seen[id] {
			t.Fatalf("newDeviceID produced a duplicate: %q", id)
		}
		seen[id] = true
	}
}

func TestDeviceQueueKey(t *testing.T) {
	assert.Equal(t, "queue:abc123", deviceQueueKey("abc123"))
}
