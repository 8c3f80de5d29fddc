package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_EndpointHealth(t *testing.T) {
	registry := NewDefaultRegistry()

	// Unknown endpoints are available by default
	assert.True(t, registry.IsEndpointAvailable("qwen"))

	registry.MarkEndpointFailure("qwen")
	registry.MarkEndpointFailure("qwen")
	assert.True(t, registry.IsEndpointAvailable("qwen"), "below threshold, circuit stays closed")

	registry.MarkEndpointFailure("qwen")
	assert.False(t, registry.IsEndpointAvailable("qwen"), "third consecutive failure opens the circuit")

	h := registry.GetEndpointHealth("qwen")
	require.NotNil(t, h)
	assert.True(t, h.CircuitOpen)
	assert.Equal(t, 3, h.FailureCount)

	// Success closes the circuit and resets the counter
	registry.MarkEndpointSuccess("qwen")
	assert.True(t, registry.IsEndpointAvailable("qwen"))

	h = registry.GetEndpointHealth("qwen")
	require.NotNil(t, h)
	assert.False(t, h.CircuitOpen)
	assert.Equal(t, 0, h.FailureCount)
}

func TestRegistry_HalfOpenAfterRecoveryTimeout(t *testing.T) {
	registry := NewDefaultRegistry()
	registry.SetHealthConfig(HealthConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Millisecond,
	})

	registry.MarkEndpointFailure("claude-sonnet")
	assert.False(t, registry.IsEndpointAvailable("claude-sonnet"))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, registry.IsEndpointAvailable("claude-sonnet"), "recovery timeout allows a test request")
}

func TestRegistry_GetAvailableFallbackChain(t *testing.T) {
	registry := NewRegistry(
		map[Capability]*CapabilityConfig{
			CapabilityAssessment: {
				Preferred: []string{"a", "b"},
				Fallback:  []string{"c"},
			},
		},
		nil,
	)
	registry.SetHealthConfig(HealthConfig{FailureThreshold: 1, RecoveryTimeout: time.Minute})

	registry.MarkEndpointFailure("a")
	assert.Equal(t, []string{"b", "c"}, registry.GetAvailableFallbackChain(CapabilityAssessment))

	// All endpoints down: return the full chain rather than nothing
	registry.MarkEndpointFailure("b")
	registry.MarkEndpointFailure("c")
	assert.Equal(t, []string{"a", "b", "c"}, registry.GetAvailableFallbackChain(CapabilityAssessment))
}

func TestRegistry_ResetEndpointHealth(t *testing.T) {
	registry := NewDefaultRegistry()
	registry.MarkEndpointFailure("qwen")
	require.NotNil(t, registry.GetEndpointHealth("qwen"))

	registry.ResetEndpointHealth("qwen")
	assert.Nil(t, registry.GetEndpointHealth("qwen"))
}
