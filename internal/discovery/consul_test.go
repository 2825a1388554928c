package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationUsesConfiguredAddress(t *testing.T) {
	reg := registration(ServiceConfig{
		Name:    "order-service",
		ID:      "order-service-1",
		Address: "10.0.0.7",
		Port:    8082,
		Tags:    []string{"api", "orders"},
	})

	assert.Equal(t, "order-service-1", reg.ID)
	assert.Equal(t, "10.0.0.7", reg.Address)
	require.NotNil(t, reg.Check)
	assert.Equal(t, "http://10.0.0.7:8082/health", reg.Check.HTTP)
	assert.Equal(t, "30s", reg.Check.DeregisterCriticalServiceAfter)
}

func TestRegistrationFallsBackToOutboundIP(t *testing.T) {
	reg := registration(ServiceConfig{Name: "svc", ID: "svc-1", Port: 9000})
	assert.NotEmpty(t, reg.Address)
}
