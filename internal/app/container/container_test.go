package container

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/domain/services"
	"barangay-registry/internal/infrastructure/config"
)

func TestServiceContainerWiring(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		StoreBackend:   config.BackendRedis,
		RedisHost:      mr.Host(),
		RedisPort:      mr.Port(),
		Barangay:       "Kabacsanan",
		PasswordScheme: config.SchemePBKDF2,
	}
	c, err := NewServiceContainer(cfg)
	require.NoError(t, err)
	defer c.Close()

	for _, name := range []string{"config", "store", "household", "resident", "user", "search", "stats"} {
		assert.NotNil(t, c.GetService(name), name)
	}
	assert.Nil(t, c.GetService("mqtt"))

	hs, ok := c.GetService("household").(services.InterfaceHouseholdService)
	require.True(t, ok)

	ctx := context.Background()
	id, err := hs.CreateHousehold(ctx, &models.Household{AddressLine1: "1 Mabini St"})
	require.NoError(t, err)

	h, err := c.Households().GetHouseholdByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "Kabacsanan", h.Barangay)
	assert.True(t, mr.Exists("households:"+id))
}

func TestServiceContainerRejectsBadBackend(t *testing.T) {
	_, err := NewServiceContainer(&config.Config{StoreBackend: "sqlite"})
	assert.Error(t, err)

	_, err = NewServiceContainer(nil)
	assert.Error(t, err)
}
