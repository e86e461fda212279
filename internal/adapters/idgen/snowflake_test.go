package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/domain"
)

func TestSnowflakeGeneratorProducesValidUniqueIDs(t *testing.T) {
	gen, err := NewSnowflakeGenerator(7)
	require.NoError(t, err)

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := gen.NewDeeplinkID()
		canonical, verr := domain.ParseDeeplinkID(id)
		require.Nil(t, verr, id)
		assert.Equal(t, id, canonical)
		_, dup := seen[id]
		require.False(t, dup, id)
		seen[id] = struct{}{}
	}
}

func TestSnowflakeGeneratorRejectsBadNode(t *testing.T) {
	_, err := NewSnowflakeGenerator(-1)
	assert.Error(t, err)
}
