package coeff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plasmacore/tokamak-core/mesh"
)

func TestCacheHitsOnIdenticalProfileAndGeometry(t *testing.T) {
	g := mesh.NewCircular(3, 1, 2.5, 8, 1.0, 3.0)
	p := flatProfiles(8, 1000, 900, 1e19)
	builder := NewBuilder(Models{Transport: constTransport{chi: 1, d: 0.5}}, nil)

	cache := NewCache(4)
	first, err := cache.Build(p, g, builder)
	require.NoError(t, err)
	second, err := cache.Build(p, g, builder)
	require.NoError(t, err)

	assert.Equal(t, 1, cache.Len(), "identical (profile, geometry) should hit, not add a second entry")
	assert.Equal(t, first.Ti.Value(), second.Ti.Value())
}

func TestCacheMissesOnDifferentProfile(t *testing.T) {
	g := mesh.NewCircular(3, 1, 2.5, 8, 1.0, 3.0)
	builder := NewBuilder(Models{Transport: constTransport{chi: 1, d: 0.5}}, nil)

	cache := NewCache(4)
	_, err := cache.Build(flatProfiles(8, 1000, 900, 1e19), g, builder)
	require.NoError(t, err)
	_, err = cache.Build(flatProfiles(8, 1100, 900, 1e19), g, builder)
	require.NoError(t, err)

	assert.Equal(t, 2, cache.Len(), "distinct profile content must not collide")
}

func TestCacheClearEmptiesEntries(t *testing.T) {
	g := mesh.NewCircular(3, 1, 2.5, 8, 1.0, 3.0)
	p := flatProfiles(8, 1000, 900, 1e19)
	builder := NewBuilder(Models{Transport: constTransport{chi: 1, d: 0.5}}, nil)

	cache := NewCache(4)
	_, err := cache.Build(p, g, builder)
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len(), "Clear must empty the cache between accepted steps")
}

func TestCacheEvictsUnderCapacity(t *testing.T) {
	g := mesh.NewCircular(3, 1, 2.5, 4, 1.0, 3.0)
	builder := NewBuilder(Models{Transport: constTransport{chi: 1, d: 0.5}}, nil)

	cache := NewCache(2)
	for i := 0; i < 5; i++ {
		_, err := cache.Build(flatProfiles(4, 1000+float64(i), 900, 1e19), g, builder)
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, cache.Len(), 2, "LRU must stay within its configured capacity")
}
