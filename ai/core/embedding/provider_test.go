package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalProvider(t *testing.T, dimensions int) Provider {
	t.Helper()
	provider, err := NewProvider(&Config{Offline: true, Dimensions: dimensions})
	require.NoError(t, err)
	return provider
}

func vectorNorm(vec []float32) float64 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	return math.Sqrt(norm)
}

func TestNewProviderRejectsInvalidDimensions(t *testing.T) {
	_, err := NewProvider(&Config{Offline: true, Dimensions: 0})
	assert.Error(t, err)
	_, err = NewProvider(&Config{Offline: true, Dimensions: -5})
	assert.Error(t, err)
}

func TestLocalProviderDeterministic(t *testing.T) {
	provider := newLocalProvider(t, 64)
	ctx := context.Background()

	first, err := provider.Embed(ctx, "constitutive promoter for E. coli")
	require.NoError(t, err)
	second, err := provider.Embed(ctx, "constitutive promoter for E. coli")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := provider.Embed(ctx, "fluorescent reporter protein")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestLocalProviderDimensionsAndNorm(t *testing.T) {
	provider := newLocalProvider(t, 32)
	assert.Equal(t, 32, provider.Dimensions())

	vec, err := provider.Embed(context.Background(), "ribosome binding site")
	require.NoError(t, err)
	assert.Len(t, vec, 32)
	assert.InDelta(t, 1, vectorNorm(vec), 0.0001)
}

func TestLocalProviderCaseInsensitive(t *testing.T) {
	provider := newLocalProvider(t, 64)
	ctx := context.Background()

	lower, err := provider.Embed(ctx, "lac promoter")
	require.NoError(t, err)
	upper, err := provider.Embed(ctx, "LAC Promoter")
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
}

func TestLocalProviderEmptyText(t *testing.T) {
	provider := newLocalProvider(t, 8)

	vec, err := provider.Embed(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, vec, 8)
	assert.Equal(t, float32(1), vec[0])
	assert.InDelta(t, 1, vectorNorm(vec), 0.0001)
}

func TestLocalProviderEmbedBatch(t *testing.T) {
	provider := newLocalProvider(t, 16)
	ctx := context.Background()

	vectors, err := provider.EmbedBatch(ctx, []string{"promoter", "terminator"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	single, err := provider.Embed(ctx, "promoter")
	require.NoError(t, err)
	assert.Equal(t, single, vectors[0])

	_, err = provider.EmbedBatch(ctx, nil)
	assert.Error(t, err)
}
