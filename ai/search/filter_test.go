package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ailurusbio/synvectordb/store"
)

func TestCanonicalSource(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"iGEM Registry", "igem"},
		{"igem registry", "igem"},
		{"iGEM", "igem"},
		{"igem", "igem"},
		{"Laboratory", "lab"},
		{"lab", "lab"},
		{"AddGene", "addgene"},
		{"SnapGene", "snapgene"},
		{"Yunzhou", "yunzhou"},
		{"  igem  ", "igem"},
		{"some new collection", "some new collection"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, CanonicalSource(tt.name), "source %q", tt.name)
	}
}

func TestCanonicalSources(t *testing.T) {
	// Aliases collapse into one tag; first-seen order is preserved.
	got := CanonicalSources([]string{"iGEM Registry", "addgene", "igem", "Lab", ""})
	assert.Equal(t, []string{"igem", "addgene", "lab"}, got)

	assert.Empty(t, CanonicalSources(nil))
	assert.Empty(t, CanonicalSources([]string{"", "  "}))
}

func TestCompileEmptyFiltersIsUnrestricted(t *testing.T) {
	assert.Nil(t, Filters{}.Compile())
}

func TestCompilePromoterWithIGEMSource(t *testing.T) {
	pred := Filters{
		Types:             []string{"promoter"},
		SourceCollections: []string{"iGEM Registry"},
	}.Compile()
	require.NotNil(t, pred)

	tests := []struct {
		desc  string
		part  *store.Part
		match bool
	}{
		{
			"reclassified regulatory DNA element",
			&store.Part{TypeLevel1: "DNA Elements", TypeLevel2: "Regulatory", SourceCollection: "igem"},
			true,
		},
		{
			"promoter in name without hierarchy levels",
			&store.Part{Name: "T7 Promoter variant", SourceCollection: "igem"},
			true,
		},
		{
			"regulatory level alone is not enough",
			&store.Part{TypeLevel2: "Regulatory", SourceCollection: "igem"},
			false,
		},
		{
			"matching part in the wrong collection",
			&store.Part{TypeLevel1: "DNA Elements", TypeLevel2: "Regulatory", SourceCollection: "addgene"},
			false,
		},
		{
			"unrelated part",
			&store.Part{Name: "GFP", Type: "cds", SourceCollection: "igem"},
			false,
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.match, store.MatchPredicate(pred, tt.part), tt.desc)
	}
}

func TestCompileHierarchicalTypeWithIGEMSource(t *testing.T) {
	pred := Filters{
		Types:             []string{"Regulatory"},
		SourceCollections: []string{"igem"},
	}.Compile()
	require.NotNil(t, pred)

	// A non-promoter type matches either hierarchy level.
	assert.True(t, store.MatchPredicate(pred, &store.Part{TypeLevel1: "Regulatory", SourceCollection: "igem"}))
	assert.True(t, store.MatchPredicate(pred, &store.Part{TypeLevel2: "Regulatory", SourceCollection: "igem"}))
	assert.False(t, store.MatchPredicate(pred, &store.Part{Type: "Regulatory", SourceCollection: "igem"}))
}

func TestCompileFlatTypeWithoutIGEMSource(t *testing.T) {
	pred := Filters{
		Types:             []string{"promoter"},
		SourceCollections: []string{"addgene"},
	}.Compile()
	require.NotNil(t, pred)

	assert.True(t, store.MatchPredicate(pred, &store.Part{Type: "promoter", SourceCollection: "addgene"}))
	// Without igem among the sources, the hierarchy levels are not consulted.
	assert.False(t, store.MatchPredicate(pred,
		&store.Part{TypeLevel1: "DNA Elements", TypeLevel2: "Regulatory", SourceCollection: "addgene"}))
}

func TestCompileTypeOnlyUsesFlatField(t *testing.T) {
	pred := Filters{Types: []string{"terminator"}}.Compile()
	require.NotNil(t, pred)

	assert.True(t, store.MatchPredicate(pred, &store.Part{Type: "terminator"}))
	assert.False(t, store.MatchPredicate(pred, &store.Part{Type: "promoter"}))
	// No source filter, so collection is unrestricted.
	assert.True(t, store.MatchPredicate(pred, &store.Part{Type: "terminator", SourceCollection: "lab"}))
}

func TestCompileMultipleTypesAreAlternatives(t *testing.T) {
	pred := Filters{Types: []string{"promoter", "terminator"}}.Compile()
	require.NotNil(t, pred)

	assert.True(t, store.MatchPredicate(pred, &store.Part{Type: "promoter"}))
	assert.True(t, store.MatchPredicate(pred, &store.Part{Type: "terminator"}))
	assert.False(t, store.MatchPredicate(pred, &store.Part{Type: "cds"}))
}

func TestCompileSourceOnly(t *testing.T) {
	pred := Filters{SourceCollections: []string{"iGEM Registry", "addgene"}}.Compile()
	require.NotNil(t, pred)

	assert.True(t, store.MatchPredicate(pred, &store.Part{SourceCollection: "igem"}))
	assert.True(t, store.MatchPredicate(pred, &store.Part{SourceCollection: "addgene"}))
	assert.False(t, store.MatchPredicate(pred, &store.Part{SourceCollection: "snapgene"}))
}

func TestCompileExclusions(t *testing.T) {
	pred := Filters{
		ExcludeTypes:   []string{"plasmid"},
		ExcludeSources: []string{"Lab"},
	}.Compile()
	require.NotNil(t, pred)

	tests := []struct {
		desc  string
		part  *store.Part
		match bool
	}{
		{"clean part survives", &store.Part{Type: "promoter", SourceCollection: "igem"}, true},
		{"excluded flat type", &store.Part{Type: "plasmid", SourceCollection: "igem"}, false},
		{"excluded level 1 type", &store.Part{TypeLevel1: "plasmid", SourceCollection: "igem"}, false},
		{"excluded level 2 type", &store.Part{TypeLevel2: "plasmid", SourceCollection: "igem"}, false},
		{"excluded source after canonicalization", &store.Part{Type: "promoter", SourceCollection: "lab"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.match, store.MatchPredicate(pred, tt.part), tt.desc)
	}
}

func TestCompileIncludesAndExcludesCombine(t *testing.T) {
	pred := Filters{
		Types:             []string{"promoter"},
		SourceCollections: []string{"igem", "addgene"},
		ExcludeSources:    []string{"addgene"},
	}.Compile()
	require.NotNil(t, pred)

	assert.True(t, store.MatchPredicate(pred,
		&store.Part{Name: "J23100 promoter", SourceCollection: "igem"}))
	assert.False(t, store.MatchPredicate(pred,
		&store.Part{Name: "strong promoter", SourceCollection: "addgene"}))
}
