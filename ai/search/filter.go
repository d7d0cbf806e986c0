package search

import (
	"strings"

	"github.com/ailurusbio/synvectordb/store"
)

// sourceAliases maps the source collection spellings found in the wild to
// their canonical tags.
var sourceAliases = map[string]string{
	"igem registry": "igem",
	"igem":          "igem",
	"laboratory":    "lab",
	"lab":           "lab",
	"addgene":       "addgene",
	"snapgene":      "snapgene",
	"yunzhou":       "yunzhou",
}

// CanonicalSource resolves a source collection name to its canonical tag.
// Unknown names pass through lowercased.
func CanonicalSource(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := sourceAliases[key]; ok {
		return canonical
	}
	return key
}

// CanonicalSources canonicalizes and deduplicates a source list, preserving
// first-seen order.
func CanonicalSources(names []string) []string {
	seen := map[string]bool{}
	canonical := []string{}
	for _, name := range names {
		tag := CanonicalSource(name)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		canonical = append(canonical, tag)
	}
	return canonical
}

// Filters is the input to predicate compilation. Include fields come from
// the caller; exclude fields come from query optimization.
type Filters struct {
	Types             []string
	SourceCollections []string
	ExcludeTypes      []string
	ExcludeSources    []string
}

// Compile translates filters into a store predicate. The iGEM collection
// carries the reclassified type hierarchy, so when it is among the requested
// sources each type is matched against both hierarchy levels; other
// collections still use the legacy flat type field. An empty filter set
// compiles to nil, meaning unrestricted search.
func (f Filters) Compile() store.Predicate {
	sources := CanonicalSources(f.SourceCollections)
	hierarchical := false
	for _, s := range sources {
		if s == "igem" {
			hierarchical = true
			break
		}
	}

	conjuncts := []store.Predicate{}

	if len(f.Types) > 0 {
		alternatives := []store.Predicate{}
		for _, t := range f.Types {
			alternatives = append(alternatives, typePredicate(t, hierarchical))
		}
		conjuncts = append(conjuncts, store.Or{Preds: alternatives})
	}

	if len(sources) > 0 {
		conjuncts = append(conjuncts, store.Cond{
			Field:  "source_collection",
			Op:     store.OpIn,
			Values: sources,
		})
	}

	// Exclusions are negated equality across all three type fields, so an
	// excluded type disappears no matter which schema convention its
	// collection uses.
	for _, t := range f.ExcludeTypes {
		conjuncts = append(conjuncts,
			store.Cond{Field: "type", Op: store.OpNe, Value: t},
			store.Cond{Field: "type_level_1", Op: store.OpNe, Value: t},
			store.Cond{Field: "type_level_2", Op: store.OpNe, Value: t},
		)
	}

	if excluded := CanonicalSources(f.ExcludeSources); len(excluded) > 0 {
		conjuncts = append(conjuncts, store.Cond{
			Field:  "source_collection",
			Op:     store.OpNotIn,
			Values: excluded,
		})
	}

	if len(conjuncts) == 0 {
		return nil
	}
	if len(conjuncts) == 1 {
		return conjuncts[0]
	}
	return store.And{Preds: conjuncts}
}

func typePredicate(t string, hierarchical bool) store.Predicate {
	if !hierarchical {
		return store.Cond{Field: "type", Op: store.OpEq, Value: t}
	}
	if strings.EqualFold(t, "promoter") {
		// Promoters predate the reclassification in part of the iGEM data;
		// the name heuristic covers rows not yet carrying hierarchy levels.
		return store.Or{Preds: []store.Predicate{
			store.And{Preds: []store.Predicate{
				store.Cond{Field: "type_level_1", Op: store.OpEq, Value: "DNA Elements"},
				store.Cond{Field: "type_level_2", Op: store.OpEq, Value: "Regulatory"},
			}},
			store.Cond{Field: "name", Op: store.OpLike, Value: "promoter"},
		}}
	}
	return store.Or{Preds: []store.Predicate{
		store.Cond{Field: "type_level_1", Op: store.OpEq, Value: t},
		store.Cond{Field: "type_level_2", Op: store.OpEq, Value: t},
	}}
}
