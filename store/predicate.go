package store

import "strings"

// Predicate is a boolean filter expression evaluated against part attributes
// during vector search. Filter values are never interpolated into query text;
// each driver renders the tree itself (parameterized SQL for postgres, an
// in-memory evaluation for sqlite).
type Predicate interface {
	isPredicate()
}

// Op is a comparison operator.
type Op string

const (
	OpEq    Op = "="
	OpNe    Op = "!="
	OpLike  Op = "LIKE" // case-insensitive substring match
	OpIn    Op = "IN"
	OpNotIn Op = "NOT IN"
)

// Cond is a single field condition. Value holds the comparison operand for
// OpEq/OpNe/OpLike; Values holds the set for OpIn/OpNotIn.
type Cond struct {
	Field  string
	Op     Op
	Value  string
	Values []string
}

// And is the conjunction of its children. An empty And matches everything.
type And struct {
	Preds []Predicate
}

// Or is the disjunction of its children. An empty Or matches nothing and is
// never produced by the filter compiler.
type Or struct {
	Preds []Predicate
}

// Not negates its child.
type Not struct {
	Pred Predicate
}

func (Cond) isPredicate() {}
func (And) isPredicate()  {}
func (Or) isPredicate()   {}
func (Not) isPredicate()  {}

// partField resolves a predicate field name against a part row.
func partField(p *Part, field string) string {
	switch field {
	case "name":
		return p.Name
	case "type":
		return p.Type
	case "type_level_1":
		return p.TypeLevel1
	case "type_level_2":
		return p.TypeLevel2
	case "type_level_3":
		return p.TypeLevel3
	case "source_collection":
		return p.SourceCollection
	case "source_name":
		return p.SourceName
	default:
		return ""
	}
}

// MatchPredicate evaluates a predicate tree against a part. A nil predicate
// matches everything (unrestricted search, never match-nothing).
func MatchPredicate(pred Predicate, p *Part) bool {
	if pred == nil {
		return true
	}
	switch node := pred.(type) {
	case Cond:
		return matchCond(node, p)
	case *Cond:
		return matchCond(*node, p)
	case And:
		for _, child := range node.Preds {
			if !MatchPredicate(child, p) {
				return false
			}
		}
		return true
	case *And:
		return MatchPredicate(And{Preds: node.Preds}, p)
	case Or:
		for _, child := range node.Preds {
			if MatchPredicate(child, p) {
				return true
			}
		}
		return false
	case *Or:
		return MatchPredicate(Or{Preds: node.Preds}, p)
	case Not:
		return !MatchPredicate(node.Pred, p)
	case *Not:
		return !MatchPredicate(node.Pred, p)
	default:
		return false
	}
}

func matchCond(c Cond, p *Part) bool {
	got := partField(p, c.Field)
	switch c.Op {
	case OpEq:
		return got == c.Value
	case OpNe:
		return got != c.Value
	case OpLike:
		return strings.Contains(strings.ToLower(got), strings.ToLower(c.Value))
	case OpIn:
		for _, v := range c.Values {
			if got == v {
				return true
			}
		}
		return false
	case OpNotIn:
		for _, v := range c.Values {
			if got == v {
				return false
			}
		}
		return true
	default:
		return false
	}
}
