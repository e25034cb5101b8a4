package aggregation

import (
	"fmt"
	"strings"

	"github.com/aevon-lab/flowrule/internal/core/values"
	"github.com/aevon-lab/flowrule/internal/schema"
	"github.com/shopspring/decimal"
)

// Row is one aggregation result: the key values in declared order followed by
// one value per reduction.
type Row []any

// Folder reduces tuples with a parsed rule in a single process. Results of
// several folders over disjoint inputs combine with Merge. A Folder is not
// safe for concurrent use.
type Folder struct {
	keyIdx  []int
	terms   []foldTerm
	columns []string
	width   int

	groups map[string]*foldGroup
	order  []string
}

type foldTerm struct {
	fn  string
	agg Aggregator
	idx int
}

type foldGroup struct {
	key    []any
	states []State
	seen   []bool
}

// NewFolder binds a validated rule to the layout of the tuples it will fold.
func NewFolder(parsed *ParsedAggregation, layout schema.Layout) (*Folder, error) {
	index := layout.Index()
	f := &Folder{
		width:  len(layout),
		groups: make(map[string]*foldGroup),
	}

	for _, term := range parsed.Rule {
		idx, ok := index[term.InputField]
		if !ok {
			return nil, ruleError(ErrFieldMismatch, fmt.Sprintf("undeclared [%s]", term.InputField))
		}
		if term.Key {
			f.keyIdx = append(f.keyIdx, idx)
			f.columns = append(f.columns, term.InputField)
			continue
		}
		fn, ok := Functions[term.FuncName]
		if !ok {
			return nil, ruleError(ErrUnsupportedFunction, term.FuncName)
		}
		f.terms = append(f.terms, foldTerm{fn: term.FuncName, agg: fn.Aggregator, idx: idx})
		f.columns = append(f.columns, fmt.Sprintf("%s(%s)", term.FuncName, term.InputField))
	}
	return f, nil
}

// Columns names the values of each Row.
func (f *Folder) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// Add folds one tuple into its group. Null values are skipped by every
// function, so count counts non-null values.
func (f *Folder) Add(tuple []any) error {
	if len(tuple) != f.width {
		return fmt.Errorf("tuple has %d values, want %d", len(tuple), f.width)
	}

	k, keyVals := f.groupKey(tuple)
	g, ok := f.groups[k]
	if !ok {
		g = &foldGroup{
			key:    keyVals,
			states: make([]State, len(f.terms)),
			seen:   make([]bool, len(f.terms)),
		}
		f.groups[k] = g
		f.order = append(f.order, k)
	}

	for i, t := range f.terms {
		v := tuple[t.idx]
		if v == nil {
			continue
		}
		d := decimal.Zero
		if t.fn != FnCount {
			var ok bool
			if d, ok = values.ToDecimal(v); !ok {
				return fmt.Errorf("%s: value %v (%T) is not numeric", t.fn, v, v)
			}
		}
		if !g.seen[i] {
			g.states[i] = t.agg.Initial(d)
			g.seen[i] = true
			continue
		}
		g.states[i] = t.agg.Apply(g.states[i], d)
	}
	return nil
}

// Merge folds the groups of other into f. Both folders must come from the same rule.
func (f *Folder) Merge(other *Folder) {
	for _, k := range other.order {
		og := other.groups[k]
		g, ok := f.groups[k]
		if !ok {
			g = &foldGroup{
				key:    og.key,
				states: append([]State(nil), og.states...),
				seen:   append([]bool(nil), og.seen...),
			}
			f.groups[k] = g
			f.order = append(f.order, k)
			continue
		}
		for i, t := range f.terms {
			switch {
			case !og.seen[i]:
			case !g.seen[i]:
				g.states[i] = og.states[i]
				g.seen[i] = true
			default:
				g.states[i] = t.agg.Merge(g.states[i], og.states[i])
			}
		}
	}
}

// Rows returns one row per group in first-seen order. A reduction that saw no
// value yields nil, except count which yields zero. A rule without keys
// always yields exactly one row, even over no tuples.
func (f *Folder) Rows() []Row {
	order := f.order
	if len(f.keyIdx) == 0 && len(order) == 0 {
		order = []string{""}
	}

	rows := make([]Row, 0, len(order))
	for _, k := range order {
		g, ok := f.groups[k]
		if !ok {
			g = &foldGroup{
				states: make([]State, len(f.terms)),
				seen:   make([]bool, len(f.terms)),
			}
		}
		row := make(Row, 0, len(g.key)+len(f.terms))
		row = append(row, g.key...)
		for i, t := range f.terms {
			switch {
			case g.seen[i]:
				row = append(row, t.agg.Result(g.states[i]))
			case t.fn == FnCount:
				row = append(row, decimal.Zero)
			default:
				row = append(row, nil)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (f *Folder) groupKey(tuple []any) (string, []any) {
	if len(f.keyIdx) == 0 {
		return "", nil
	}
	var b strings.Builder
	keyVals := make([]any, len(f.keyIdx))
	for i, idx := range f.keyIdx {
		keyVals[i] = tuple[idx]
		if tuple[idx] == nil {
			b.WriteString("\x00")
		} else {
			fmt.Fprintf(&b, "%T:%v", tuple[idx], tuple[idx])
		}
		b.WriteByte(0x1f)
	}
	return b.String(), keyVals
}
