package conditions

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/google/cel-go/cel"
)

// predicate is one compiled condition kind.
type predicate interface {
	evaluate(facts *facts) (bool, error)
}

// facts is the JSON-normalised view of an event shared by every predicate of one evaluation.
type facts struct {
	event        *models.Event
	fields       map[string]any
	daysUntilDue any
}

func newFacts(event *models.Event) *facts {
	f := &facts{event: event, fields: event.Fields()}
	if event != nil && event.DaysUntilDue != nil {
		f.daysUntilDue = int64(*event.DaysUntilDue)
	}

	return f
}

func (f *facts) lookup(path string) (any, bool) {
	return models.LookupPath(f.fields, path)
}

func (f *facts) section(name string) map[string]any {
	m, ok := f.fields[name].(map[string]any)
	if !ok {
		return map[string]any{}
	}

	return m
}

type fieldEquals struct {
	field string
	value any
}

func (p *fieldEquals) evaluate(f *facts) (bool, error) {
	actual, ok := f.lookup(p.field)
	if !ok {
		return false, nil
	}

	return reflect.DeepEqual(actual, p.value), nil
}

type fieldChanged struct {
	field   string
	from    any
	to      any
	hasFrom bool
	hasTo   bool
}

func (p *fieldChanged) evaluate(f *facts) (bool, error) {
	change, ok := f.lookup("changes." + p.field)
	if !ok {
		return false, nil
	}

	diff, ok := change.(map[string]any)
	if !ok {
		return false, nil
	}

	if p.hasFrom && !reflect.DeepEqual(diff["from"], p.from) {
		return false, nil
	}

	if p.hasTo && !reflect.DeepEqual(diff["to"], p.to) {
		return false, nil
	}

	return true, nil
}

type priorityIs struct {
	priorities []string
}

func (p *priorityIs) evaluate(f *facts) (bool, error) {
	priority, ok := f.lookup("card.priority")
	if !ok {
		return false, nil
	}

	s, ok := priority.(string)

	return ok && slices.Contains(p.priorities, s), nil
}

type columnIs struct {
	columnID string
}

func (p *columnIs) evaluate(f *facts) (bool, error) {
	columnID, ok := f.lookup("card.column_id")
	if !ok {
		return false, nil
	}

	return columnID == p.columnID, nil
}

type expression struct {
	source  string
	program cel.Program
}

func (p *expression) evaluate(f *facts) (bool, error) {
	out, _, err := p.program.Eval(map[string]any{
		"card":           f.section("card"),
		"event":          f.fields,
		"changes":        f.section("changes"),
		"days_until_due": f.daysUntilDue,
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate %q: %w", p.source, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrNonBooleanCEL, p.source)
	}

	return result, nil
}

// normalize maps a config value onto the same representation Event.Fields uses.
func normalize(value any) (any, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	var normalized any

	err = json.Unmarshal(payload, &normalized)

	return normalized, err
}
