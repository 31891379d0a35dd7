package genkernel

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/codec"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/icd"
)

// FieldPath identifies one field within one message, the unit a
// scenario binds a generator to.
type FieldPath struct {
	Message string
	Field   string
}

type binding struct {
	fieldName string
	spec      Spec
	gen       Generator
}

type messageKernel struct {
	name       string
	fieldOrder []string // evaluation order: independent fields, then expression fields topo-sorted
	bindings   map[string]*binding
}

// Kernel holds every field's compiled generator for one ICD, plus the
// cross-message value store expression fields may read from.
type Kernel struct {
	baseSeed uint64
	messages map[string]*messageKernel

	mu         sync.Mutex
	lastValues map[string]map[string]float64
}

// Build compiles a Kernel from an ICD and a scenario's field->Spec
// bindings. Fields without an explicit binding default to a constant
// generator using the ICD's declared const value, if any; anything
// else unbound is a load-time error. Dependency cycles among a
// message's expression fields are also a load-time error.
func Build(doc *icd.ICD, bindings map[FieldPath]Spec, baseSeed uint64) (*Kernel, error) {
	k := &Kernel{
		baseSeed:   baseSeed,
		messages:   map[string]*messageKernel{},
		lastValues: map[string]map[string]float64{},
	}

	for _, msg := range doc.Messages {
		mk := &messageKernel{name: msg.Name, bindings: map[string]*binding{}}
		var independent []string
		exprDeps := map[string][]string{}

		for _, slot := range msg.Slots {
			for _, f := range slot.Fields {
				spec, ok := bindings[FieldPath{Message: msg.Name, Field: f.Name}]
				if !ok {
					if f.Const != nil {
						spec = Spec{Kind: KindConstant, Value: *f.Const}
					} else {
						return nil, &UndefinedFieldError{Ref: msg.Name + "." + f.Name}
					}
				}

				var rng *rand.Rand
				if usesRandom(spec.Kind) {
					rng = newSubstream(baseSeed, msg.Name, f.Name, spec.Seed)
				}
				gen, err := New(spec, rng)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", msg.Name, f.Name, err)
				}
				mk.bindings[f.Name] = &binding{fieldName: f.Name, spec: spec, gen: gen}

				if spec.Kind == KindExpression {
					exprDeps[f.Name] = []string{}
					deps := map[string]bool{}
					if eg, ok := gen.(*expressionGenerator); ok {
						eg.expr.dependsOn(deps)
					}
					for dep := range deps {
						exprDeps[f.Name] = append(exprDeps[f.Name], dep)
					}
				} else {
					independent = append(independent, f.Name)
				}
			}
		}

		for _, deps := range exprDeps {
			for _, dep := range deps {
				if _, ok := mk.bindings[dep]; !ok {
					return nil, &UndefinedFieldError{Ref: msg.Name + "." + dep}
				}
			}
		}

		order, err := topoSortExpressions(msg.Name, exprDeps)
		if err != nil {
			return nil, err
		}
		mk.fieldOrder = append(independent, order...)
		k.messages[msg.Name] = mk
	}

	return k, nil
}

func usesRandom(kind Kind) bool {
	switch kind {
	case KindRandomUniform, KindRandomNormal, KindRandomMultimodal, KindRandomExponential, KindExpression:
		return true
	default:
		return false
	}
}

// topoSortExpressions orders a message's expression fields so each is
// evaluated after every other expression field it depends on.
// Dependencies on non-expression fields are ignored here since those
// are always evaluated first.
func topoSortExpressions(message string, deps map[string][]string) ([]string, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var order []string
	var chain []string

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			return &CycleError{Message: message, Chain: append(append([]string{}, chain...), name)}
		}
		if _, isExpr := deps[name]; !isExpr {
			return nil // dependency on a non-expression field; nothing to order
		}
		color[name] = gray
		chain = append(chain, name)
		for _, dep := range deps[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		chain = chain[:len(chain)-1]
		color[name] = black
		order = append(order, name)
		return nil
	}

	// visit in a stable order so the resulting topo order is
	// deterministic across runs with the same scenario.
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sortStrings(names)
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// EvaluateMessage runs every field of one message for one scheduled
// emission, in dependency order, and records the results into the
// cross-message value store before returning.
func (k *Kernel) EvaluateMessage(message string, timeSeconds float64, messageCount int64) (map[string]float64, []codec.Warning, error) {
	mk, ok := k.messages[message]
	if !ok {
		return nil, nil, &UndefinedFieldError{Ref: message}
	}

	ctx := &EvalContext{
		TimeSeconds:  timeSeconds,
		MessageName:  message,
		MessageCount: messageCount,
		Values:       map[string]float64{},
		kernel:       k,
	}

	var warnings []codec.Warning
	for _, name := range mk.fieldOrder {
		b := mk.bindings[name]
		v, warns, err := b.gen.Evaluate(ctx)
		if err != nil {
			return nil, warnings, &EvalError{Message: message, Field: name, Err: err}
		}
		ctx.Values[name] = v
		warnings = append(warnings, warns...)
	}

	k.mu.Lock()
	if k.lastValues[message] == nil {
		k.lastValues[message] = map[string]float64{}
	}
	for name, v := range ctx.Values {
		k.lastValues[message][name] = v
	}
	k.mu.Unlock()

	return ctx.Values, warnings, nil
}

func (k *Kernel) lastValue(message, field string) (float64, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	fields, ok := k.lastValues[message]
	if !ok {
		return 0, false
	}
	v, ok := fields[field]
	return v, ok
}
