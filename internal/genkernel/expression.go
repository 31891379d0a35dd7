package genkernel

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/codec"
)

// expr is a parsed node in the whitelisted expression language used by
// KindExpression fields. Identifiers resolve against the current
// message's already-computed fields, or against another message's
// most recently computed value when written as "message.field".
type expr interface {
	eval(ctx *EvalContext) (float64, []codec.Warning, error)
	// dependsOn appends every bare (same-message) field name this node
	// reads, used to build the intra-message dependency graph.
	dependsOn(out map[string]bool)
}

// mergeWarnings concatenates warnings from independently evaluated
// subexpressions into a fresh slice.
func mergeWarnings(parts ...[]codec.Warning) []codec.Warning {
	var out []codec.Warning
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

type numLit struct{ v float64 }

func (n numLit) eval(*EvalContext) (float64, []codec.Warning, error) { return n.v, nil, nil }
func (n numLit) dependsOn(map[string]bool)                           {}

type timeRef struct{}

func (timeRef) eval(ctx *EvalContext) (float64, []codec.Warning, error) { return ctx.TimeSeconds, nil, nil }
func (timeRef) dependsOn(map[string]bool)                               {}

type countRef struct{}

func (countRef) eval(ctx *EvalContext) (float64, []codec.Warning, error) {
	return float64(ctx.MessageCount), nil, nil
}
func (countRef) dependsOn(map[string]bool) {}

type ident struct{ name string }

func (id ident) eval(ctx *EvalContext) (float64, []codec.Warning, error) {
	if v, ok := ctx.Values[id.name]; ok {
		return v, nil, nil
	}
	return 0, nil, &UndefinedFieldError{Ref: ctx.MessageName + "." + id.name}
}
func (id ident) dependsOn(out map[string]bool) { out[id.name] = true }

type dottedIdent struct{ message, field string }

func (id dottedIdent) eval(ctx *EvalContext) (float64, []codec.Warning, error) {
	v, ok := ctx.CrossMessageValue(id.message, id.field)
	if !ok {
		return 0, nil, nil // no prior emission yet; treat as undefined-but-not-fatal
	}
	return v, nil, nil
}
func (id dottedIdent) dependsOn(map[string]bool) {}

type unary struct {
	op string
	x  expr
}

func (u unary) eval(ctx *EvalContext) (float64, []codec.Warning, error) {
	v, warnings, err := u.x.eval(ctx)
	if err != nil {
		return 0, warnings, err
	}
	switch u.op {
	case "-":
		return -v, warnings, nil
	case "!":
		if v == 0 {
			return 1, warnings, nil
		}
		return 0, warnings, nil
	default:
		return v, warnings, nil
	}
}
func (u unary) dependsOn(out map[string]bool) { u.x.dependsOn(out) }

type binOp struct {
	op   string
	l, r expr
}

func (b binOp) eval(ctx *EvalContext) (float64, []codec.Warning, error) {
	l, lw, err := b.l.eval(ctx)
	if err != nil {
		return 0, lw, err
	}
	r, rw, err := b.r.eval(ctx)
	if err != nil {
		return 0, mergeWarnings(lw, rw), err
	}
	warnings := mergeWarnings(lw, rw)
	switch b.op {
	case "+":
		return l + r, warnings, nil
	case "-":
		return l - r, warnings, nil
	case "*":
		return l * r, warnings, nil
	case "/":
		if r == 0 {
			return 0, append(warnings, codec.Warning{Message: "division by zero"}), nil
		}
		return l / r, warnings, nil
	case "%":
		if r == 0 {
			return 0, warnings, nil
		}
		return math.Mod(l, r), warnings, nil
	case "<":
		return boolf(l < r), warnings, nil
	case "<=":
		return boolf(l <= r), warnings, nil
	case ">":
		return boolf(l > r), warnings, nil
	case ">=":
		return boolf(l >= r), warnings, nil
	case "==":
		return boolf(l == r), warnings, nil
	case "!=":
		return boolf(l != r), warnings, nil
	case "&&":
		return boolf(l != 0 && r != 0), warnings, nil
	case "||":
		return boolf(l != 0 || r != 0), warnings, nil
	default:
		return 0, warnings, fmt.Errorf("unknown operator %q", b.op)
	}
}
func (b binOp) dependsOn(out map[string]bool) { b.l.dependsOn(out); b.r.dependsOn(out) }

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

type ternary struct {
	cond, then, els expr
}

func (t ternary) eval(ctx *EvalContext) (float64, []codec.Warning, error) {
	c, cw, err := t.cond.eval(ctx)
	if err != nil {
		return 0, cw, err
	}
	if c != 0 {
		v, w, err := t.then.eval(ctx)
		return v, mergeWarnings(cw, w), err
	}
	v, w, err := t.els.eval(ctx)
	return v, mergeWarnings(cw, w), err
}
func (t ternary) dependsOn(out map[string]bool) {
	t.cond.dependsOn(out)
	t.then.dependsOn(out)
	t.els.dependsOn(out)
}

// exprFunc is a whitelisted expression-language function. ctx is
// consulted only by the random-family functions, for their rng.
type exprFunc func(ctx *EvalContext, args []float64) (float64, []codec.Warning, error)

func noWarn(v float64) (float64, []codec.Warning, error) { return v, nil, nil }

var whitelistedFuncs = map[string]exprFunc{
	"abs":  func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Abs(a[0])) },
	"sign": func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(signOf(a[0])) },
	"sqrt": func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) {
		if a[0] < 0 {
			return 0, []codec.Warning{{Message: "sqrt of negative value"}}, nil
		}
		return noWarn(math.Sqrt(a[0]))
	},
	"sin":   func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Sin(a[0])) },
	"cos":   func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Cos(a[0])) },
	"tan":   func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Tan(a[0])) },
	"asin":  func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Asin(a[0])) },
	"acos":  func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Acos(a[0])) },
	"atan":  func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Atan(a[0])) },
	"sinh":  func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Sinh(a[0])) },
	"cosh":  func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Cosh(a[0])) },
	"tanh":  func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Tanh(a[0])) },
	"exp":   func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Exp(a[0])) },
	"log": func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) {
		if a[0] <= 0 {
			return 0, []codec.Warning{{Message: "log of non-positive value"}}, nil
		}
		return noWarn(math.Log(a[0]))
	},
	"log10": func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) {
		if a[0] <= 0 {
			return 0, []codec.Warning{{Message: "log10 of non-positive value"}}, nil
		}
		return noWarn(math.Log10(a[0]))
	},
	"floor": func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Floor(a[0])) },
	"ceil":  func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Ceil(a[0])) },
	"round": func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) {
		return noWarn(roundHalfAwayFromZeroLocal(a[0]))
	},
	"pow": func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Pow(a[0], a[1])) },
	"min": func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Min(a[0], a[1])) },
	"max": func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Max(a[0], a[1])) },
	"clamp": func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) {
		v, lo, hi := a[0], a[1], a[2]
		if v < lo {
			return noWarn(lo)
		}
		if v > hi {
			return noWarn(hi)
		}
		return noWarn(v)
	},
	"int":   func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(math.Trunc(a[0])) },
	"float": func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(a[0]) },
	"bool":  func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) { return noWarn(boolf(a[0] != 0)) },
	"random": func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) {
		rng, err := ctxRNG(ctx)
		if err != nil {
			return 0, nil, err
		}
		switch len(a) {
		case 0:
			return noWarn(rng.Float64())
		case 2:
			return noWarn(a[0] + rng.Float64()*(a[1]-a[0]))
		default:
			return 0, nil, fmt.Errorf("random() takes 0 or 2 arguments, got %d", len(a))
		}
	},
	"random_normal": func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) {
		if len(a) != 2 {
			return 0, nil, fmt.Errorf("random_normal() takes 2 arguments, got %d", len(a))
		}
		rng, err := ctxRNG(ctx)
		if err != nil {
			return 0, nil, err
		}
		return noWarn(a[0] + normalSample(rng)*a[1])
	},
	"random_int": func(ctx *EvalContext, a []float64) (float64, []codec.Warning, error) {
		if len(a) != 2 {
			return 0, nil, fmt.Errorf("random_int() takes 2 arguments, got %d", len(a))
		}
		rng, err := ctxRNG(ctx)
		if err != nil {
			return 0, nil, err
		}
		lo, hi := int64(a[0]), int64(a[1])
		if hi < lo {
			lo, hi = hi, lo
		}
		return noWarn(float64(lo + rng.Int64N(hi-lo+1)))
	},
}

func ctxRNG(ctx *EvalContext) (*rand.Rand, error) {
	if ctx == nil || ctx.rng == nil {
		return nil, fmt.Errorf("random functions require a seeded expression field")
	}
	return ctx.rng, nil
}

func signOf(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func roundHalfAwayFromZeroLocal(x float64) float64 {
	if x >= 0 {
		return math.Floor(x + 0.5)
	}
	return math.Ceil(x - 0.5)
}

type call struct {
	name string
	args []expr
}

func (c call) eval(ctx *EvalContext) (float64, []codec.Warning, error) {
	fn, ok := whitelistedFuncs[c.name]
	if !ok {
		return 0, nil, fmt.Errorf("call to non-whitelisted function %q", c.name)
	}
	vals := make([]float64, len(c.args))
	var warnings []codec.Warning
	for i, a := range c.args {
		v, warns, err := a.eval(ctx)
		warnings = mergeWarnings(warnings, warns)
		if err != nil {
			return 0, warnings, err
		}
		vals[i] = v
	}
	v, warns, err := fn(ctx, vals)
	warnings = mergeWarnings(warnings, warns)
	if err != nil {
		return 0, warnings, err
	}
	return v, warnings, nil
}
func (c call) dependsOn(out map[string]bool) {
	for _, a := range c.args {
		a.dependsOn(out)
	}
}

// --- tokenizer ---

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
	tokQuestion
	tokColon
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(src string) ([]token, error) {
	var toks []token
	r := []rune(src)
	i := 0
	for i < len(r) {
		c := r[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case c == '?':
			toks = append(toks, token{tokQuestion, "?"})
			i++
		case c == ':':
			toks = append(toks, token{tokColon, ":"})
			i++
		case unicode.IsDigit(c) || (c == '.' && i+1 < len(r) && unicode.IsDigit(r[i+1])):
			start := i
			for i < len(r) && (unicode.IsDigit(r[i]) || r[i] == '.' || r[i] == 'e' || r[i] == 'E' ||
				((r[i] == '+' || r[i] == '-') && i > start && (r[i-1] == 'e' || r[i-1] == 'E'))) {
				i++
			}
			toks = append(toks, token{tokNum, string(r[start:i])})
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(r) && (unicode.IsLetter(r[i]) || unicode.IsDigit(r[i]) || r[i] == '_' || r[i] == '.') {
				i++
			}
			toks = append(toks, token{tokIdent, string(r[start:i])})
		default:
			two := ""
			if i+1 < len(r) {
				two = string(r[i : i+2])
			}
			switch two {
			case "<=", ">=", "==", "!=", "&&", "||":
				toks = append(toks, token{tokOp, two})
				i += 2
				continue
			}
			one := string(c)
			switch one {
			case "+", "-", "*", "/", "%", "<", ">", "!":
				toks = append(toks, token{tokOp, one})
				i++
			default:
				return nil, fmt.Errorf("unexpected character %q in expression", c)
			}
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks, nil
}

// --- recursive-descent parser ---

type parser struct {
	toks []token
	pos  int
}

func parseExpression(src string) (expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, fmt.Errorf("unexpected trailing token %q in expression %q", p.cur().text, src)
	}
	return e, nil
}

func (p *parser) cur() token { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) parseTernary() (expr, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur().kind == tokQuestion {
		p.advance()
		then, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokColon {
			return nil, fmt.Errorf("expected ':' in ternary expression")
		}
		p.advance()
		els, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		return ternary{cond, then, els}, nil
	}
	return cond, nil
}

func (p *parser) parseOr() (expr, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && p.cur().text == "||" {
		p.advance()
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = binOp{"||", l, r}
	}
	return l, nil
}

func (p *parser) parseAnd() (expr, error) {
	l, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && p.cur().text == "&&" {
		p.advance()
		r, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		l = binOp{"&&", l, r}
	}
	return l, nil
}

var comparisonOps = map[string]bool{"<": true, "<=": true, ">": true, ">=": true, "==": true, "!=": true}

func (p *parser) parseComparison() (expr, error) {
	l, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && comparisonOps[p.cur().text] {
		op := p.advance().text
		r, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		l = binOp{op, l, r}
	}
	return l, nil
}

func (p *parser) parseAdditive() (expr, error) {
	l, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "+" || p.cur().text == "-") {
		op := p.advance().text
		r, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		l = binOp{op, l, r}
	}
	return l, nil
}

func (p *parser) parseMultiplicative() (expr, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "*" || p.cur().text == "/" || p.cur().text == "%") {
		op := p.advance().text
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = binOp{op, l, r}
	}
	return l, nil
}

func (p *parser) parseUnary() (expr, error) {
	if p.cur().kind == tokOp && (p.cur().text == "-" || p.cur().text == "!") {
		op := p.advance().text
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unary{op, x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (expr, error) {
	t := p.cur()
	switch t.kind {
	case tokNum:
		p.advance()
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t.text)
		}
		return numLit{v}, nil
	case tokLParen:
		p.advance()
		e, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokRParen {
			return nil, fmt.Errorf("expected closing parenthesis")
		}
		p.advance()
		return e, nil
	case tokIdent:
		p.advance()
		name := t.text
		if p.cur().kind == tokLParen {
			p.advance()
			var args []expr
			for p.cur().kind != tokRParen {
				a, err := p.parseTernary()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.cur().kind == tokComma {
					p.advance()
				}
			}
			p.advance()
			return call{name: name, args: args}, nil
		}
		switch name {
		case "time", "t":
			return timeRef{}, nil
		case "count":
			return countRef{}, nil
		case "random":
			return call{name: "random"}, nil
		}
		if strings.Contains(name, ".") {
			parts := strings.SplitN(name, ".", 2)
			return dottedIdent{message: parts[0], field: parts[1]}, nil
		}
		return ident{name: name}, nil
	default:
		return nil, fmt.Errorf("unexpected token %q in expression", t.text)
	}
}
