package lang

import (
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"slices"
)

// compiler translates expression text into a tree of evaluators using
// operator precedence parsing. Operands and pending operators are held on
// separate stacks; an operator is reduced when an incoming operator of
// lower or equal binding strength arrives, or when its group closes.
type compiler struct {
	source string
	scan   scanner
	opts   *options

	operands []*operand
	pending  []*pendingOp

	idents     []*Identifier
	identUses  []int
	identIndex map[identKey]int
	locals     map[string]int
}

// pendingOp is one entry of the operator stack. Grouping operators count
// the comma-separated arguments seen since they were pushed.
type pendingOp struct {
	op     *Operator
	offset int
	base   int // len(operands) when pushed
	commas int

	call   *token
	member bool
}

func newCompiler(source string, opts *options) *compiler {
	return &compiler{
		source:     source,
		scan:       scanner{input: source},
		opts:       opts,
		identIndex: make(map[identKey]int),
		locals:     make(map[string]int),
	}
}

func (c *compiler) errorf(offset int, format string, args ...any) *SyntaxError {
	return newSyntaxError(ErrSyntax, c.source, offset, fmt.Sprintf(format, args...))
}

func (c *compiler) push(o *operand) { c.operands = append(c.operands, o) }

func (c *compiler) pop() *operand {
	o := c.operands[len(c.operands)-1]
	c.operands = c.operands[:len(c.operands)-1]

	return o
}

func (c *compiler) top() *pendingOp {
	if len(c.pending) == 0 {
		return nil
	}

	return c.pending[len(c.pending)-1]
}

func (c *compiler) popPending() *pendingOp {
	p := c.pending[len(c.pending)-1]
	c.pending = c.pending[:len(c.pending)-1]

	return p
}

// identifier returns the Identifier for key, creating it on first use.
func (c *compiler) identifier(name, signature string, params int) *Identifier {
	key := identKey{name: name, signature: signature, params: params}

	if i, ok := c.identIndex[key]; ok {
		c.identUses[i]++

		return c.idents[i]
	}

	id := newIdentifier(key, c.opts.observer)

	c.identIndex[key] = len(c.idents)
	c.idents = append(c.idents, id)
	c.identUses = append(c.identUses, 1)

	return id
}

// release drops one use of id, forgetting it once no operand refers to it.
func (c *compiler) release(id *Identifier) {
	i := slices.Index(c.idents, id)
	if i < 0 {
		return
	}

	if c.identUses[i]--; c.identUses[i] > 0 {
		return
	}

	c.idents = slices.Delete(c.idents, i, i+1)
	c.identUses = slices.Delete(c.identUses, i, i+1)

	for key, j := range c.identIndex {
		switch {
		case j == i:
			delete(c.identIndex, key)
		case j > i:
			c.identIndex[key] = j - 1
		}
	}
}

func (c *compiler) reference(tok token, params int) *reference {
	backreach := -1
	if tok.backreach > 0 {
		backreach = tok.backreach
	}

	return &reference{
		id:        c.identifier(tok.text, tok.signature, params),
		backreach: backreach,
		offset:    tok.offset,
	}
}

// compile parses the whole source and returns the root operand.
func (c *compiler) compile() (*operand, error) {
	expectOperand := true
	afterMember := false

	for {
		tok, err := c.scan.next(expectOperand)
		if err != nil {
			return nil, err
		}

		if afterMember {
			switch {
			case tok.backreach > 0:
				return nil, c.errorf(tok.offset, "backreach after navigation")
			case tok.kind != tokenIdent && tok.kind != tokenCall:
				return nil, c.errorf(tok.offset, "expected member name")
			}
		}

		if tok.backreach > c.opts.key.MaxBackreach {
			return nil, newSyntaxError(ErrBackreachTooDeep, c.source, tok.offset,
				fmt.Sprintf("%d levels exceeds limit %d", tok.backreach, c.opts.key.MaxBackreach))
		}

		member := afterMember
		afterMember = false

		switch tok.kind {
		case tokenEnd:
			return c.finish(tok, expectOperand)

		case tokenLiteral:
			c.push(constant(tok.value, tok.offset))

			expectOperand = false

		case tokenEmptyMap:
			c.push(&operand{
				offset: tok.offset,
				eval:   func(*state) any { return map[any]any{} },
			})

			expectOperand = false

		case tokenScope:
			c.push(c.scope(tok))

			expectOperand = false

			// ".name" navigates from the current frame.
			if r := c.scan.peek(); isIdentifierStart(r) || r == '`' {
				c.pending = append(c.pending, &pendingOp{
					op:     Select(".", true),
					offset: tok.offset,
					base:   len(c.operands),
				})

				expectOperand = true
				afterMember = true
			}

		case tokenIdent:
			c.push(c.name(tok, member))

			expectOperand = false

		case tokenCall:
			c.pending = append(c.pending, &pendingOp{
				op:     CreateCallOperator(tok.text),
				offset: tok.offset,
				base:   len(c.operands),
				call:   &tok,
				member: member,
			})

			expectOperand = true

		case tokenOperator:
			next, err := c.operator(tok, expectOperand)
			if err != nil {
				return nil, err
			}

			expectOperand = next
			afterMember = tok.text == "." || tok.text == "?."
		}
	}
}

// operator handles an operator token and reports whether an operand is
// expected next.
func (c *compiler) operator(tok token, expectOperand bool) (bool, error) {
	switch tok.text {
	case ")", "]", "}":
		return false, c.close(tok, expectOperand)

	case ",":
		if expectOperand {
			return false, c.errorf(tok.offset, "expected operand")
		}

		if err := c.reduceToGroup(); err != nil {
			return false, err
		}

		p := c.top()
		if p == nil || !p.op.Has(FlagVariadic) {
			return false, c.errorf(tok.offset, "unexpected ','")
		}

		p.commas++

		return true, nil
	}

	op := Select(tok.text, !expectOperand)
	if op == nil {
		if expectOperand {
			return false, c.errorf(tok.offset, "expected operand")
		}

		return false, c.errorf(tok.offset, "unexpected operator %q", tok.text)
	}

	if op.Has(FlagLeft) {
		for p := c.top(); p != nil && op.precedes(p.op); p = c.top() {
			if err := c.reduce(c.popPending()); err != nil {
				return false, err
			}
		}
	}

	if op.code == opPair {
		if err := c.reduceToConditional(); err != nil {
			return false, err
		}
	}

	c.pending = append(c.pending, &pendingOp{
		op:     op,
		offset: tok.offset,
		base:   len(c.operands),
	})

	return true, nil
}

// reduceToConditional reduces pending operators down to the innermost '?'
// that has not yet seen its ':', so that a ':' closes the nearest open
// conditional. Nothing is reduced when no such '?' is pending in the
// current group.
func (c *compiler) reduceToConditional() error {
	open, colons := -1, 0

	for i := len(c.pending) - 1; i >= 0 && open < 0; i-- {
		switch p := c.pending[i]; {
		case p.op.grouping():
			return nil
		case p.op.code == opPair:
			colons++
		case p.op.code == opTernary && colons > 0:
			colons--
		case p.op.code == opTernary:
			open = i
		}
	}

	if open < 0 {
		return nil
	}

	for len(c.pending) > open+1 {
		if err := c.reduce(c.popPending()); err != nil {
			return err
		}
	}

	return nil
}

// reduceToGroup reduces pending operators down to the innermost open group.
func (c *compiler) reduceToGroup() error {
	for p := c.top(); p != nil && !p.op.grouping(); p = c.top() {
		if err := c.reduce(c.popPending()); err != nil {
			return err
		}
	}

	return nil
}

// close handles a closing bracket.
func (c *compiler) close(tok token, expectOperand bool) error {
	if expectOperand {
		p := c.top()
		if p == nil || !p.op.grouping() || p.base != len(c.operands) || p.commas > 0 {
			return c.errorf(tok.offset, "expected operand")
		}
	}

	if err := c.reduceToGroup(); err != nil {
		return err
	}

	p := c.top()
	if p == nil {
		return c.errorf(tok.offset, "unexpected %q", tok.text)
	}

	if p.op.closing != tok.text {
		return c.errorf(tok.offset, "expected %q", p.op.closing)
	}

	c.popPending()

	args := 0
	if !expectOperand {
		args = p.commas + 1
	}

	if len(c.operands)-p.base != args {
		return c.errorf(p.offset, "malformed %s", p.op)
	}

	return c.group(p, args)
}

// finish reduces every pending operator at the end of input.
func (c *compiler) finish(tok token, expectOperand bool) (*operand, error) {
	if expectOperand {
		if len(c.operands) == 0 && len(c.pending) == 0 {
			return nil, c.errorf(tok.offset, "empty expression")
		}

		return nil, c.errorf(tok.offset, "expected operand")
	}

	for len(c.pending) > 0 {
		p := c.popPending()
		if p.op.grouping() {
			return nil, c.errorf(p.offset, "unmatched opening token %q", p.op.text)
		}

		if err := c.reduce(p); err != nil {
			return nil, err
		}
	}

	if len(c.operands) != 1 {
		return nil, c.errorf(tok.offset, "malformed expression")
	}

	root := c.operands[0]
	if root.member != nil {
		return nil, c.errorf(root.offset, "member name without receiver")
	}

	return root, nil
}

// scope returns the operand for "." in operand position, the current
// frame or the frame selected by backreach.
func (c *compiler) scope(tok token) *operand {
	n := tok.backreach

	return &operand{
		offset: tok.offset,
		eval: func(st *state) any {
			frame, ok := st.ctx.Scope(n)
			if !ok {
				fail(ErrBackreach.With(
					slog.Int("backreach", n),
					slog.Int("depth", st.ctx.Depth()),
				))
			}

			return frame
		},
	}
}

// name returns the operand for a bare identifier: a member name after
// navigation, a local variable, a named expression, or a scope reference.
func (c *compiler) name(tok token, member bool) *operand {
	if member {
		return &operand{
			offset: tok.offset,
			member: &memberAccess{ref: c.reference(tok, -1)},
		}
	}

	if tok.backreach == 0 && tok.signature == "" {
		if slot, ok := c.locals[tok.text]; ok {
			return &operand{
				offset: tok.offset,
				name:   tok.text,
				eval:   func(st *state) any { return st.locals[slot] },
			}
		}

		if named, ok := c.opts.named[tok.text]; ok {
			return &operand{
				offset: tok.offset,
				eval:   func(st *state) any { return st.invoke(named, nil, false) },
			}
		}
	}

	ref := c.reference(tok, -1)

	o := &operand{
		offset: tok.offset,
		eval:   func(st *state) any { return st.resolve(ref, nil) },
	}

	if tok.backreach == 0 && tok.signature == "" {
		o.name = tok.text
		o.ref = ref
	}

	return o
}

// group produces the operand of a closed grouping operator.
func (c *compiler) group(p *pendingOp, args int) error {
	items := make([]*operand, args)
	for i := args - 1; i >= 0; i-- {
		items[i] = c.pop()
	}

	switch p.op.code {
	case opGroup:
		if args != 1 {
			return c.errorf(p.offset, "empty parentheses")
		}

		o := *items[0]
		o.name = ""
		c.push(&o)

	case opList:
		o, err := c.collection(p, items, false)
		if err != nil {
			return err
		}

		c.push(o)

	case opBrace:
		o, err := c.collection(p, items, true)
		if err != nil {
			return err
		}

		c.push(o)

	case opIndex, opSafeIndex:
		if args != 1 {
			return c.errorf(p.offset, "index requires exactly one key")
		}

		recv := c.pop()
		key := items[0]
		safe := p.op.code == opSafeIndex

		c.push(&operand{
			offset: recv.offset,
			eval: func(st *state) any {
				v := recv.eval(st)
				if safe && v == nil {
					return nil
				}

				return must(Index(v, key.eval(st)))
			},
		})

	case opCall:
		c.push(c.call(p, items))
	}

	return nil
}

// collection builds a list, map or set literal. Entries written as "k: v"
// produce a map; a list or set may not mix entries and plain values.
func (c *compiler) collection(p *pendingOp, items []*operand, set bool) (*operand, error) {
	pairs := 0
	for _, it := range items {
		if it.pair != nil {
			pairs++
		}
	}

	switch {
	case pairs > 0 && pairs < len(items):
		return nil, c.errorf(p.offset, "cannot mix map entries and values in %s", p.op)

	case pairs > 0:
		return &operand{
			offset: p.offset,
			eval: func(st *state) any {
				m := make(map[any]any, len(items))
				for _, it := range items {
					k := it.pair[0].eval(st)
					if !hashable(k) {
						fail(invalidOperands(":", k, nil))
					}

					m[k] = it.pair[1].eval(st)
				}

				return m
			},
		}, nil

	case set:
		return &operand{
			offset: p.offset,
			eval: func(st *state) any {
				return NewSet(evalAll(st, items)...)
			},
		}, nil
	}

	return &operand{
		offset: p.offset,
		eval: func(st *state) any {
			out := make([]any, len(items))
			for i, it := range items {
				out[i] = it.eval(st)
			}

			return out
		},
	}, nil
}

func hashable(v any) bool {
	return v == nil || reflect.TypeOf(v).Comparable()
}

// call produces the operand of a closed call: a method on the receiver of
// a pending navigation, a named expression, or a scope-relative method.
func (c *compiler) call(p *pendingOp, args []*operand) *operand {
	tok := *p.call

	if p.member {
		return &operand{
			offset: tok.offset,
			member: &memberAccess{ref: c.reference(tok, len(args)), args: args},
		}
	}

	if tok.backreach == 0 && tok.signature == "" {
		if named, ok := c.opts.named[tok.text]; ok {
			return &operand{
				offset: tok.offset,
				eval: func(st *state) any {
					return st.invoke(named, evalAll(st, args), true)
				},
			}
		}
	}

	ref := c.reference(tok, len(args))

	return &operand{
		offset: tok.offset,
		eval: func(st *state) any {
			return st.resolve(ref, evalAll(st, args))
		},
	}
}

// reduce applies a non-grouping pending operator to its operands.
func (c *compiler) reduce(p *pendingOp) error {
	if !p.op.Has(FlagLeft) {
		if len(c.operands) < 1 {
			return c.errorf(p.offset, "expected operand")
		}

		c.push(c.unary(p, c.pop()))

		return nil
	}

	if len(c.operands) < 2 {
		return c.errorf(p.offset, "expected operand")
	}

	r := c.pop()
	l := c.pop()

	if l.member != nil {
		return c.errorf(l.offset, "member name without receiver")
	}

	if r.member != nil && !p.op.Has(FlagRightMember) {
		return c.errorf(r.offset, "member name without receiver")
	}

	o, err := c.binary(p, l, r)
	if err != nil {
		return err
	}

	c.push(o)

	return nil
}

func (c *compiler) unary(p *pendingOp, x *operand) *operand {
	o := &operand{offset: p.offset}

	switch p.op.code {
	case opPositive:
		o.eval = func(st *state) any { return must(Positive(x.eval(st))) }
		if x.category.numeric() {
			o.category = x.category
		}

	case opNegative:
		if x.category.numeric() {
			num := numberFor(x.category)
			o.category = x.category
			o.eval = func(st *state) any { return num(x.eval(st)).Neg().Value() }
		} else {
			o.eval = func(st *state) any { return must(Negate(x.eval(st))) }
		}

	case opNot:
		o.category = CategoryBoolean
		o.eval = func(st *state) any { return !ToBoolean(x.eval(st)) }

	case opComplement:
		o.eval = func(st *state) any { return must(Complement(x.eval(st))) }
		if x.category == CategoryInt32 || x.category == CategoryInt64 {
			o.category = x.category
		}
	}

	return fold(o, x)
}

// binary builds the operand of a binary operator. Arithmetic and
// comparison between operands of known numeric category use specialized
// evaluators; text concatenation is flattened into a single builder.
func (c *compiler) binary(p *pendingOp, l, r *operand) (*operand, error) {
	o := &operand{offset: l.offset}
	code := p.op.code

	switch code {
	case opMember, opSafeMember:
		if r.member == nil {
			return nil, c.errorf(r.offset, "expected member name")
		}

		ref, args := r.member.ref, r.member.args
		safe := code == opSafeMember

		o.eval = func(st *state) any {
			recv := l.eval(st)
			if safe && recv == nil {
				return nil
			}

			return st.member(ref, recv, evalAll(st, args))
		}

		return o, nil

	case opAdd:
		if l.category.textual() || r.category.textual() {
			return fold(concat(l, r), l, r), nil
		}

		fallthrough

	case opSubtract, opMultiply, opDivide, opModulo:
		c.arithmetic(o, code, l, r)

	case opLess, opLessEqual, opGreater, opGreaterEqual:
		o.category = CategoryBoolean
		cmp := comparison(l, r)

		o.eval = func(st *state) any {
			n := cmp(st)

			switch code {
			case opLess:
				return n < 0
			case opLessEqual:
				return n <= 0
			case opGreater:
				return n > 0
			}

			return n >= 0
		}

	case opCompare:
		o.category = CategoryInt32
		cmp := comparison(l, r)

		o.eval = func(st *state) any {
			n := cmp(st)

			switch {
			case n < 0:
				return int32(-1)
			case n > 0:
				return int32(1)
			}

			return int32(0)
		}

	case opEqual, opNotEqual:
		o.category = CategoryBoolean
		want := code == opEqual

		o.eval = func(st *state) any { return Equal(l.eval(st), r.eval(st)) == want }

	case opFind, opMatch:
		o.category = CategoryBoolean
		full := code == opMatch

		if re, ok := r.value.(*regexp.Regexp); ok && r.constant && full {
			re = regexp.MustCompile(`^(?:` + re.String() + `)$`)
			o.eval = func(st *state) any { return re.MatchString(Format(l.eval(st))) }

			break
		}

		o.eval = func(st *state) any { return must(Match(l.eval(st), r.eval(st), full)) }

	case opBitAnd, opBitOr, opBitXor:
		text := p.op.text

		switch {
		case l.category == CategoryBoolean && r.category == CategoryBoolean:
			o.category = CategoryBoolean
		case integralCategory(l.category) && integralCategory(r.category):
			o.category = widen(l.category, r.category)
		}

		o.eval = func(st *state) any { return must(Bitwise(text, l.eval(st), r.eval(st))) }

	case opShiftLeft, opShiftRight, opShiftRightUnsigned:
		text := p.op.text

		if integralCategory(l.category) {
			o.category = l.category
		}

		o.eval = func(st *state) any { return must(Shift(text, l.eval(st), r.eval(st))) }

	case opAnd:
		o.category = CategoryBoolean
		o.eval = func(st *state) any { return ToBoolean(l.eval(st)) && ToBoolean(r.eval(st)) }

	case opOr:
		o.category = CategoryBoolean
		o.eval = func(st *state) any { return ToBoolean(l.eval(st)) || ToBoolean(r.eval(st)) }

	case opRange, opRangeExclusive:
		exclusive := code == opRangeExclusive

		o.eval = func(st *state) any { return must(Range(l.eval(st), r.eval(st), exclusive)) }

	case opTernary:
		if r.pair == nil {
			return nil, c.errorf(p.offset, "conditional requires ':'")
		}

		yes, no := r.pair[0], r.pair[1]
		if yes.category == no.category {
			o.category = yes.category
		}

		o.eval = func(st *state) any {
			if ToBoolean(l.eval(st)) {
				return yes.eval(st)
			}

			return no.eval(st)
		}

		return fold(o, l, yes, no), nil

	case opElvis:
		o.eval = func(st *state) any {
			if v := l.eval(st); ToBoolean(v) {
				return v
			}

			return r.eval(st)
		}

	case opCoalesce:
		o.eval = func(st *state) any {
			if v := l.eval(st); !isAbsent(v) {
				return v
			}

			return r.eval(st)
		}

	case opPair:
		o.category = CategoryPair
		o.pair = &[2]*operand{l, r}
		o.eval = func(st *state) any { return Pair{Key: l.eval(st), Value: r.eval(st)} }

		return o, nil

	case opAssign:
		if l.name == "" {
			return nil, c.errorf(l.offset, "left side of '=' is not assignable")
		}

		// The target is never read as a scope reference.
		if l.ref != nil {
			c.release(l.ref.id)
		}

		slot, ok := c.locals[l.name]
		if !ok {
			slot = len(c.locals)
			c.locals[l.name] = slot
		}

		o.category = r.category
		o.eval = func(st *state) any {
			v := r.eval(st)
			st.locals[slot] = v

			return v
		}

		return o, nil

	case opSequence:
		o.category = r.category
		o.eval = func(st *state) any {
			l.eval(st)

			return r.eval(st)
		}

	default:
		return nil, c.errorf(p.offset, "unexpected operator %q", p.op.text)
	}

	return fold(o, l, r), nil
}

// arithmetic sets o to compute code over l and r.
func (c *compiler) arithmetic(o *operand, code opCode, l, r *operand) {
	if l.category.numeric() && r.category.numeric() {
		ln, rn := numberFor(l.category), numberFor(r.category)
		o.category = widen(l.category, r.category)

		switch code {
		case opAdd:
			o.eval = func(st *state) any { return ln(l.eval(st)).Add(rn(r.eval(st))).Value() }
		case opSubtract:
			o.eval = func(st *state) any { return ln(l.eval(st)).Sub(rn(r.eval(st))).Value() }
		case opMultiply:
			o.eval = func(st *state) any { return ln(l.eval(st)).Mul(rn(r.eval(st))).Value() }
		case opDivide:
			o.eval = func(st *state) any {
				n, err := ln(l.eval(st)).Div(rn(r.eval(st)))

				return must(n.Value(), err)
			}
		case opModulo:
			o.eval = func(st *state) any {
				n, err := ln(l.eval(st)).Mod(rn(r.eval(st)))

				return must(n.Value(), err)
			}
		}

		return
	}

	var fn func(a, b any) (any, error)

	switch code {
	case opAdd:
		fn = Add
	case opSubtract:
		fn = Subtract
	case opMultiply:
		fn = Multiply
	case opDivide:
		fn = Divide
	case opModulo:
		fn = Modulo
	}

	o.eval = func(st *state) any { return must(fn(l.eval(st), r.eval(st))) }
}

// comparison returns an ordering of l and r.
func comparison(l, r *operand) func(*state) int {
	if l.category.numeric() && r.category.numeric() {
		ln, rn := numberFor(l.category), numberFor(r.category)

		return func(st *state) int { return ln(l.eval(st)).Cmp(rn(r.eval(st))) }
	}

	return func(st *state) int {
		n, err := Compare(l.eval(st), r.eval(st), false)
		if err != nil {
			fail(err)
		}

		return n
	}
}

func integralCategory(c Category) bool {
	return c == CategoryInt32 || c == CategoryInt64
}
