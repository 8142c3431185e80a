package lang

import (
	"slices"
	"strings"
)

// Flag describes the shape of an [Operator].
type Flag uint16

const (
	// FlagLeft marks an operator that consumes an operand on its left.
	FlagLeft Flag = 1 << iota
	// FlagRight marks an operator that consumes an operand on its right.
	FlagRight
	// FlagVariadic marks a grouping operator whose right side is a
	// comma-separated list of any length.
	FlagVariadic
	// FlagLeftAssignable marks an operator whose left operand must name a
	// local variable.
	FlagLeftAssignable
	// FlagRightMember marks an operator whose right operand must be a member
	// name of the left operand.
	FlagRightMember
	// FlagMethodCall marks a synthesized call operator.
	FlagMethodCall
	// FlagRightAssociative marks an operator that groups right to left.
	FlagRightAssociative
	// FlagShortCircuit marks an operator whose right operand is evaluated
	// only when needed.
	FlagShortCircuit
)

type opCode uint8

const (
	opGroup opCode = iota
	opCall
	opList
	opIndex
	opSafeIndex
	opBrace
	opMember
	opSafeMember
	opPositive
	opNegative
	opNot
	opComplement
	opRange
	opRangeExclusive
	opMultiply
	opDivide
	opModulo
	opAdd
	opSubtract
	opShiftLeft
	opShiftRight
	opShiftRightUnsigned
	opLess
	opLessEqual
	opGreater
	opGreaterEqual
	opCompare
	opFind
	opMatch
	opEqual
	opNotEqual
	opBitAnd
	opBitXor
	opBitOr
	opAnd
	opOr
	opTernary
	opElvis
	opCoalesce
	opPair
	opAssign
	opComma
	opSequence
)

// Operator is an immutable descriptor of one operator spelling and shape.
// Operators that share a spelling form an overload chain walked with
// [Operator.Next].
type Operator struct {
	text       string
	closing    string
	precedence int
	flags      Flag
	code       opCode
	next       *Operator
}

// Text returns the operator's spelling.
func (o *Operator) Text() string { return o.text }

// Closing returns the spelling that closes a grouping operator, or the empty
// string.
func (o *Operator) Closing() string { return o.closing }

// Precedence returns the binding strength; 0 binds tightest.
func (o *Operator) Precedence() int { return o.precedence }

// Has reports whether every flag in f is set.
func (o *Operator) Has(f Flag) bool { return o.flags&f == f }

// Next returns the next operator sharing this spelling, or nil.
func (o *Operator) Next() *Operator { return o.next }

// String returns the operator's spelling with its closing text, if any.
func (o *Operator) String() string { return o.text + o.closing }

// grouping reports whether o opens a bracketed construct.
func (o *Operator) grouping() bool { return o.closing != "" }

// precedes reports whether a pending operator p must be reduced before
// incoming operator o is pushed.
func (o *Operator) precedes(p *Operator) bool {
	if p.grouping() {
		return false
	}

	if o.Has(FlagRightAssociative) {
		return p.precedence < o.precedence
	}

	return p.precedence <= o.precedence
}

const (
	binary = FlagLeft | FlagRight
	prefix = FlagRight | FlagRightAssociative
)

// operatorTable holds every operator keyed by spelling, and the spellings
// ordered longest first for the scanner.
var operatorTable, operatorSpellings = buildOperators([]*Operator{
	{text: "(", closing: ")", precedence: 0, flags: FlagRight, code: opGroup},
	{text: "[", closing: "]", precedence: 0, flags: FlagRight | FlagVariadic, code: opList},
	{text: "[", closing: "]", precedence: 0, flags: binary, code: opIndex},
	{text: "?[", closing: "]", precedence: 0, flags: binary | FlagShortCircuit, code: opSafeIndex},
	{text: "{", closing: "}", precedence: 0, flags: FlagRight | FlagVariadic, code: opBrace},
	{text: ".", precedence: 0, flags: binary | FlagRightMember, code: opMember},
	{text: "?.", precedence: 0, flags: binary | FlagRightMember | FlagShortCircuit, code: opSafeMember},

	{text: "+", precedence: 1, flags: prefix, code: opPositive},
	{text: "-", precedence: 1, flags: prefix, code: opNegative},
	{text: "!", precedence: 1, flags: prefix, code: opNot},
	{text: "~", precedence: 1, flags: prefix, code: opComplement},

	{text: "..", precedence: 2, flags: binary, code: opRange},
	{text: "..<", precedence: 2, flags: binary, code: opRangeExclusive},

	{text: "*", precedence: 3, flags: binary, code: opMultiply},
	{text: "/", precedence: 3, flags: binary, code: opDivide},
	{text: "%", precedence: 3, flags: binary, code: opModulo},

	{text: "+", precedence: 4, flags: binary, code: opAdd},
	{text: "-", precedence: 4, flags: binary, code: opSubtract},

	{text: "<<", precedence: 5, flags: binary, code: opShiftLeft},
	{text: ">>", precedence: 5, flags: binary, code: opShiftRight},
	{text: ">>>", precedence: 5, flags: binary, code: opShiftRightUnsigned},

	{text: "<", precedence: 6, flags: binary, code: opLess},
	{text: "<=", precedence: 6, flags: binary, code: opLessEqual},
	{text: ">", precedence: 6, flags: binary, code: opGreater},
	{text: ">=", precedence: 6, flags: binary, code: opGreaterEqual},
	{text: "<=>", precedence: 6, flags: binary, code: opCompare},
	{text: "=~", precedence: 6, flags: binary, code: opFind},
	{text: "==~", precedence: 6, flags: binary, code: opMatch},

	{text: "==", precedence: 7, flags: binary, code: opEqual},
	{text: "!=", precedence: 7, flags: binary, code: opNotEqual},

	{text: "&", precedence: 8, flags: binary, code: opBitAnd},
	{text: "^", precedence: 9, flags: binary, code: opBitXor},
	{text: "|", precedence: 10, flags: binary, code: opBitOr},
	{text: "&&", precedence: 11, flags: binary | FlagShortCircuit, code: opAnd},
	{text: "||", precedence: 12, flags: binary | FlagShortCircuit, code: opOr},

	{text: "?", precedence: 13, flags: binary | FlagRightAssociative | FlagShortCircuit, code: opTernary},
	{text: "?:", precedence: 13, flags: binary | FlagRightAssociative | FlagShortCircuit, code: opElvis},
	{text: "??", precedence: 13, flags: binary | FlagRightAssociative | FlagShortCircuit, code: opCoalesce},
	{text: ":", precedence: 13, flags: binary | FlagRightAssociative, code: opPair},

	{text: "=", precedence: 14, flags: binary | FlagLeftAssignable | FlagRightAssociative, code: opAssign},
	{text: ",", precedence: 15, flags: binary, code: opComma},
	{text: ";", precedence: 16, flags: binary, code: opSequence},
})

func buildOperators(ops []*Operator) (map[string]*Operator, []string) {
	table := make(map[string]*Operator, len(ops))

	for _, op := range slices.Backward(ops) {
		op.next = table[op.text]
		table[op.text] = op
	}

	spellings := make([]string, 0, len(table)+3)
	for text := range table {
		spellings = append(spellings, text)
	}

	spellings = append(spellings, ")", "]", "}")

	slices.SortFunc(spellings, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}

		return strings.Compare(a, b)
	})

	return table, spellings
}

// Lookup returns the first operator in the overload chain for text, or nil.
func Lookup(text string) *Operator {
	return operatorTable[text]
}

// Select returns the overload of text that matches whether a left operand is
// pending, or nil if none does.
func Select(text string, hasLeft bool) *Operator {
	for op := Lookup(text); op != nil; op = op.Next() {
		if op.Has(FlagLeft) == hasLeft {
			return op
		}
	}

	return nil
}

// CreateCallOperator returns a variadic operator invoking the method or
// named expression name with the arguments up to the closing parenthesis.
func CreateCallOperator(name string) *Operator {
	return &Operator{
		text:       name + "(",
		closing:    ")",
		precedence: 0,
		flags:      FlagRight | FlagVariadic | FlagMethodCall,
		code:       opCall,
	}
}
