// Package lang compiles and evaluates template expressions against a stack
// of host data frames.
//
// An expression is compiled once with [Compile] into an immutable
// [Expression], then evaluated any number of times with a [Context] that
// holds the scope stack. Compilation resolves operator precedence, folds
// constant sub-expressions, and selects specialized evaluators for operands
// whose category is known statically. Evaluation resolves identifiers
// against whatever host values are on the stack: map keys, exported struct
// fields, methods and a small set of builtin properties.
//
// # Syntax
//
//	42  42L  0xff  1_000  3.5  2e10  1.5f   numeric literals
//	"text"  'text'                         strings with \n, \xHH, \uXXXX, \u{X...}
//	~/pattern/                             regular expression literal
//	true  false  null
//	name  `quoted name`  `method:string,int`
//	.                                      the current frame
//	../name  ../../name                    explicit backreach
//	a.b  a?.b  a.m(x)  a[k]  a?[k]         navigation and indexing
//	[1, 2]  [k: v]  [:]  {1, 2}  {}        list, map, empty map, set, empty set
//	x = 1; x + 1                           locals and sequencing
//
// Operators bind from tightest to loosest:
//
//	.  ?.  []  ?[]  ()
//	unary + - ! ~
//	..  ..<
//	*  /  %
//	+  -
//	<<  >>  >>>
//	<  <=  >  >=  <=>  =~  ==~
//	==  !=
//	&
//	^
//	|
//	&&
//	||
//	?:  ?  ??  :
//	=
//	;
//
// # Numbers
//
// Integral literals are 32-bit unless they do not fit or carry an "L"
// suffix. Integral arithmetic is 64-bit when either operand is 64-bit and
// 32-bit otherwise; any floating-point operand makes the result a float64.
// Host integers of 32 bits or fewer behave as 32-bit, wider ones as 64-bit.
//
// # Scopes
//
// A bare identifier is searched for in the frames allowed by the Context's
// [AccessPolicy], innermost first. A map that holds the key with a nil value
// stops nothing: the search continues outward, and if no frame supplies a
// value the result is nil. An identifier prefixed with "../" groups reads
// exactly the frame that many levels out and is limited at compile time by
// [WithMaxBackreach].
//
// # Failures
//
// Compilation failures are returned as *[SyntaxError]. A failure during
// evaluation aborts the whole expression, records one diagnostic in the
// Context, and yields nil.
package lang
