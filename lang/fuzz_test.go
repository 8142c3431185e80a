package lang

import (
	"errors"
	"testing"
	"unicode/utf8"
)

// FuzzCompile checks that neither compilation nor evaluation panics, and
// that every compile failure is a *SyntaxError.
func FuzzCompile(f *testing.F) {
	f.Add("1 + 2 * 3")
	f.Add(`"a" + b.c + 'd'`)
	f.Add("a?.b?[0] ?: c ?? d")
	f.Add("x = [1, 2, 3]; x.size() > 2 ? x[-1] : null")
	f.Add("../../a.b(c, d)")
	f.Add(`"\u{1F600}😀\x41"`)
	f.Add("~/a+b/ =~ s")
	f.Add("{1, 2} + [k: v]")
	f.Add("0xff_ff >>> 3L")
	f.Add("`m:string,int`(1, 2)")
	f.Add("(((")
	f.Add("1..<10")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		defer func() {
			if r := recover(); r != nil {
				t.Errorf("panicked on input %q: %v", input, r)
			}
		}()

		o := makeOptions()

		e, err := compile(input, &o)
		if err != nil {
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Errorf("Compile(%q) error %T is not a *SyntaxError", input, err)
			}

			return
		}

		_, _ = e.Run(NewContext(testData()))
	})
}
