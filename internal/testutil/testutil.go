// Package testutil holds assertions shared by the tests of several
// packages.
package testutil

import (
	"strings"
	"testing"

	"github.com/k0kubun/pp/v3"
	"github.com/kr/pretty"
)

var printer = func() *pp.PrettyPrinter {
	p := pp.New()
	p.SetColoringEnabled(false)
	return p
}()

// AssertEqualWithDiff asserts that two values are deeply equal, printing
// both values and a field-by-field diff when they are not.
func AssertEqualWithDiff(t testing.TB, expected, actual any) {
	t.Helper()

	diff := pretty.Diff(expected, actual)
	if len(diff) == 0 {
		return
	}

	var s strings.Builder
	for i, d := range diff {
		if i == 0 {
			s.WriteString("diff    : ")
		} else {
			s.WriteString("          ")
		}
		s.WriteString(d)
		s.WriteString("\n")
	}
	t.Errorf(
		"Not equal: \n"+
			"expected: %s\n"+
			"actual  : %s\n\n"+
			"%s",
		printer.Sprint(expected),
		printer.Sprint(actual),
		s.String(),
	)
}
