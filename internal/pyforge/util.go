package pyforge

import "fmt"

// debugf prints when PYFORGE_DEBUG is set.
func debugf(format string, args ...any) {
	if Debug {
		fmt.Printf(format, args...)
	}
}

// stylePrinter is the subset of the gookit/color style types pyforge prints
// through (RGBColor and Theme both satisfy it).
type stylePrinter interface {
	Printf(format string, a ...any)
	Println(a ...any)
}

// cPrintf prints through the given style, plain when the style is nil.
func cPrintf(p stylePrinter, format string, a ...any) {
	if p == nil {
		fmt.Printf(format, a...)
		return
	}
	p.Printf(format, a...)
}

// cPrintln is the line-oriented counterpart of cPrintf.
func cPrintln(p stylePrinter, a ...any) {
	if p == nil {
		fmt.Println(a...)
		return
	}
	p.Println(a...)
}
