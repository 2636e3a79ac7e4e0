package pyforge

import (
	"sync/atomic"

	"github.com/gookit/color"
)

// isCriticalAtomic is 1 while an interruption-sensitive phase (the install)
// is running and 0 otherwise. The signal handler consults it.
var isCriticalAtomic atomic.Int32

// Global variables
var (
	Debug      bool
	ConfigFile = "/etc/pyforge.conf"
	tmpDir     string
	version    = "dev"     // overridden at build time
	buildDate  = "unknown" // overridden at build time
	// Global executors (declared, to be assigned in Main)
	UserExec *Executor
	RootExec *Executor
)

// color helpers
var (
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)
