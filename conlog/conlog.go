// Package conlog is a pluggable printf hook. Nothing is printed until a printer is
// installed.
package conlog

import "sync/atomic"

type printer func(string, ...interface{})

var (
	p     atomic.Pointer[printer]
	debug atomic.Bool
)

func SetPrintf(f func(string, ...interface{})) {
	if f == nil {
		p.Store(nil)
		return
	}
	pf := printer(f)
	p.Store(&pf)
}

// SetDebug enables DPrintf
func SetDebug(on bool) {
	debug.Store(on)
}

func Printf(format string, v ...interface{}) {
	if f := p.Load(); f != nil {
		(*f)(format, v...)
	}
}

// DPrintf prints only when debug output is enabled
func DPrintf(format string, v ...interface{}) {
	if debug.Load() {
		Printf(format, v...)
	}
}
