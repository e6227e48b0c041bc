package infra

import (
	"fmt"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// GoRecoverable runs f in the current goroutine and restarts it in a new
// goroutine whenever it panics.
func GoRecoverable(id string, f func()) {
	defer func() {
		if err := recover(); err != nil {
			log.Errorf(`job "%s" panics with message: %s, %s`, id, err, IdentifyPanic())
			go GoRecoverable(id, f)
		}
	}()
	f()
}

// IdentifyPanic reports the closest non-runtime frame of the current panic.
func IdentifyPanic() string {
	var name, file string
	var line int
	var pc [16]uintptr

	n := runtime.Callers(3, pc[:])
	for _, pc := range pc[:n] {
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		file, line = fn.FileLine(pc)
		name = fn.Name()
		if !strings.HasPrefix(name, "runtime.") {
			break
		}
	}

	switch {
	case name != "":
		return fmt.Sprintf("%v:%v", name, line)
	case file != "":
		return fmt.Sprintf("%v:%v", file, line)
	}

	return fmt.Sprintf("pc:%x", pc)
}
