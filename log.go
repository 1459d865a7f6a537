package seqjson

import (
	"sync/atomic"

	"github.com/go-kit/log"
)

type loggerHolder struct{ log.Logger }

var currentLogger atomic.Pointer[loggerHolder]

// logger forwards to the logger installed with SetLogger.
var logger log.Logger = log.LoggerFunc(func(keyvals ...interface{}) error {
	if h := currentLogger.Load(); h != nil {
		return h.Log(keyvals...)
	}
	return nil
})

// SetLogger installs the logger used for debug events such as contract
// resolution and stream flushes. A nil logger silences the package.
func SetLogger(l log.Logger) {
	if l == nil {
		l = log.NewNopLogger()
	}
	currentLogger.Store(&loggerHolder{l})
}

func init() {
	SetLogger(log.NewNopLogger())
}
