package log

import "testing"

func TestNopLoggerDoesNotPanic(t *testing.T) {
	l := NewNop()
	l.Debugf("debug %d", 1)
	l.Infof("info %d", 1)
	l.Warnf("warn %d", 1)
	l.Errorf("error %d", 1)
	l.InfoK("task-1", "info %d", 1)
	l.ErrorK("task-1", "error %d", 1)
	_ = l.With()
}
