package logging

import "github.com/pressly/goose/v3"

type CdnfsLoggerGoose struct {
}

var _ goose.Logger = (*CdnfsLoggerGoose)(nil)

func (c CdnfsLoggerGoose) Fatalf(format string, v ...interface{}) {
	Fatalf(format, v...)
}

func (c CdnfsLoggerGoose) Printf(format string, v ...interface{}) {
	Debugf(format, v...)
}
