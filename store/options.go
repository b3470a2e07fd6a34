package store

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultOptions mirrors the teacher's pipe.DefaultOptions pattern.
var DefaultOptions = Options{
	Logger: &log.Logger,
}

// Options configures a Server, modified before calling Run.
type Options struct {
	Logger *zerolog.Logger // if nil, logging is disabled
}

func (o Options) logger() *zerolog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	l := zerolog.Nop()
	return &l
}
