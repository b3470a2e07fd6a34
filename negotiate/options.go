package negotiate

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
)

// DefaultOptions logs to zerolog's global logger. Negotiate does not
// substitute it for a zero Options, whose nil Logger disables logging.
var DefaultOptions = Options{
	Logger: &log.Logger,
}

// Options configures a negotiation Session.
type Options struct {
	Logger *zerolog.Logger // if nil, logging is disabled

	// Pid overrides the process identifier this tool contributes as its
	// node's Pid. Zero means "use os.Getpid()". Exists so tests can run
	// several simulated tools, with distinct synthetic pids, in one process.
	Pid int

	// IsGraphIn / IsGraphOut override the is_graph_in / is_graph_out
	// environment variables (§6). Nil means "read from the environment".
	IsGraphIn  *bool
	IsGraphOut *bool
}

const (
	envGraphIn  = "is_graph_in"
	envGraphOut = "is_graph_out"
)

// resolveDirections resolves IsGraphIn/IsGraphOut, consulting the
// process environment for any field left unset by the caller. Absence
// or parse failure of a consulted variable is fatal (§6).
func (o Options) resolveDirections() (isGraphIn, isGraphOut bool, err error) {
	if o.IsGraphIn != nil {
		isGraphIn = *o.IsGraphIn
	} else if isGraphIn, err = readBoolEnv(envGraphIn); err != nil {
		return false, false, err
	}

	if o.IsGraphOut != nil {
		isGraphOut = *o.IsGraphOut
	} else if isGraphOut, err = readBoolEnv(envGraphOut); err != nil {
		return false, false, err
	}

	return isGraphIn, isGraphOut, nil
}

func readBoolEnv(name string) (bool, error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false, fmt.Errorf("negotiate: missing environment variable %s: %w", name, ErrConfig)
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("negotiate: %s=%q: %w", name, v, ErrConfig)
	}
	return b, nil
}

func (o Options) logger() *zerolog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	l := zerolog.Nop()
	return &l
}

func (o Options) pid() int {
	if o.Pid != 0 {
		return o.Pid
	}
	return os.Getpid()
}
