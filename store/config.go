package store

import (
	"flag"
	"fmt"

	"github.com/spf13/cast"
)

// frameMode selects how the incoming stdin byte stream is cut into
// records (§4.2.1).
type frameMode int

const (
	modeSeparator frameMode = iota
	modeFixedLength
)

func (m frameMode) String() string {
	if m == modeFixedLength {
		return "fixed-length"
	}
	return "separator"
}

// Config is the store's resolved configuration, produced either
// programmatically or by FromFlags (the flag-parsing entry point used
// by cmd/sgsh-store). DefaultConfig mirrors the teacher's
// pipe.DefaultOptions pattern.
type Config struct {
	SocketPath string

	Mode        frameMode
	Separator   byte // only meaningful in modeSeparator
	FixedLength int  // only meaningful in modeFixedLength

	// RBegin/REnd describe the default response window requested by
	// a bare 'C'/'L' command, as the reverse range of §4.2.1:
	// (0,1) is "just the latest record".
	RBegin, REnd uint64

	MaxClients int
}

// DefaultConfig is separator mode with a newline separator and the
// latest-record window, matching the CLI default of §6.
var DefaultConfig = Config{
	Mode:       modeSeparator,
	Separator:  '\n',
	RBegin:     0,
	REnd:       1,
	MaxClients: 64,
}

// FromFlags parses argv (typically os.Args[1:]) into a Config using
// the standard flag package, the way the teacher's example.go parses
// its own CLI (§6: `store [-l length | -t separator_char] socket_path`).
// -w takes a value and is parsed (so the flag surface named by §6
// exists), but any non-empty value makes FromFlags return
// ErrTimeWindowUnsupported.
func FromFlags(name string, argv []string) (Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	optLength := fs.Int("l", 0, "fixed-length mode: record length in bytes")
	optSep := fs.String("t", "\n", "separator mode: record separator byte")
	optWindow := fs.String("w", "", "time-window mode (unsupported)")

	if err := fs.Parse(argv); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if fs.NArg() != 1 {
		return Config{}, fmt.Errorf("%w: usage: %s [-l length | -t separator_char] socket_path", ErrConfig, name)
	}

	cfg := DefaultConfig
	cfg.SocketPath = fs.Arg(0)

	if *optWindow != "" {
		return Config{}, ErrTimeWindowUnsupported
	}

	if *optLength > 0 {
		cfg.Mode = modeFixedLength
		cfg.FixedLength = *optLength
	} else {
		cfg.Mode = modeSeparator
		sep, err := parseSeparator(*optSep)
		if err != nil {
			return Config{}, err
		}
		cfg.Separator = sep
	}

	return cfg, cfg.Validate()
}

// parseSeparator accepts a literal single byte or the two-character
// escape "\0" for NUL (§6: "-t c ... accepts \0; one byte only"),
// using cast for permissive numeric coercion of anything else.
func parseSeparator(s string) (byte, error) {
	switch s {
	case "\\0":
		return 0, nil
	case "\\n":
		return '\n', nil
	}
	if len(s) == 1 {
		return s[0], nil
	}
	n, err := cast.ToUint8E(s)
	if err != nil {
		return 0, fmt.Errorf("%w: -t value %q is not a single byte", ErrConfig, s)
	}
	return n, nil
}

// Validate rejects configurations the store does not implement.
func (c Config) Validate() error {
	if c.Mode == modeFixedLength && c.FixedLength <= 0 {
		return fmt.Errorf("%w: fixed length must be > 0", ErrConfig)
	}
	if c.SocketPath == "" {
		return fmt.Errorf("%w: socket_path is required", ErrConfig)
	}
	return nil
}
