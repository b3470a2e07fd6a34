package graph

import "errors"

var (
	ErrShort     = errors.New("too short")
	ErrVersion   = errors.New("invalid version")
	ErrSize      = errors.New("total_size does not match bytes read")
	ErrNodeIndex = errors.New("node index out of range")
	ErrOrigin    = errors.New("origin refers to a nonexistent node")
	ErrName      = errors.New("node name too long")
	ErrState     = errors.New("structural change attempted on a non-negotiating message block")
)
