// Wire representation of a Message Block.
//
// The Design Notes call for separating the wire representation (a pure
// byte layout with explicit offsets) from the in-memory representation
// (MessageBlock, an owned-slice Go value). This file is the wire side:
// header, then N node records, then M edge records, packed with
// explicit field widths via the binary package's big-endian helpers —
// a deterministic choice in place of the original's native-byte-order
// realloc'd region, since cross-arch interchange is a non-goal either way.
package graph

import (
	"bytes"
	"fmt"
	"io"

	"github.com/sgsh/sgsh/binary"
)

const (
	headerSize = 4 + 1 + 1 + 2 + 4 + 8 + 4 + 1 + 3 + 4 + 4 // see Encode for field order
	nodeSize   = 4 + 4 + 4 + 1 + 1 + 1 + 1 + MaxNameLen
	edgeSize   = 4 + 4
)

// Encode serializes mb into a freshly allocated, self-contained byte
// region whose first 4 bytes are the total size (§6: "the total_size
// field is authoritative; receivers must read exactly that many bytes").
func (mb *MessageBlock) Encode() ([]byte, error) {
	for _, n := range mb.Nodes {
		if len(n.Name) > MaxNameLen {
			return nil, ErrName
		}
	}

	total := headerSize + len(mb.Nodes)*nodeSize + len(mb.Edges)*edgeSize

	var buf bytes.Buffer
	buf.Grow(total)

	binary.Msb.WriteUint32(&buf, uint32(total))
	binary.Msb.WriteUint8(&buf, uint8(mb.Version))
	binary.Msb.WriteUint8(&buf, uint8(mb.State))
	binary.Msb.WriteUint16(&buf, 0) // reserved
	binary.Msb.WriteUint32(&buf, uint32(int32(mb.InitiatorPid)))
	binary.Msb.WriteUint64(&buf, mb.SerialNo)
	binary.Msb.WriteUint32(&buf, uint32(int32(mb.Origin.Index)))
	binary.Msb.WriteUint8(&buf, uint8(mb.Origin.Side))
	buf.Write(make([]byte, 3)) // reserved
	binary.Msb.WriteUint32(&buf, uint32(len(mb.Nodes)))
	binary.Msb.WriteUint32(&buf, uint32(len(mb.Edges)))

	for _, n := range mb.Nodes {
		binary.Msb.WriteUint32(&buf, uint32(int32(n.Pid)))
		binary.Msb.WriteUint32(&buf, uint32(n.Requires))
		binary.Msb.WriteUint32(&buf, uint32(n.Provides))
		binary.Msb.WriteUint8(&buf, boolByte(n.IsGraphIn))
		binary.Msb.WriteUint8(&buf, boolByte(n.IsGraphOut))
		binary.Msb.WriteUint8(&buf, uint8(len(n.Name)))
		binary.Msb.WriteUint8(&buf, 0) // reserved
		var name [MaxNameLen]byte
		copy(name[:], n.Name)
		buf.Write(name[:])
	}

	for _, e := range mb.Edges {
		binary.Msb.WriteUint32(&buf, uint32(e.From))
		binary.Msb.WriteUint32(&buf, uint32(e.To))
	}

	if buf.Len() != total {
		return nil, fmt.Errorf("graph: encode produced %d bytes, expected %d: %w", buf.Len(), total, ErrSize)
	}
	return buf.Bytes(), nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Decode parses a complete wire region, as produced by Encode, into an
// in-memory MessageBlock. buf must be exactly the size named by its own
// leading total_size field.
func Decode(buf []byte) (*MessageBlock, error) {
	if len(buf) < headerSize {
		return nil, ErrShort
	}

	total := binary.Msb.Uint32(buf[0:4])
	if int(total) != len(buf) {
		return nil, ErrSize
	}

	mb := &MessageBlock{}
	mb.Version = int(buf[4])
	if mb.Version != ProtocolVersion {
		return nil, ErrVersion
	}
	mb.State = State(buf[5])
	mb.InitiatorPid = int(int32(binary.Msb.Uint32(buf[8:12])))
	mb.SerialNo = binary.Msb.Uint64(buf[12:20])
	mb.Origin.Index = int(int32(binary.Msb.Uint32(buf[20:24])))
	mb.Origin.Side = Side(buf[24])
	nNodes := binary.Msb.Uint32(buf[28:32])
	nEdges := binary.Msb.Uint32(buf[32:36])

	off := headerSize
	mb.Nodes = make([]Node, 0, nNodes)
	for i := uint32(0); i < nNodes; i++ {
		if off+nodeSize > len(buf) {
			return nil, ErrShort
		}
		rec := buf[off : off+nodeSize]
		var n Node
		n.Pid = int(int32(binary.Msb.Uint32(rec[0:4])))
		n.Requires = int(binary.Msb.Uint32(rec[4:8]))
		n.Provides = int(binary.Msb.Uint32(rec[8:12]))
		n.IsGraphIn = rec[12] != 0
		n.IsGraphOut = rec[13] != 0
		nameLen := int(rec[14])
		if nameLen > MaxNameLen {
			return nil, ErrName
		}
		n.Name = string(rec[16 : 16+nameLen])
		mb.Nodes = append(mb.Nodes, n)
		off += nodeSize
	}

	mb.Edges = make([]Edge, 0, nEdges)
	for i := uint32(0); i < nEdges; i++ {
		if off+edgeSize > len(buf) {
			return nil, ErrShort
		}
		rec := buf[off : off+edgeSize]
		e := Edge{
			From: int(binary.Msb.Uint32(rec[0:4])),
			To:   int(binary.Msb.Uint32(rec[4:8])),
		}
		mb.Edges = append(mb.Edges, e)
		off += edgeSize
	}

	for _, e := range mb.Edges {
		if !mb.ValidIndex(e.From) || !mb.ValidIndex(e.To) {
			return nil, ErrNodeIndex
		}
	}
	if mb.Origin.Index != -1 && !mb.ValidIndex(mb.Origin.Index) {
		return nil, ErrOrigin
	}

	return mb, nil
}

// WriteTo encodes mb and writes it to w as one contiguous region.
func (mb *MessageBlock) WriteTo(w io.Writer) (int64, error) {
	buf, err := mb.Encode()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom reads one complete MB from r: first its 4-byte total_size
// header, then exactly that many remaining bytes (§6).
func ReadFrom(r io.Reader) (*MessageBlock, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	total := binary.Msb.Uint32(hdr[:])
	if total < headerSize {
		return nil, ErrShort
	}

	buf := make([]byte, total)
	copy(buf, hdr[:])
	if _, err := io.ReadFull(r, buf[4:]); err != nil {
		return nil, err
	}
	return Decode(buf)
}
