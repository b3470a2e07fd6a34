package graph

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildSample() *MessageBlock {
	mb := New(17)
	mb.AddNode(Node{Pid: 42, Name: "leftmost", Provides: 1, IsGraphOut: true})
	mb.AddNode(Node{Pid: 17, Name: "middle", Requires: 1, Provides: 1, IsGraphIn: true, IsGraphOut: true})
	mb.AddNode(Node{Pid: 30, Name: "rightmost", Requires: 1, IsGraphIn: true})
	mb.AddEdge(Edge{From: 0, To: 1})
	mb.AddEdge(Edge{From: 1, To: 2})
	mb.Origin = Origin{Index: 1, Side: SideOutput}
	mb.State = END
	return mb
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	mb := buildSample()

	buf, err := mb.Encode()
	require.NoError(t, err)

	got, err := Decode(buf)
	require.NoError(t, err)

	require.Equal(t, mb.InitiatorPid, got.InitiatorPid)
	require.Equal(t, mb.State, got.State)
	require.Equal(t, mb.SerialNo, got.SerialNo)
	require.Equal(t, mb.Origin, got.Origin)
	require.Equal(t, mb.Nodes, got.Nodes)
	require.Equal(t, mb.Edges, got.Edges)
}

func TestReadFromWriteTo(t *testing.T) {
	mb := buildSample()

	var buf bytes.Buffer
	n, err := mb.WriteTo(&buf)
	require.NoError(t, err)
	require.EqualValues(t, buf.Len(), n)

	got, err := ReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, mb.Nodes, got.Nodes)
	require.Equal(t, mb.Edges, got.Edges)
	require.Zero(t, buf.Len(), "ReadFrom must consume exactly total_size bytes")
}

func TestDecodeRejectsSizeMismatch(t *testing.T) {
	mb := New(1)
	mb.AddNode(Node{Pid: 1})
	buf, err := mb.Encode()
	require.NoError(t, err)

	_, err = Decode(buf[:len(buf)-1])
	require.ErrorIs(t, err, ErrSize)
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	mb := New(1)
	buf, err := mb.Encode()
	require.NoError(t, err)
	buf[4] = 9 // corrupt version byte

	_, err = Decode(buf)
	require.ErrorIs(t, err, ErrVersion)
}

func TestEncodeRejectsLongName(t *testing.T) {
	mb := New(1)
	mb.AddNode(Node{Pid: 1, Name: string(make([]byte, MaxNameLen+1))})

	_, err := mb.Encode()
	require.ErrorIs(t, err, ErrName)
}

func TestToJSON(t *testing.T) {
	mb := buildSample()
	out := mb.ToJSON(nil)
	require.Contains(t, string(out), `"initiator_pid":17`)
	require.Contains(t, string(out), `"name":"leftmost"`)
	require.Contains(t, string(out), `"state":"END"`)
}
