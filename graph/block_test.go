package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddNodeBumpsSerial(t *testing.T) {
	mb := New(17)
	require.EqualValues(t, 0, mb.SerialNo)

	i := mb.AddNode(Node{Pid: 17, Name: "tool-a", Requires: 0, Provides: 1})
	require.Equal(t, 0, i)
	require.EqualValues(t, 1, mb.SerialNo)

	idx, ok := mb.HasNode(17)
	require.True(t, ok)
	require.Equal(t, 0, idx)

	_, ok = mb.HasNode(99)
	require.False(t, ok)
}

func TestAddEdgeRejectsBadIndex(t *testing.T) {
	mb := New(1)
	mb.AddNode(Node{Pid: 1})

	err := mb.AddEdge(Edge{From: 0, To: 5})
	require.ErrorIs(t, err, ErrNodeIndex)
}

func TestAddEdgeDedupes(t *testing.T) {
	mb := New(1)
	mb.AddNode(Node{Pid: 1})
	mb.AddNode(Node{Pid: 2})

	require.NoError(t, mb.AddEdge(Edge{From: 0, To: 1}))
	serial := mb.SerialNo
	require.NoError(t, mb.AddEdge(Edge{From: 0, To: 1}))
	require.Equal(t, serial, mb.SerialNo, "re-adding the same edge must not bump serial_no")
	require.Len(t, mb.Edges, 1)
}

func TestInOutEdges(t *testing.T) {
	mb := New(1)
	mb.AddNode(Node{Pid: 1, Provides: 1})  // 0: leftmost
	mb.AddNode(Node{Pid: 2, Requires: 1, Provides: 1}) // 1: middle
	mb.AddNode(Node{Pid: 3, Requires: 1}) // 2: rightmost

	require.NoError(t, mb.AddEdge(Edge{From: 0, To: 1}))
	require.NoError(t, mb.AddEdge(Edge{From: 1, To: 2}))

	require.Len(t, mb.OutEdges(0), 1)
	require.Len(t, mb.InEdges(1), 1)
	require.Len(t, mb.OutEdges(1), 1)
	require.Len(t, mb.InEdges(2), 1)
	require.Empty(t, mb.InEdges(0))
	require.Empty(t, mb.OutEdges(2))
}

func TestCloneIsIndependent(t *testing.T) {
	mb := New(1)
	mb.AddNode(Node{Pid: 1})
	clone := mb.Clone()

	clone.AddNode(Node{Pid: 2})
	require.Len(t, mb.Nodes, 1)
	require.Len(t, clone.Nodes, 2)
}
