package graph

import jsonutil "github.com/sgsh/sgsh/json"

// ToJSON renders n as a compact JSON object for debug dumps (mirrors
// the teacher's msg.Msg.ToJSON).
func (n Node) ToJSON(dst []byte) []byte {
	dst = append(dst, `{"pid":`...)
	dst = jsonutil.Int(dst, n.Pid)
	dst = append(dst, `,"name":`...)
	dst = jsonutil.String(dst, n.Name)
	dst = append(dst, `,"requires":`...)
	dst = jsonutil.Int(dst, n.Requires)
	dst = append(dst, `,"provides":`...)
	dst = jsonutil.Int(dst, n.Provides)
	dst = append(dst, `,"graph_in":`...)
	dst = jsonutil.Bool(dst, n.IsGraphIn)
	dst = append(dst, `,"graph_out":`...)
	dst = jsonutil.Bool(dst, n.IsGraphOut)
	return append(dst, '}')
}

// ToJSON renders e as a compact JSON object.
func (e Edge) ToJSON(dst []byte) []byte {
	dst = append(dst, `{"from":`...)
	dst = jsonutil.Int(dst, e.From)
	dst = append(dst, `,"to":`...)
	dst = jsonutil.Int(dst, e.To)
	return append(dst, '}')
}

// ToJSON renders the whole MB as a compact JSON object: initiator,
// state, serial number, and the node/edge arrays. negotiate's Debug()
// logging does not call it; it logs scalar fields of the block instead.
func (mb *MessageBlock) ToJSON(dst []byte) []byte {
	dst = append(dst, `{"initiator_pid":`...)
	dst = jsonutil.Int(dst, mb.InitiatorPid)
	dst = append(dst, `,"state":`...)
	dst = jsonutil.String(dst, mb.State.String())
	dst = append(dst, `,"serial_no":`...)
	dst = jsonutil.U64(dst, mb.SerialNo)
	dst = append(dst, `,"nodes":[`...)
	for i, n := range mb.Nodes {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = n.ToJSON(dst)
	}
	dst = append(dst, `],"edges":[`...)
	for i, e := range mb.Edges {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = e.ToJSON(dst)
	}
	return append(dst, `]}`...)
}
