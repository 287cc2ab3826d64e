package graph

// View is a point-in-time copy of a store. Nodes are in creation order and
// connections in append order.
type View struct {
	Nodes       []Node
	Connections []Connection
}

// Node returns the node with the given id.
func (v View) Node(id NodeID) (Node, bool) {
	for _, n := range v.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Index returns each node's position in Nodes.
func (v View) Index() map[NodeID]int {
	idx := make(map[NodeID]int, len(v.Nodes))
	for i, n := range v.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// ConnectionsOf returns the connections touching a node, in append order.
func (v View) ConnectionsOf(id NodeID) []Connection {
	var out []Connection
	for _, c := range v.Connections {
		if c.Touches(id) {
			out = append(out, c)
		}
	}
	return out
}

// Depths returns each node's longest-path distance from a node with no
// incoming connections. Nodes on a cycle are placed one past the deepest
// acyclic predecessor seen so far; the result is deterministic for a given
// view.
func (v View) Depths() map[NodeID]int {
	incoming := make(map[NodeID][]NodeID, len(v.Nodes))
	for _, c := range v.Connections {
		if c.Source != c.Target {
			incoming[c.Target] = append(incoming[c.Target], c.Source)
		}
	}

	depth := make(map[NodeID]int, len(v.Nodes))
	state := make(map[NodeID]int, len(v.Nodes)) // 0 unvisited, 1 visiting, 2 done
	var visit func(NodeID) int
	visit = func(id NodeID) int {
		switch state[id] {
		case 1:
			return -1
		case 2:
			return depth[id]
		}
		state[id] = 1
		d := 0
		for _, p := range incoming[id] {
			if pd := visit(p); pd+1 > d {
				d = pd + 1
			}
		}
		state[id] = 2
		depth[id] = d
		return d
	}
	for _, n := range v.Nodes {
		visit(n.ID)
	}
	return depth
}
