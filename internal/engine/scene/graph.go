package scene

// Graph is the root of everything the host draws.
type Graph struct {
	Root *Node
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{Root: NewNode("Scene")}
}

// Add attaches n under the root.
func (g *Graph) Add(n *Node) {
	g.Root.AddChild(n)
}

// Top returns the live direct children of the root.
func (g *Graph) Top() []*Node {
	out := make([]*Node, 0, len(g.Root.children))
	for _, c := range g.Root.children {
		if c.Alive() {
			out = append(out, c)
		}
	}
	return out
}
