package runtime

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// Describe flattens the bound graph into presentation nodes. Each tree
// definition is emitted once; call nodes link to the definition's body
// rather than inlining it, so recursive trees stay finite.
func (p *Program) Describe() []domain.GraphNode {
	d := &describer{
		bodies: make(map[*Definition]string),
	}
	d.walk(p.Root, "root")
	return d.nodes
}

type describer struct {
	nodes  []domain.GraphNode
	bodies map[*Definition]string
	seq    int
}

func (d *describer) id(prefix string) string {
	d.seq++
	return fmt.Sprintf("%s_%d", prefix, d.seq)
}

func (d *describer) walk(n *Node, prefix string) string {
	id := d.id(prefix)
	gn := domain.GraphNode{ID: id, Kind: n.Kind.String()}

	switch n.Kind {
	case KindRoot:
		gn.Label = "root"
	case KindSequence:
		gn.Label = "sequence"
	case KindFallback:
		gn.Label = "fallback"
	case KindRetry:
		gn.Label = fmt.Sprintf("retry(%d)", n.Limit)
	case KindSavepoint:
		gn.Label = "savepoint"
	case KindNativeCall:
		gn.Label = n.Name + "()"
	case KindParamCall:
		gn.Label = n.Name + "(..)"
	case KindTreeCall:
		gn.Label = n.Name + "()"
	}

	// Reserve our slot before recursing so parents precede children.
	slot := len(d.nodes)
	d.nodes = append(d.nodes, gn)

	var children []string
	for _, c := range n.Children {
		children = append(children, d.walk(c, prefix))
	}
	if n.Kind == KindTreeCall {
		children = append(children, d.definition(n.Def))
	}
	d.nodes[slot].Children = children
	return id
}

// definition emits a definition's body once and returns its ID.
func (d *describer) definition(def *Definition) string {
	if id, ok := d.bodies[def]; ok {
		return id
	}
	// Reserve the ID first: recursive definitions reference themselves.
	id := d.id(def.Name)
	d.bodies[def] = id

	gn := domain.GraphNode{ID: id, Kind: "definition", Label: def.Name}
	slot := len(d.nodes)
	d.nodes = append(d.nodes, gn)
	d.nodes[slot].Children = []string{d.walk(def.Body, def.Name)}
	return id
}
