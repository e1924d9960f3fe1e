package hierarchy

import (
	"fmt"
	"strings"
)

// MaxStringLength caps both topology renderings.
const MaxStringLength = 2048

// String renders the root forest compactly, e.g. "[[0 1] 2]". Merger
// products print as colon-joined ids.
func (h *Hierarchy) String() string {
	var sb strings.Builder
	for i, r := range h.Roots {
		if i > 0 {
			sb.WriteByte(' ')
		}
		h.writeNode(&sb, r)
	}
	return truncate(sb.String())
}

// NodeString renders one subtree compactly.
func (h *Hierarchy) NodeString(idx int) string {
	var sb strings.Builder
	h.writeNode(&sb, idx)
	return truncate(sb.String())
}

func (h *Hierarchy) writeNode(sb *strings.Builder, idx int) {
	b := &h.Nodes[idx]
	if b.IsLeaf() {
		sb.WriteString(b.IDString())
		return
	}
	sb.WriteByte('[')
	h.writeNode(sb, b.Child[0])
	sb.WriteByte(' ')
	h.writeNode(sb, b.Child[1])
	sb.WriteByte(']')
}

// HumanString names each top-level object by its multiplicity, e.g.
// "binary-single".
func (h *Hierarchy) HumanString() string {
	names := make([]string, len(h.Roots))
	for i, r := range h.Roots {
		names[i] = Multiplicity(h.Nodes[r].N)
	}
	return truncate(strings.Join(names, "-"))
}

// Multiplicity names a subtree of n bodies.
func Multiplicity(n int) string {
	switch n {
	case 1:
		return "single"
	case 2:
		return "binary"
	case 3:
		return "triple"
	case 4:
		return "quadruple"
	default:
		return fmt.Sprintf("%d-tuple", n)
	}
}

func truncate(s string) string {
	if len(s) > MaxStringLength {
		return s[:MaxStringLength]
	}
	return s
}
