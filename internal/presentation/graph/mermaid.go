// Package graph renders automata as Mermaid flowcharts and markdown descriptions.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/tlisp/pkg/domain"
)

// Overlay contains run data to visualize on the graph.
type Overlay struct {
	Visited []string
	Current string
}

// OverlayFromTrace marks every state a trace went through, and the last one as current.
func OverlayFromTrace(steps []*domain.StepEvent) *Overlay {
	o := &Overlay{}
	for _, s := range steps {
		if s.Depth == 0 {
			o.Visited = append(o.Visited, s.State)
			o.Current = s.State
		}
	}
	return o
}

// Mermaid produces a Mermaid flowchart of a.
// It applies semantic styling:
// - Start state: ((Circle))
// - State with a base machine: [[Subroutine]]
// - Terminal outcomes: ([Stadium])
// - Other states: [Rectangle]
// States without transitions fall through with a dotted edge.
func Mermaid(a *domain.Automaton, overlay *Overlay) (string, error) {
	reg, table, err := a.Program()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("graph LR\n")

	terminals := map[string]bool{}
	target := func(act domain.Action) string {
		name := domain.TargetName(reg, act)
		if act.Terminal() {
			terminals[name] = true
			return terminalID(name)
		}
		return stateID(name)
	}

	for i, name := range reg.Names() {
		id := domain.StateID(i)
		st := reg.State(id)

		opener, closer := "[", "]"
		switch {
		case id == a.Start():
			opener, closer = "((", "))"
		case st.Base != nil:
			opener, closer = "[[", "]]"
		}
		label := name
		if st.Base != nil {
			label = fmt.Sprintf("%s <br/> base: %s", name, st.Base.Name())
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", stateID(name), opener, escape(label), closer)

		trs := table.Transitions(id)
		if len(trs) == 0 {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", stateID(name), target(reg.Fallthrough(id)))
			continue
		}
		for _, tr := range trs {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", stateID(name), escape(EdgeLabel(tr)), target(tr.Action))
		}
	}

	for _, name := range []string{domain.TargetHalt, domain.TargetAccept, domain.TargetReject} {
		if terminals[name] {
			fmt.Fprintf(&sb, "    %s([\"%s\"])\n", terminalID(name), name)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Visited {
			if !seen[name] && name != "" {
				seen[name] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", stateID(name))
			}
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", stateID(overlay.Current))
		}
	}

	return sb.String(), nil
}

// EdgeLabel renders a transition as "pattern / op, op".
func EdgeLabel(tr *domain.Transition) string {
	label := tr.Pattern.String()
	if len(tr.Ops) > 0 {
		ops := make([]string, len(tr.Ops))
		for i, op := range tr.Ops {
			ops[i] = op.String()
		}
		label += " / " + strings.Join(ops, ", ")
	}
	return label
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

// stateID prefixes names so states called "end" or "graph" stay valid Mermaid.
func stateID(name string) string {
	return "s_" + sanitizeMermaidID(name)
}

func terminalID(name string) string {
	return "t_" + name
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_", "?", "_", "!", "_", "*", "_")
	return r.Replace(id)
}
