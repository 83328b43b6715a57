package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/tlisp/pkg/domain"
)

// Markdown describes a as a markdown document: a summary list followed by one
// transition table per state.
func Markdown(a *domain.Automaton, description string) (string, error) {
	reg, table, err := a.Program()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", a.Name())
	if description != "" {
		sb.WriteString(description + "\n\n")
	}
	fmt.Fprintf(&sb, "- **Tapes:** %d\n", a.Tapes())
	fmt.Fprintf(&sb, "- **Blank:** `%s`\n", a.Blank())
	fmt.Fprintf(&sb, "- **Start:** `%s`\n", reg.State(a.Start()).Name)
	fmt.Fprintf(&sb, "- **States:** %d, **transitions:** %d\n", reg.Len(), table.Len())

	for i := range reg.Len() {
		id := domain.StateID(i)
		st := reg.State(id)
		fmt.Fprintf(&sb, "\n## %s\n\n", st.Name)
		if st.Base != nil {
			fmt.Fprintf(&sb, "Runs base machine `%s` first.\n\n", st.Base.Name())
		}
		if st.Output != nil {
			fmt.Fprintf(&sb, "Output: `%s`\n\n", st.Output.Name())
		}

		trs := table.Transitions(id)
		if len(trs) == 0 {
			fmt.Fprintf(&sb, "No transitions; continues with `%s`.\n", domain.TargetName(reg, reg.Fallthrough(id)))
			continue
		}
		sb.WriteString("| # | Match | Operations | Next |\n")
		sb.WriteString("|---|-------|------------|------|\n")
		for _, tr := range trs {
			ops := make([]string, len(tr.Ops))
			for k, op := range tr.Ops {
				ops[k] = op.String()
			}
			fmt.Fprintf(&sb, "| %d | `%s` | %s | `%s` |\n",
				tr.Index,
				cell(tr.Pattern.String()),
				cell(strings.Join(ops, ", ")),
				domain.TargetName(reg, tr.Action),
			)
		}
	}
	return sb.String(), nil
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
