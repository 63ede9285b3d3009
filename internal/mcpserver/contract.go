package mcpserver

import (
	"fmt"
	"strings"
)

// valueSchema describes how property values are encoded per kind. It is
// prepended to the generated catalog listing in the resource document.
const valueSchema = `# Tessera Property Catalog

Every template property carries a JSON value whose shape depends on the
property's type:

| Type     | JSON value                                |
|----------|-------------------------------------------|
| boolean  | ` + "`true`" + ` / ` + "`false`" + `       |
| select   | option id as a string, e.g. ` + "`\"6361\"`" + ` |
| checkbox | array of option ids, e.g. ` + "`[\"6361\"]`" + ` |
| text     | plain string                              |
| number   | decimal string with "." separator, e.g. ` + "`\"0.36\"`" + ` |

An absent value is JSON ` + "`null`" + `. Numbers are always strings;
derived values are floor-truncated to two decimals.

## Properties
`

// catalogDocument renders the value schema plus one line per catalog
// definition, including its options for enumerated kinds.
func (s *Server) catalogDocument() string {
	var b strings.Builder
	b.WriteString(valueSchema)

	for _, id := range s.cat.IDs() {
		def := s.cat.Get(id)
		fmt.Fprintf(&b, "\n- **%d** %s (%s)", def.ID, def.Text, def.Kind)
		if def.Enumerated() {
			var opts []string
			for _, o := range def.Options {
				opts = append(opts, fmt.Sprintf("%s=%s", o.ID, o.Text))
			}
			fmt.Fprintf(&b, ": %s", strings.Join(opts, ", "))
		}
	}
	b.WriteString("\n")
	return b.String()
}
