package dispatch

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
)

// FormatTable renders the dispatch table and legacy aliases for human
// consumption. The output is deterministic.
func FormatTable() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 2, 0, 2, ' ', 0)

	fmt.Fprintln(w, "COMMAND\tSTAGE\tENTRYPOINT\tTICKET\tWORKFLOW")
	for _, name := range SupportedCommands() {
		spec := specs[name]
		stage := spec.Stage
		if stage == "" {
			stage = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			spec.Command, stage, spec.Entrypoint,
			yesNo(spec.TicketRequired), yesNo(spec.RequiresWorkflow))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "ALIAS\tRESOLVES TO")
	aliases := make([]string, 0, len(legacyAliases))
	for alias := range legacyAliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		fmt.Fprintf(w, "%s\t%s\n", alias, legacyAliases[alias])
	}

	w.Flush()
	return b.String()
}

// tableEntry is the JSON projection of a Spec for table exports.
type tableEntry struct {
	Command          string `json:"command"`
	Stage            string `json:"stage"`
	Entrypoint       string `json:"entrypoint"`
	TicketRequired   bool   `json:"ticket_required"`
	RequiresWorkflow bool   `json:"requires_workflow"`
}

// TableJSON renders the dispatch table and aliases as indented JSON with
// deterministic ordering.
func TableJSON() ([]byte, error) {
	entries := make([]tableEntry, 0, len(specs))
	for _, name := range SupportedCommands() {
		spec := specs[name]
		entries = append(entries, tableEntry{
			Command:          spec.Command,
			Stage:            spec.Stage,
			Entrypoint:       spec.Entrypoint,
			TicketRequired:   spec.TicketRequired,
			RequiresWorkflow: spec.RequiresWorkflow,
		})
	}
	return json.MarshalIndent(struct {
		Commands []tableEntry      `json:"commands"`
		Aliases  map[string]string `json:"aliases"`
	}{Commands: entries, Aliases: legacyAliases}, "", "  ")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
