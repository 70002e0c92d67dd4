package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/moondial/internal/dial"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describeReading renders r as one human-readable line.
func describeReading(r dial.Reading) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %3d°  %-5s %-15s", r.Day, r.Angle, r.Side, r.Phase)
	if r.Label != "" {
		fmt.Fprintf(&b, " %-4s", r.Label)
	}
	var notes []string
	if r.Flipped {
		notes = append(notes, "flipped")
	}
	if r.Recovered {
		notes = append(notes, "recovered")
	}
	if !r.Fresh {
		notes = append(notes, "cached")
	}
	if len(notes) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(notes, ", "))
	}
	return strings.TrimRight(b.String(), " ")
}
