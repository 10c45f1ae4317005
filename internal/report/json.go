package report

import (
	"encoding/json"
	"io"

	"typesim/internal/layout"
)

type modePayload struct {
	Mode  string `json:"mode"`
	Size  int    `json:"size"`
	Align int    `json:"align"`
	Loss  int    `json:"loss"`
}

type reportPayload struct {
	Name           string        `json:"name"`
	Kind           string        `json:"kind"`
	Representation int           `json:"representation,omitempty"`
	Alignment      int           `json:"alignment,omitempty"`
	Members        []string      `json:"members,omitempty"`
	Ordering       []string      `json:"optimized_order,omitempty"`
	Modes          []modePayload `json:"modes"`
}

func toPayload(rep layout.Report) reportPayload {
	out := reportPayload{
		Name:     rep.Name,
		Kind:     rep.Kind.String(),
		Members:  rep.Members,
		Ordering: rep.Ordering,
		Modes:    make([]modePayload, 0, len(rep.Modes)),
	}
	if rep.Atomic != nil {
		out.Representation = rep.Atomic.Size
		out.Alignment = rep.Atomic.Align
	}
	for _, m := range rep.Modes {
		out.Modes = append(out.Modes, modePayload{
			Mode:  m.Mode.String(),
			Size:  m.Size,
			Align: m.Align,
			Loss:  m.Loss,
		})
	}
	return out
}

// JSON writes reports as a JSON array.
func JSON(w io.Writer, reps []layout.Report, opts JSONOpts) error {
	payload := make([]reportPayload, 0, len(reps))
	for _, rep := range reps {
		payload = append(payload, toPayload(rep))
	}
	enc := json.NewEncoder(w)
	if opts.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(payload)
}
