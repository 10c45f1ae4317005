package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"typesim/internal/types"
)

// ErrorLine writes err as a single prefixed line. Registry errors get the
// "[TYPE ERROR]" prefix, everything else "[ERROR]".
func ErrorLine(w io.Writer, err error, useColor bool) error {
	if err == nil {
		return nil
	}
	prefix := "[ERROR]"
	var te *types.TypeError
	if errors.As(err, &te) {
		prefix = "[TYPE ERROR]"
	}
	if useColor {
		c := color.New(color.FgRed, color.Bold)
		c.EnableColor()
		prefix = c.Sprint(prefix)
	}
	_, werr := fmt.Fprintf(w, "%s: %v\n", prefix, err)
	return werr
}
