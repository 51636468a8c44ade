package diagfmt

import (
	"io"

	"dotgate/internal/diag"
	"dotgate/internal/source"
)

// Short writes one line per diagnostic in the golden format used by tests
// and editors: "error CST2001 unit.kt:3:17 message".
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, withNotes bool) error {
	out := diag.FormatGoldenDiagnostics(bag.Items(), fs, withNotes)
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}
