package diag

import (
	"testing"

	"dotgate/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")
	file := fs.Add("/workspace/testdata/sample.kt", []byte("const val a = 1L\nconst val b = 'c'\n"), 0)

	diags := []Diagnostic{
		LongReference.On(At(source.Span{File: file, Start: 14, End: 16})),
		CharReference.On(At(source.Span{File: file, Start: 31, End: 34})).
			WithNote(source.Span{File: file, Start: 17, End: 22}, "declared\nhere"),
		// unknown file is skipped
		UnnecessaryReified.On(At(source.Span{File: 42})),
	}

	expected := "error TYP3001 testdata/sample.kt:1:15 cannot use Long, use Int instead\n" +
		"error TYP3004 testdata/sample.kt:2:15 cannot use Char, use String instead\n" +
		"note TYP3004 testdata/sample.kt:2:1 declared here"

	if got := FormatGoldenDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}
