package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("unit.yaml", []byte("hello world"), 0)
	if id1 != 0 {
		t.Errorf("Expected first FileID to be 0, got %d", id1)
	}
	id2 := fs.Add("unit.yaml", []byte("hello universe"), 0)
	if id2 != 1 {
		t.Errorf("Expected second FileID to be 1, got %d", id2)
	}

	latestID, exists := fs.GetLatest("unit.yaml")
	if !exists || latestID != id2 {
		t.Errorf("Expected latest ID to be %d, got %d (exists=%v)", id2, latestID, exists)
	}
	if string(fs.Get(id1).Content) != "hello world" {
		t.Errorf("old version must stay reachable, got %q", fs.Get(id1).Content)
	}
	if fs.Len() != 2 {
		t.Errorf("Len() = %d, want 2", fs.Len())
	}
}

func TestAddVirtualLineIdx(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.kt", []byte("a\nb\n"))
	file := fs.Get(id)

	expected := []uint32{1, 3}
	if len(file.LineIdx) != len(expected) {
		t.Fatalf("Expected LineIdx length %d, got %d", len(expected), len(file.LineIdx))
	}
	for i, val := range expected {
		if file.LineIdx[i] != val {
			t.Errorf("Expected LineIdx[%d] = %d, got %d", i, val, file.LineIdx[i])
		}
	}
	if file.Flags&FileVirtual == 0 {
		t.Error("Expected FileVirtual flag to be set")
	}
}

func TestResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.kt", []byte("val x = 1\nconst val y = 2L\n"))

	tests := []struct {
		name       string
		span       Span
		start, end LineCol
	}{
		{"first token", Span{File: id, Start: 0, End: 3}, LineCol{1, 1}, LineCol{1, 4}},
		{"second line literal", Span{File: id, Start: 24, End: 26}, LineCol{2, 15}, LineCol{2, 17}},
		{"newline belongs to its line", Span{File: id, Start: 9, End: 10}, LineCol{1, 10}, LineCol{2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := fs.Resolve(tt.span)
			if start != tt.start || end != tt.end {
				t.Errorf("Resolve(%v) = %v..%v, want %v..%v", tt.span, start, end, tt.start, tt.end)
			}
		})
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	file := fs.Get(fs.AddVirtual("a.kt", []byte("one\ntwo\nthree")))

	tests := []struct {
		line uint32
		want string
	}{
		{0, ""},
		{1, "one"},
		{2, "two"},
		{3, "three"},
		{4, ""},
	}
	for _, tt := range tests {
		if got := file.GetLine(tt.line); got != tt.want {
			t.Errorf("GetLine(%d) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestLoadNormalizesBOMAndCRLF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unit.kt")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa\r\nb\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	file := fs.Get(id)
	if string(file.Content) != "a\nb\n" {
		t.Errorf("content = %q", file.Content)
	}
	if file.Flags&FileHadBOM == 0 || file.Flags&FileNormalizedCRLF == 0 {
		t.Errorf("flags = %b, want BOM and CRLF set", file.Flags)
	}
	if _, ok := fs.Lookup(id + 1); ok {
		t.Error("Lookup past the end must fail")
	}
}

func TestDisplayPath(t *testing.T) {
	fs := NewFileSet()
	file := fs.Get(fs.Add("/work/src/unit.yaml", nil, 0))
	if got := file.DisplayPath("/work"); got != "src/unit.yaml" {
		t.Errorf("DisplayPath = %q", got)
	}
	if got := file.DisplayPath(""); got != "/work/src/unit.yaml" {
		t.Errorf("DisplayPath without base = %q", got)
	}
}
