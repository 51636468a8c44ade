package fuzztests

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
)

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	addUnitSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata", "units")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все *.yaml юниты
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func addUnitSeeds(f *testing.F) {
	seeds := []string{
		"",
		"decls: []\n",
		"decls:\n  - {kind: fun, name: main}\n",
		"decls:\n  - {kind: val, name: id, type: Long}\n",
		"decls:\n  - {kind: val, name: x, modifiers: [const], type: Int, init: 1L}\n",
		"decls:\n  - {kind: fun, name: bar, annotations: [DartName=foo]}\n  - {kind: fun, name: foo}\n",
		"decls:\n  - {kind: val, name: c, modifiers: [const], init: {kind: call, callee: c}}\n",
		"text: \"fun f() {}\"\ndecls:\n  - {kind: fun, name: f, span: [0, 10], name_span: [4, 5]}\n",
		"decls:\n  - kind: enum\n    name: E\n    members:\n      - {kind: entry, name: A}\n      - {kind: var, name: v}\n",
		"decls:\n  - {kind: fun, name: f, overrides: [Missing.f]}\n",
		"decls: [",
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return bytes.Clone(src)
	}
	return bytes.Clone(src[:maxSeedBytes])
}
