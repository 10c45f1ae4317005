package fuzztests

import (
	"bufio"
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 16 << 10
)

// builtinSeeds cover every verb and every error path of the interpreter.
var builtinSeeds = []string{
	"",
	"# comment only",
	"atomic int 4 4",
	"ATOMICO char 1 2",
	"atomic zero 0 1",
	"atomic big 18446744073709551616 1",
	"atomic neg -1 1",
	"atomic max 9223372036854775807 1\nstruct twice max max",
	"atomic p 1 9223372036854775783\natomic q 1 9223372036854775643\nunion pq p q",
	"struct s char int",
	"struct empty",
	"union u int s",
	"describe s",
	"describir nada",
	"list",
	"listar extra",
	"exit now",
	"frobnicate",
	"atomic int 4",
	"atomic int 4 4 4",
	"atómico x 1 1",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range builtinSeeds {
		f.Add([]byte(s))
	}
	addScriptSeeds(f)
}

// addScriptSeeds adds every *.tsim script under testdata, whole and line
// by line.
func addScriptSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".tsim" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		sc := bufio.NewScanner(bytes.NewReader(src))
		for sc.Scan() {
			f.Add(clampSeed(sc.Bytes()))
		}
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
