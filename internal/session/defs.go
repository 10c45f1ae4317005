package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"typesim/internal/types"
)

// DefinitionFile is the TOML form of a batch of type definitions:
//
//	[[type]]
//	name = "int"
//	kind = "atomic"
//	size = 4
//	align = 4
//
//	[[type]]
//	name = "pair"
//	kind = "struct"
//	members = ["int", "int"]
type DefinitionFile struct {
	Types []DefinitionEntry `toml:"type"`
}

// DefinitionEntry is one [[type]] table.
type DefinitionEntry struct {
	Name    string   `toml:"name"`
	Kind    string   `toml:"kind"`
	Size    int64    `toml:"size"`
	Align   int64    `toml:"align"`
	Members []string `toml:"members"`
}

func (e DefinitionEntry) definition() (types.Definition, error) {
	if strings.TrimSpace(e.Name) == "" {
		return types.Definition{}, errors.New("missing name")
	}
	kind, err := types.ParseKind(e.Kind)
	if err != nil {
		return types.Definition{}, err
	}
	var v types.Variant
	switch kind {
	case types.KindAtomic:
		if len(e.Members) > 0 {
			return types.Definition{}, errors.New("atomic types take no members")
		}
		size, err := safecast.Conv[int](e.Size)
		if err != nil {
			return types.Definition{}, fmt.Errorf("size: %w", err)
		}
		align, err := safecast.Conv[int](e.Align)
		if err != nil {
			return types.Definition{}, fmt.Errorf("align: %w", err)
		}
		if size < 0 || align < 0 {
			return types.Definition{}, errors.New("size and align must not be negative")
		}
		v = types.NewAtomic(size, align)
	case types.KindStruct, types.KindUnion:
		if e.Size != 0 || e.Align != 0 {
			return types.Definition{}, fmt.Errorf("%s types take no size or align", kind)
		}
		if kind == types.KindStruct {
			v = types.NewStruct(e.Members...)
		} else {
			v = types.NewUnion(e.Members...)
		}
	}
	return types.Definition{Name: e.Name, Variant: v}, nil
}

// ParseDefinitions decodes a definition file. Unknown keys are errors.
func ParseDefinitions(r io.Reader) ([]types.Definition, error) {
	var file DefinitionFile
	meta, err := toml.NewDecoder(r).Decode(&file)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	defs := make([]types.Definition, 0, len(file.Types))
	for i, e := range file.Types {
		d, err := e.definition()
		if err != nil {
			return nil, fmt.Errorf("type[%d] %q: %w", i, e.Name, err)
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// LoadDefinitions registers every type in r, in file order. Nothing is
// registered unless the whole file validates.
func (s *Session) LoadDefinitions(r io.Reader) (int, error) {
	defs, err := ParseDefinitions(r)
	if err != nil {
		return 0, err
	}
	return s.apply(defs, func(i int) string {
		return fmt.Sprintf("type[%d] %q", i, defs[i].Name)
	})
}

// LoadDefinitionsFile loads the definition file at path.
func (s *Session) LoadDefinitionsFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := s.LoadDefinitions(f)
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}
	s.log.Debug("definitions loaded", zap.String("path", path), zap.Int("types", n))
	return n, nil
}
