// Package session drives a type registry from text commands: the
// interactive loop, batch scripts, snapshots and definition files.
package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"typesim/internal/command"
	"typesim/internal/layout"
	"typesim/internal/logx"
	"typesim/internal/types"
)

// Options configures a Session.
type Options struct {
	// Prompt is written before each line read by Run. Empty disables it.
	Prompt string
	Color  bool
	// ShowOrdering adds the optimized member order to struct reports.
	ShowOrdering bool
}

// Session owns one registry and its layout engine.
type Session struct {
	reg    *types.Registry
	engine *layout.LayoutEngine
	opts   Options
	log    *zap.Logger
}

// New creates a session with an empty registry.
func New(opts Options) *Session {
	reg := types.NewRegistry()
	return &Session{
		reg:    reg,
		engine: layout.New(reg),
		opts:   opts,
		log:    logx.L("session"),
	}
}

// Registry returns the session's registry.
func (s *Session) Registry() *types.Registry { return s.reg }

// Engine returns the session's layout engine.
func (s *Session) Engine() *layout.LayoutEngine { return s.engine }

// Result is the outcome of one executed line.
type Result struct {
	Command command.Command
	// Report is set for describe.
	Report *layout.Report
	// Defs is set for list.
	Defs []types.Definition
	// Loaded counts definitions registered by load.
	Loaded int
	// Exit is set when the line asked to stop.
	Exit bool
}

// Exec parses and applies one line. Parse errors are *command.Error,
// registry errors *types.TypeError.
func (s *Session) Exec(line string) (Result, error) {
	cmd, err := command.Parse(line)
	if err != nil {
		return Result{}, err
	}
	res := Result{Command: cmd}

	switch cmd.Verb {
	case command.VerbNone:
		return res, nil

	case command.VerbExit:
		res.Exit = true
		return res, nil

	case command.VerbAtomic, command.VerbStruct, command.VerbUnion:
		v, _ := cmd.Variant()
		if err := s.reg.Register(cmd.Name, v); err != nil {
			s.log.Debug("register rejected", zap.String("type", cmd.Name), zap.Error(err))
			return res, err
		}
		s.log.Debug("registered", zap.String("type", cmd.Name), zap.Stringer("kind", v.Kind))
		return res, nil

	case command.VerbDescribe:
		rep, err := s.engine.Describe(cmd.Name)
		if err != nil {
			return res, err
		}
		res.Report = &rep
		return res, nil

	case command.VerbList:
		res.Defs = s.reg.Definitions()
		return res, nil

	case command.VerbSave:
		if err := s.SaveFile(cmd.Name); err != nil {
			return res, err
		}
		return res, nil

	case command.VerbLoad:
		n, err := s.LoadFile(cmd.Name)
		res.Loaded = n
		return res, err
	}
	return res, fmt.Errorf("unhandled verb %v", cmd.Verb)
}

// LoadFile loads a TOML definition file (.toml) or a snapshot (anything
// else) and returns how many types were registered.
func (s *Session) LoadFile(path string) (int, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return s.LoadDefinitionsFile(path)
	}
	return s.LoadSnapshotFile(path)
}

// apply registers defs all-or-nothing: they are first replayed against a
// scratch registry holding the current definitions, and only registered
// for real when every one of them validates.
func (s *Session) apply(defs []types.Definition, describe func(i int) string) (int, error) {
	scratch := types.NewRegistry()
	for _, d := range s.reg.Definitions() {
		if err := scratch.Register(d.Name, d.Variant); err != nil {
			return 0, fmt.Errorf("copy registry: %w", err)
		}
	}
	for i, d := range defs {
		if err := scratch.Register(d.Name, d.Variant); err != nil {
			return 0, fmt.Errorf("%s: %w", describe(i), err)
		}
	}
	for i, d := range defs {
		if err := s.reg.Register(d.Name, d.Variant); err != nil {
			// only reachable if the registry changed concurrently
			return i, fmt.Errorf("%s: %w", describe(i), err)
		}
	}
	s.log.Debug("definitions applied", zap.Int("count", len(defs)))
	return len(defs), nil
}

// IsTypeError reports whether err comes from registry validation.
func IsTypeError(err error) bool {
	var te *types.TypeError
	return errors.As(err, &te)
}
