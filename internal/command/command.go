// Package command turns one line of user input into a Command.
//
// A line is a verb followed by whitespace-separated arguments:
//
//	atomic  NAME SIZE ALIGN
//	struct  NAME TYPE...
//	union   NAME TYPE...
//	describe NAME
//	list
//	save PATH
//	load PATH
//	exit
//
// Verbs are case-insensitive and also accepted in their Spanish form
// (atomico, describir, listar, guardar, cargar, salir). Text after '#' is
// a comment.
package command

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/text/cases"

	"typesim/internal/types"
)

// Verb identifies the action of a command.
type Verb uint8

const (
	// VerbNone is produced by blank and comment-only lines.
	VerbNone Verb = iota
	VerbAtomic
	VerbStruct
	VerbUnion
	VerbDescribe
	VerbList
	VerbSave
	VerbLoad
	VerbExit
)

func (v Verb) String() string {
	switch v {
	case VerbNone:
		return "none"
	case VerbAtomic:
		return "atomic"
	case VerbStruct:
		return "struct"
	case VerbUnion:
		return "union"
	case VerbDescribe:
		return "describe"
	case VerbList:
		return "list"
	case VerbSave:
		return "save"
	case VerbLoad:
		return "load"
	case VerbExit:
		return "exit"
	default:
		return fmt.Sprintf("Verb(%d)", v)
	}
}

var verbs = map[string]Verb{
	"atomic":    VerbAtomic,
	"atomico":   VerbAtomic,
	"atómico":   VerbAtomic,
	"struct":    VerbStruct,
	"union":     VerbUnion,
	"describe":  VerbDescribe,
	"describir": VerbDescribe,
	"list":      VerbList,
	"listar":    VerbList,
	"save":      VerbSave,
	"guardar":   VerbSave,
	"load":      VerbLoad,
	"cargar":    VerbLoad,
	"exit":      VerbExit,
	"quit":      VerbExit,
	"salir":     VerbExit,
}

// Command is a parsed input line.
type Command struct {
	Verb Verb
	// Type name, or the file path for VerbSave and VerbLoad.
	Name string

	// VerbAtomic only.
	Size  int
	Align int

	// VerbStruct and VerbUnion: referenced type names, possibly empty.
	Members []string
}

// Variant builds the type definition a defining command describes.
// ok is false for verbs that do not define a type.
func (c Command) Variant() (types.Variant, bool) {
	switch c.Verb {
	case VerbAtomic:
		return types.NewAtomic(c.Size, c.Align), true
	case VerbStruct:
		return types.NewStruct(c.Members...), true
	case VerbUnion:
		return types.NewUnion(c.Members...), true
	default:
		return types.Variant{}, false
	}
}

// space matches the characters unicode.IsSpace accepts, the same set
// strings.TrimSpace strips in isBlank.
const space = `\s\v\x{85}\p{Z}`

var (
	commandLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[` + space + `]+`},
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "Word", Pattern: `[^` + space + `#]+`},
	})

	lineParser = participle.MustBuild[line](
		participle.Lexer(commandLexer),
		participle.Elide("Whitespace", "Comment"),
	)

	folder = cases.Fold()
)

type line struct {
	Verb *token   `parser:"@@"`
	Args []*token `parser:"@@*"`
}

type token struct {
	Pos  lexer.Position
	Text string `parser:"@Word"`
}

// Parse parses a single input line.
func Parse(input string) (Command, error) {
	if isBlank(input) {
		return Command{Verb: VerbNone}, nil
	}
	ast, err := lineParser.ParseString("", input)
	if err != nil {
		return Command{}, &Error{Kind: ErrSyntax, Token: input, Err: err}
	}

	verbText := folder.String(ast.Verb.Text)
	verb, ok := verbs[verbText]
	if !ok {
		return Command{}, &Error{Kind: ErrInvalidAction, Token: ast.Verb.Text, Column: ast.Verb.Pos.Column}
	}

	args := ast.Args
	switch verb {
	case VerbExit, VerbList:
		if len(args) > 0 {
			return Command{}, tooMany(args[0])
		}
		return Command{Verb: verb}, nil

	case VerbDescribe, VerbSave, VerbLoad:
		if len(args) == 0 {
			return Command{}, &Error{Kind: ErrNotEnoughArgs}
		}
		if len(args) > 1 {
			return Command{}, tooMany(args[1])
		}
		return Command{Verb: verb, Name: args[0].Text}, nil

	case VerbStruct, VerbUnion:
		if len(args) == 0 {
			return Command{}, &Error{Kind: ErrNotEnoughArgs}
		}
		members := make([]string, 0, len(args)-1)
		for _, a := range args[1:] {
			members = append(members, a.Text)
		}
		return Command{Verb: verb, Name: args[0].Text, Members: members}, nil

	case VerbAtomic:
		if len(args) < 3 {
			return Command{}, &Error{Kind: ErrNotEnoughArgs}
		}
		if len(args) > 3 {
			return Command{}, tooMany(args[3])
		}
		size, err := parseCount(args[1])
		if err != nil {
			return Command{}, err
		}
		align, err := parseCount(args[2])
		if err != nil {
			return Command{}, err
		}
		return Command{Verb: verb, Name: args[0].Text, Size: size, Align: align}, nil
	}
	return Command{}, &Error{Kind: ErrInvalidAction, Token: ast.Verb.Text, Column: ast.Verb.Pos.Column}
}

// parseCount accepts an unsigned decimal that fits in an int. Zero is
// allowed here; the registry rejects it with a type error.
func parseCount(t *token) (int, error) {
	u, err := strconv.ParseUint(t.Text, 10, 64)
	if err != nil {
		return 0, &Error{Kind: ErrInvalidArgument, Token: t.Text, Column: t.Pos.Column, Err: err}
	}
	n, err := safecast.Conv[int](u)
	if err != nil {
		return 0, &Error{Kind: ErrInvalidArgument, Token: t.Text, Column: t.Pos.Column, Err: err}
	}
	return n, nil
}

func isBlank(input string) bool {
	if i := strings.IndexByte(input, '#'); i >= 0 {
		input = input[:i]
	}
	return strings.TrimSpace(input) == ""
}

func tooMany(t *token) *Error {
	return &Error{Kind: ErrTooManyArgs, Token: t.Text, Column: t.Pos.Column}
}
