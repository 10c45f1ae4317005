package types

import (
	"fmt"
	"slices"
)

// Kind enumerates the shapes a type definition can take.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindAtomic
	KindStruct
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindAtomic:
		return "atomic"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ParseKind converts a lowercase kind name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "atomic":
		return KindAtomic, nil
	case "struct":
		return KindStruct, nil
	case "union":
		return KindUnion, nil
	default:
		return KindInvalid, fmt.Errorf("invalid type kind: %q (expected: atomic|struct|union)", s)
	}
}

// Atomic is a leaf type with a stored size and alignment, both in bytes.
type Atomic struct {
	Size  int
	Align int
}

// Struct lays its members out sequentially. Member order matters and a
// name may appear more than once.
type Struct struct {
	Members []string
}

// Union holds mutually exclusive alternatives.
type Union struct {
	Variants []string
}

// Variant is a type definition. Exactly one of Atomic, Struct or Union is
// set, matching Kind. Members and variants refer to other definitions by
// name only.
type Variant struct {
	Kind   Kind
	Atomic *Atomic
	Struct *Struct
	Union  *Union
}

// NewAtomic builds an atomic variant.
func NewAtomic(size, align int) Variant {
	return Variant{Kind: KindAtomic, Atomic: &Atomic{Size: size, Align: align}}
}

// NewStruct builds a struct variant over the given member type names.
func NewStruct(members ...string) Variant {
	return Variant{Kind: KindStruct, Struct: &Struct{Members: slices.Clone(members)}}
}

// NewUnion builds a union variant over the given alternative type names.
func NewUnion(variants ...string) Variant {
	return Variant{Kind: KindUnion, Union: &Union{Variants: slices.Clone(variants)}}
}

// Refs returns the names a compound variant references, in declaration
// order. Atomic variants reference nothing.
func (v Variant) Refs() []string {
	switch v.Kind {
	case KindStruct:
		if v.Struct != nil {
			return v.Struct.Members
		}
	case KindUnion:
		if v.Union != nil {
			return v.Union.Variants
		}
	}
	return nil
}

// Clone returns a deep copy of v.
func (v Variant) Clone() Variant {
	out := Variant{Kind: v.Kind}
	if v.Atomic != nil {
		a := *v.Atomic
		out.Atomic = &a
	}
	if v.Struct != nil {
		out.Struct = &Struct{Members: slices.Clone(v.Struct.Members)}
	}
	if v.Union != nil {
		out.Union = &Union{Variants: slices.Clone(v.Union.Variants)}
	}
	return out
}

// Valid reports whether the payload pointer matching Kind is present.
func (v Variant) Valid() bool {
	switch v.Kind {
	case KindAtomic:
		return v.Atomic != nil
	case KindStruct:
		return v.Struct != nil
	case KindUnion:
		return v.Union != nil
	default:
		return false
	}
}
