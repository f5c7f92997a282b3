// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL

// Package relation implements the typed relation graph: object/user types,
// relation names, and tuple/check/query constructors validated against a
// static schema. Go has no macros, so well-typedness is enforced at
// construction time rather than at compile time — invalid tuples fail to
// construct instead of failing to compile (see internal/relation/schema.go).
package relation

import "fmt"

// ObjectType names a node type in the relation graph.
type ObjectType string

const (
	TypeUser  ObjectType = "user"
	TypeGroup ObjectType = "group"
	TypeRole  ObjectType = "role"
	TypeInfra ObjectType = "infra"
)

// Ref is a typed reference to a concrete object, e.g. infra:"france".
type Ref struct {
	Type ObjectType
	ID   string
}

func NewRef(t ObjectType, id string) Ref {
	return Ref{Type: t, ID: id}
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%s", r.Type, r.ID)
}

// Userset is a typed reference to all subjects reachable via a relation on
// another object, e.g. group:"company"#member.
type Userset struct {
	Type     ObjectType
	ID       string
	Relation string
}

func NewUserset(t ObjectType, id, relation string) Userset {
	return Userset{Type: t, ID: id, Relation: relation}
}

func (u Userset) String() string {
	return fmt.Sprintf("%s:%s#%s", u.Type, u.ID, u.Relation)
}

// Wildcard denotes every subject of a type, e.g. user:*.
type Wildcard struct {
	Type ObjectType
}

func NewWildcard(t ObjectType) Wildcard {
	return Wildcard{Type: t}
}

func (w Wildcard) String() string {
	return fmt.Sprintf("%s:*", w.Type)
}

// UserExpr is any value that can appear on the subject side of a tuple.
type UserExpr interface {
	String() string
}

var (
	_ UserExpr = Ref{}
	_ UserExpr = Userset{}
	_ UserExpr = Wildcard{}
)
