// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL

package relation

import (
	"fmt"
	"strings"
)

// Must parses a literal tuple expression of the form
//
//	infra:"france"#reader@user:"alice"
//	infra:"france"#reader@group:"company"#member
//	infra:"espagne"#reader@user:*
//
// into a validated Tuple, panicking on malformed input. It exists for tests
// and fixtures where a terse notation reads better than nested constructors;
// production code should prefer NewTuple directly.
func Must(expr string) Tuple {
	t, err := Parse(expr)
	if err != nil {
		panic(fmt.Sprintf("relation: invalid literal %q: %v", expr, err))
	}
	return t
}

// Parse is the fallible counterpart to Must.
func Parse(expr string) (Tuple, error) {
	objectRelation, userPart, ok := strings.Cut(expr, "@")
	if !ok {
		return Tuple{}, fmt.Errorf("relation: missing '@' in %q", expr)
	}

	object, relationName, ok := strings.Cut(objectRelation, "#")
	if !ok {
		return Tuple{}, fmt.Errorf("relation: missing '#' in %q", expr)
	}

	objectRef, err := parseRef(object)
	if err != nil {
		return Tuple{}, err
	}

	user, err := parseUserExpr(userPart)
	if err != nil {
		return Tuple{}, err
	}

	return NewTuple(user, relationName, objectRef)
}

func parseRef(s string) (Ref, error) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok {
		return Ref{}, fmt.Errorf("relation: missing ':' in %q", s)
	}
	return NewRef(ObjectType(typ), strings.Trim(id, `"`)), nil
}

func parseUserExpr(s string) (UserExpr, error) {
	if strings.HasSuffix(s, ":*") {
		return NewWildcard(ObjectType(strings.TrimSuffix(s, ":*"))), nil
	}

	if idRel, hasHash := cutLast(s, "#"); hasHash {
		ref, err := parseRef(idRel.head)
		if err != nil {
			return nil, err
		}
		return NewUserset(ref.Type, ref.ID, idRel.tail), nil
	}

	return parseRef(s)
}

type splitResult struct {
	head string
	tail string
}

func cutLast(s, sep string) (splitResult, bool) {
	idx := strings.LastIndex(s, sep)
	if idx < 0 {
		return splitResult{}, false
	}
	return splitResult{head: s[:idx], tail: s[idx+len(sep):]}, true
}
