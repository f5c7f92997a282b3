// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL

package openfga

// Tuple is simply a wrapper around openfga TupleKey
// reason to have it is to hide underlying library complexity
// in case we want to swap it
type Tuple struct {
	User     string
	Relation string
	Object   string
}

func (t *Tuple) Values() (string, string, string) {
	return t.User, t.Relation, t.Object
}

func NewTuple(user, relation, object string) *Tuple {
	t := new(Tuple)

	t.User = user
	t.Relation = relation
	t.Object = object

	return t
}

// UserList is the result of ListUsers: the concrete users the server found,
// plus whether a type-bound wildcard also grants access to every user of
// that type.
type UserList struct {
	Users        []string
	PublicAccess bool
}

// CheckItem pairs a tuple with a correlation id. PreparedChecks does not use
// it: it builds client.ClientBatchCheckItem values directly.
type CheckItem struct {
	User     string
	Relation string
	Object   string

	correlationID string
}
