// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL

package relation

// Tuple is a validated relation edge: user_expr -> relation -> object.
// Construction goes through NewTuple, which rejects ill-typed combinations
// against the schema, so a Tuple value in hand is always well-typed.
type Tuple struct {
	User     UserExpr
	Relation string
	Object   Ref
}

// NewTuple validates (object.Type, relation, user) against the schema
// before returning a Tuple, approximating the source's compile-time-checked
// Tuple<R, U> constructor with a runtime check plus test coverage.
func NewTuple(user UserExpr, relationName string, object Ref) (Tuple, error) {
	if err := Validate(object.Type, relationName, user); err != nil {
		return Tuple{}, err
	}

	return Tuple{User: user, Relation: relationName, Object: object}, nil
}

// Values renders the tuple as the (user, relation, object) wire strings the
// transport client expects.
func (t Tuple) Values() (string, string, string) {
	return t.User.String(), t.Relation, t.Object.String()
}

// Check is a typed question dual to Tuple: does User hold Relation on some
// object. It reuses the same validation so an ill-typed Check cannot be
// constructed either.
type Check struct {
	User     UserExpr
	Relation string
	Object   Ref
}

func NewCheck(user UserExpr, relationName string, object Ref) (Check, error) {
	if err := Validate(object.Type, relationName, user); err != nil {
		return Check{}, err
	}

	return Check{User: user, Relation: relationName, Object: object}, nil
}

func (c Check) Values() (string, string, string) {
	return c.User.String(), c.Relation, c.Object.String()
}

// QueryObjects asks "which objects of Type does User hold Relation on".
type QueryObjects struct {
	User       UserExpr
	Relation   string
	ObjectType ObjectType
}

func NewQueryObjects(user UserExpr, relationName string, objectType ObjectType) QueryObjects {
	return QueryObjects{User: user, Relation: relationName, ObjectType: objectType}
}

// QueryUsers asks "which users hold Relation on Object".
type QueryUsers struct {
	Object   Ref
	Relation string
	UserType ObjectType
}

func NewQueryUsers(object Ref, relationName string, userType ObjectType) QueryUsers {
	return QueryUsers{Object: object, Relation: relationName, UserType: userType}
}

// QueryUsersets asks "which usersets (subjects reachable via TargetRelation
// on TargetType) hold Relation on Object".
type QueryUsersets struct {
	Object         Ref
	Relation       string
	TargetType     ObjectType
	TargetRelation string
}

func NewQueryUsersets(object Ref, relationName string, targetType ObjectType, targetRelation string) QueryUsersets {
	return QueryUsersets{Object: object, Relation: relationName, TargetType: targetType, TargetRelation: targetRelation}
}
