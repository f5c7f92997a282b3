// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL

package relation

import "fmt"

// relationDef declares a relation name on an object type and which user
// types (direct, userset, or wildcard) may sit on its subject side.
type relationDef struct {
	userTypes     map[ObjectType]bool
	allowUserset  map[ObjectType]bool
	allowWildcard map[ObjectType]bool
}

// schema is the railway domain's typed relation graph: for each object
// type, the relations it accepts and the user types valid on each.
var schema = map[ObjectType]map[string]relationDef{
	TypeInfra: {
		"reader": {
			userTypes:     map[ObjectType]bool{TypeUser: true},
			allowUserset:  map[ObjectType]bool{TypeGroup: true},
			allowWildcard: map[ObjectType]bool{TypeUser: true},
		},
		"writer": {
			userTypes:    map[ObjectType]bool{TypeUser: true},
			allowUserset: map[ObjectType]bool{TypeGroup: true},
		},
		"owner": {
			userTypes:    map[ObjectType]bool{TypeUser: true},
			allowUserset: map[ObjectType]bool{TypeGroup: true},
		},
	},
	TypeGroup: {
		"member": {
			userTypes: map[ObjectType]bool{TypeUser: true},
		},
	},
	TypeRole: {
		"assignee": {
			userTypes: map[ObjectType]bool{TypeUser: true},
		},
	},
}

// Validate rejects tuples whose subject type/shape is not declared for the
// given object type and relation. This is the runtime substitute for the
// compile-time-checked Tuple<R, U> constructors of the source schema.
func Validate(objectType ObjectType, relationName string, user UserExpr) error {
	relations, ok := schema[objectType]
	if !ok {
		return fmt.Errorf("relation: unknown object type %q", objectType)
	}

	def, ok := relations[relationName]
	if !ok {
		return fmt.Errorf("relation: object type %q has no relation %q", objectType, relationName)
	}

	switch u := user.(type) {
	case Ref:
		if !def.userTypes[u.Type] {
			return fmt.Errorf("relation: %s#%s does not accept direct user type %q", objectType, relationName, u.Type)
		}
	case Userset:
		if !def.allowUserset[u.Type] {
			return fmt.Errorf("relation: %s#%s does not accept userset of type %q", objectType, relationName, u.Type)
		}
	case Wildcard:
		if !def.allowWildcard[u.Type] {
			return fmt.Errorf("relation: %s#%s does not accept a wildcard of type %q", objectType, relationName, u.Type)
		}
	default:
		return fmt.Errorf("relation: unsupported user expression %T", user)
	}

	return nil
}
