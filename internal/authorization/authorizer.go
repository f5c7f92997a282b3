// Copyright 2024 Canonical Ltd
// SPDX-License-Identifier: AGPL

// Package authorization computes and enforces effective access on infra
// resources from the typed relation graph: direct grants, group-inherited
// grants, and the role assignments gating impersonation and administrative
// operations.
package authorization

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/canonical/identity-platform-admin-ui/internal/logging"
	"github.com/canonical/identity-platform-admin-ui/internal/monitoring"
	"github.com/canonical/identity-platform-admin-ui/internal/openfga"
	"github.com/canonical/identity-platform-admin-ui/internal/pool"
	"github.com/canonical/identity-platform-admin-ui/internal/relation"
	"github.com/canonical/identity-platform-admin-ui/internal/tracing"
)

var ErrInvalidAuthModel = fmt.Errorf("invalid authorization model schema")

// ladder is every rung checked when computing an effective grant, ordered
// so the fan-out below can fold results with Max without caring which
// rung answered first.
var ladder = []Grant{Reader, Writer, Owner}

// Authorizer is a per-principal, per-request facade bound to a single
// subject for its whole lifetime: every self-referential method below
// (InfraGrant, UserRoles, CheckRole, ...) answers a question about that
// subject. Methods that act on a different subject — a grantee, a
// delegation target, a bootstrap role assignee — take it explicitly. The
// subject's role set is resolved at most once per Authorizer and memoized,
// since several callers within a single request (whoami, the impersonation
// gate, a role-gated handler) may each ask for it.
type Authorizer struct {
	client AuthzClientInterface

	wpool pool.WorkerPoolInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface

	user relation.UserExpr

	rolesOnce sync.Once
	roles     []string
	rolesErr  error
}

// NewAuthorizer builds an Authorizer bound to user. Construction sites with
// no real "current user" — model validation at startup, the bootstrap CLI's
// arbitrary-target admin grant — may pass nil; every method that relies on
// the bound subject is simply never called from those call sites.
func NewAuthorizer(user relation.UserExpr, client AuthzClientInterface, wpool pool.WorkerPoolInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Authorizer {
	a := new(Authorizer)

	a.user = user
	a.client = client
	a.wpool = wpool
	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}

// InfraGrant reports the bound subject's direct grant on infra: the highest
// rung of Reader/Writer/Owner for which a literal tuple was written to this
// subject, ignoring anything reached through group membership or the
// model's rung-union relations. Use EffectiveInfraGrant to answer "what can
// this subject actually do", InfraGrant to answer "what was this subject
// directly granted".
func (a *Authorizer) InfraGrant(ctx context.Context, infra string) (Grant, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.InfraGrant")
	defer span.End()

	object := relation.NewRef(relation.TypeInfra, infra)

	direct := NoGrant
	for _, grant := range ladder {
		tuple, err := relation.NewTuple(a.user, grant.relationName(), object)
		if err != nil {
			return NoGrant, err
		}
		u, rel, obj := tuple.Values()

		exists, err := a.client.TupleExists(ctx, *openfga.NewTuple(u, rel, obj))
		if err != nil {
			return NoGrant, err
		}
		if exists {
			direct = Max(direct, grant)
		}
	}

	return direct, nil
}

// InfraGrantsBatch resolves the bound subject's direct grant on every id in
// infraIDs with a round-trip count bounded by the subject's total tuple
// count, not by len(infraIDs): per-rung TupleExists calls (as InfraGrant
// uses) cannot ride the tuple store's batch-check endpoint without changing
// "direct" to "effective" semantics (batch-check evaluates through the
// model's group/rung unions), so this instead paginates once over every
// tuple naming the subject via ReadTuples and folds the requested ids in
// memory.
func (a *Authorizer) InfraGrantsBatch(ctx context.Context, infraIDs []string) (map[string]Grant, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.InfraGrantsBatch")
	defer span.End()

	out := make(map[string]Grant, len(infraIDs))
	if len(infraIDs) == 0 {
		return out, nil
	}

	wanted := make(map[string]bool, len(infraIDs))
	for _, id := range infraIDs {
		wanted[id] = true
	}

	infraPrefix := string(relation.TypeInfra) + ":"
	token := ""
	for {
		resp, err := a.client.ReadTuples(ctx, a.user.String(), "", "", token)
		if err != nil {
			return nil, err
		}

		for _, t := range resp.GetTuples() {
			object := t.Key.Object
			if !strings.HasPrefix(object, infraPrefix) {
				continue
			}
			id := strings.TrimPrefix(object, infraPrefix)
			if !wanted[id] {
				continue
			}

			grant, ok := grantForRelationName(t.Key.Relation)
			if !ok {
				continue
			}
			if existing, seen := out[id]; !seen || grant > existing {
				out[id] = grant
			}
		}

		next := resp.GetContinuationToken()
		if next == "" {
			return out, nil
		}
		token = next
	}
}

func grantForRelationName(name string) (Grant, bool) {
	for _, g := range ladder {
		if g.relationName() == name {
			return g, true
		}
	}
	return NoGrant, false
}

// EffectiveInfraGrant computes the subject's effective grant on infra: the
// highest rung of Reader/Writer/Owner for which a Check succeeds, including
// anything reached through group membership or a lower rung's union into a
// higher one, fanned out concurrently across the worker pool since the
// three checks are independent reads.
func (a *Authorizer) EffectiveInfraGrant(ctx context.Context, infra string) (Grant, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.EffectiveInfraGrant")
	defer span.End()

	object := relation.NewRef(relation.TypeInfra, infra).String()

	resultsCh := make(chan *pool.Result[any], len(ladder))
	var wg sync.WaitGroup
	wg.Add(len(ladder))

	for _, grant := range ladder {
		grant := grant
		job := func() any {
			allowed, err := a.client.Check(ctx, a.user.String(), grant.relationName(), object)
			return gradeResult{grant: grant, allowed: allowed, err: err}
		}

		if _, err := a.wpool.Submit(job, resultsCh, &wg); err != nil {
			wg.Done()
			a.logger.Errorf("issues submitting grant check: %s", err)
		}
	}

	wg.Wait()
	close(resultsCh)

	effective := NoGrant
	var firstErr error
	for r := range resultsCh {
		gr := r.Value.(gradeResult)
		if gr.err != nil {
			if firstErr == nil {
				firstErr = gr.err
			}
			continue
		}
		if gr.allowed {
			effective = Max(effective, gr.grant)
		}
	}

	if firstErr != nil {
		return NoGrant, firstErr
	}

	return effective, nil
}

type gradeResult struct {
	grant   Grant
	allowed bool
	err     error
}

func (a *Authorizer) InfraPrivileges(ctx context.Context, infra string) (InfraPrivilegeSet, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.InfraPrivileges")
	defer span.End()

	grant, err := a.EffectiveInfraGrant(ctx, infra)
	if err != nil {
		return 0, err
	}

	return privilegesFor(grant), nil
}

// InfraPrivilegesBatch resolves the effective privilege set for every id in
// infraIDs by queuing one PreparedChecks tuple per id per rung (3 per id)
// into a single batch, which the client sends as one BatchCheck call per
// maxChecksPerBatchCheck-sized chunk, and folding the per-rung results back
// into a privilege set per id.
func (a *Authorizer) InfraPrivilegesBatch(ctx context.Context, infraIDs []string) (map[string]InfraPrivilegeSet, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.InfraPrivilegesBatch")
	defer span.End()

	out := make(map[string]InfraPrivilegeSet, len(infraIDs))
	if len(infraIDs) == 0 {
		return out, nil
	}

	grants := make(map[string]Grant, len(infraIDs))
	for _, id := range infraIDs {
		grants[id] = NoGrant
	}

	checks := a.client.PreparedChecks()
	// order is id-major, rung-minor, so the flat result slice can be walked
	// back in the same two nested loops it was built in.
	for _, id := range infraIDs {
		object := relation.NewRef(relation.TypeInfra, id)
		for _, grant := range ladder {
			tuple, err := relation.NewTuple(a.user, grant.relationName(), object)
			if err != nil {
				return nil, err
			}
			checks.Add(tuple)
		}
	}

	results, err := checks.Execute(ctx)
	if err != nil {
		return nil, err
	}

	i := 0
	for _, id := range infraIDs {
		for _, grant := range ladder {
			res := results[i]
			i++
			if res.Err != nil {
				return nil, res.Err
			}
			if res.Allowed {
				grants[id] = Max(grants[id], grant)
			}
		}
	}

	for id, grant := range grants {
		out[id] = privilegesFor(grant)
	}

	return out, nil
}

func (a *Authorizer) AuthorizeInfra(ctx context.Context, infra string, required InfraPrivilege) (Decision, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.AuthorizeInfra")
	defer span.End()

	privileges, err := a.InfraPrivileges(ctx, infra)
	if err != nil {
		return Decision{}, err
	}

	if !privileges.Has(required) {
		return Denied(fmt.Sprintf("%s lacks the required privilege on %s", a.user, infra)), nil
	}

	return Allowed(), nil
}

// ListAuthorizedInfra lists every infra object the subject holds at least
// minimum on, by listing the objects reachable through that rung's
// relation directly — callers asking for Reader also see infra the subject
// only reaches through Writer/Owner, since those relations union into
// reader in the authorization model. The result is three-valued rather than
// a plain slice-or-error: a client failure is folded into DeniedValue rather
// than propagated as a Go error, so callers always get a single value to
// render and cannot forget to check the error before using the list.
// Bypassed is never produced here — it requires a principal with no bound
// Authorizer at all, which callers detect before ever reaching this method.
func (a *Authorizer) ListAuthorizedInfra(ctx context.Context, minimum Grant) Authorization[[]string] {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.ListAuthorizedInfra")
	defer span.End()

	infraIDs, err := a.client.ListObjects(ctx, a.user.String(), minimum.relationName(), string(relation.TypeInfra))
	if err != nil {
		return DeniedValue[[]string](err.Error())
	}

	return Granted(infraIDs)
}

// SubjectsWithGrant reports, for every user the tuple store lists on one of
// infra's reader/writer/owner relations, the highest rung held, keyed by the
// bare user id (without the "user:" type prefix). Only users are listed:
// groups holding a grant through a group#member userset are not reported.
func (a *Authorizer) SubjectsWithGrant(ctx context.Context, infra string) (map[string]Grant, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.SubjectsWithGrant")
	defer span.End()

	object := relation.NewRef(relation.TypeInfra, infra).String()

	resultsCh := make(chan *pool.Result[any], len(ladder))
	var wg sync.WaitGroup
	wg.Add(len(ladder))

	for _, grant := range ladder {
		grant := grant
		job := func() any {
			users, err := a.client.ListUsers(ctx, object, grant.relationName(), string(relation.TypeUser))
			return subjectsResult{grant: grant, users: users, err: err}
		}

		if _, err := a.wpool.Submit(job, resultsCh, &wg); err != nil {
			wg.Done()
			a.logger.Errorf("issues submitting subjects-with-grant fetch: %s", err)
		}
	}

	wg.Wait()
	close(resultsCh)

	out := make(map[string]Grant)
	var firstErr error
	for r := range resultsCh {
		sr := r.Value.(subjectsResult)
		if sr.err != nil {
			if firstErr == nil {
				firstErr = sr.err
			}
			continue
		}
		// Last-writer-wins across rungs would be wrong; a subject directly
		// checked at a lower rung must not downgrade one already recorded
		// at a higher rung from an earlier-processed result.
		for _, u := range sr.users.Users {
			id := strings.TrimPrefix(u, string(relation.TypeUser)+":")
			if existing, ok := out[id]; !ok || sr.grant > existing {
				out[id] = sr.grant
			}
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}

	return out, nil
}

type subjectsResult struct {
	grant Grant
	users openfga.UserList
	err   error
}

// GiveInfraGrant delegates level on infra to grantee, after checking that
// the bound subject holds the privilege required to share that level.
func (a *Authorizer) GiveInfraGrant(ctx context.Context, grantee relation.UserExpr, infra string, level Grant) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.GiveInfraGrant")
	defer span.End()

	decision, err := a.AuthorizeInfra(ctx, infra, requiredToShare(level))
	if err != nil {
		return err
	}
	if !decision.IsAllowed() {
		return fmt.Errorf("%s: %s", ErrForbiddenDelegation, decision.Reason())
	}

	return a.GiveInfraGrantUnchecked(ctx, grantee, infra, level)
}

var ErrForbiddenDelegation = fmt.Errorf("forbidden delegation")

// GiveInfraGrantUnchecked writes the grant tuple without checking the
// caller's own privileges, for the resource-creation path where the
// creator is made Owner of a resource that has no prior grants to check
// against.
func (a *Authorizer) GiveInfraGrantUnchecked(ctx context.Context, grantee relation.UserExpr, infra string, level Grant) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.GiveInfraGrantUnchecked")
	defer span.End()

	tuple, err := relation.NewTuple(grantee, level.relationName(), relation.NewRef(relation.TypeInfra, infra))
	if err != nil {
		return err
	}

	user, relationName, object := tuple.Values()

	return a.client.WriteTuples(ctx, *openfga.NewTuple(user, relationName, object))
}

// RevokeInfraGrants removes every grant rung the subject holds on infra.
func (a *Authorizer) RevokeInfraGrants(ctx context.Context, user relation.UserExpr, infra string) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.RevokeInfraGrants")
	defer span.End()

	tuples := make([]openfga.Tuple, 0, len(ladder))
	for _, grant := range ladder {
		t, err := relation.NewTuple(user, grant.relationName(), relation.NewRef(relation.TypeInfra, infra))
		if err != nil {
			return err
		}
		u, r, o := t.Values()
		tuples = append(tuples, *openfga.NewTuple(u, r, o))
	}

	return a.client.DeleteTuples(ctx, tuples...)
}

// UserRoles lists the role objects the bound subject is a direct assignee
// of. The result is resolved at most once per Authorizer and memoized,
// since whoami, the impersonation gate, and role-gated handlers may each
// ask for it within the same request.
func (a *Authorizer) UserRoles(ctx context.Context) ([]string, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.UserRoles")
	defer span.End()

	a.rolesOnce.Do(func() {
		a.roles, a.rolesErr = a.client.ListObjects(ctx, a.user.String(), "assignee", string(relation.TypeRole))
	})

	return a.roles, a.rolesErr
}

// CheckRole reports whether the bound subject is a direct assignee of role.
func (a *Authorizer) CheckRole(ctx context.Context, role string) (bool, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.CheckRole")
	defer span.End()

	roles, err := a.UserRoles(ctx)
	if err != nil {
		return false, err
	}

	for _, r := range roles {
		if r == role {
			return true, nil
		}
	}

	return false, nil
}

// CheckRoles reports whether the bound subject is a direct assignee of
// every role named in required: required ⊆ user_roles().
func (a *Authorizer) CheckRoles(ctx context.Context, required []string) (bool, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.CheckRoles")
	defer span.End()

	roles, err := a.UserRoles(ctx)
	if err != nil {
		return false, err
	}

	held := make(map[string]bool, len(roles))
	for _, r := range roles {
		held[r] = true
	}

	for _, role := range required {
		if !held[role] {
			return false, nil
		}
	}

	return true, nil
}

// AssignRole writes the assignee tuple without checking the caller's own
// privileges, used by the bootstrap CLI to grant the first admin before any
// admin exists to grant it through the HTTP API.
func (a *Authorizer) AssignRole(ctx context.Context, user relation.UserExpr, role string) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.AssignRole")
	defer span.End()

	tuple, err := relation.NewTuple(user, "assignee", relation.NewRef(relation.TypeRole, role))
	if err != nil {
		return err
	}

	u, relationName, object := tuple.Values()

	return a.client.WriteTuples(ctx, *openfga.NewTuple(u, relationName, object))
}

// RevokeRole removes the assignee tuple, used by the bootstrap CLI.
func (a *Authorizer) RevokeRole(ctx context.Context, user relation.UserExpr, role string) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.RevokeRole")
	defer span.End()

	tuple, err := relation.NewTuple(user, "assignee", relation.NewRef(relation.TypeRole, role))
	if err != nil {
		return err
	}

	u, relationName, object := tuple.Values()

	return a.client.DeleteTuples(ctx, *openfga.NewTuple(u, relationName, object))
}

func (a *Authorizer) ValidateModel(ctx context.Context) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.ValidateModel")
	defer span.End()

	eq, err := a.client.CompareModel(ctx, AuthModel)
	if err != nil {
		return err
	}
	if !eq {
		return ErrInvalidAuthModel
	}

	return nil
}
