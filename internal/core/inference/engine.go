// Copyright 2025 The InfeRDF Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package inference implements the saturation engine: incremental
// semi-naive closure of the dataset under a compiled rule set, with
// equality merging, non-equality tracking, locked properties, and
// conflict detection.
//
// Saturation proceeds in rounds over a pair of delta buffers. A round
// pins each new fact into each rule body in turn and collects the
// resulting head instantiations; the collected actions are applied at
// the round boundary, non-equalities before fact assertions before
// merges. A merge rewrites the indexes and re-checks the locks itself;
// the facts it rewrites enter the delta flagged as rewrites and are
// skipped there, so a rewrite is never a premise.
//
// Universal rules run in a dedicated phase once the ordinary rules
// have stabilized, since their result quantifies over the whole
// graph. Each distinct binding of a universal rule's outer
// existential fires at most once, and locks the properties its head
// marks.
package inference

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"inferdf.dev/go/internal/core/dataset"
	"inferdf.dev/go/internal/core/interp"
	"inferdf.dev/go/internal/core/match"
	"inferdf.dev/go/rdf"
)

// DefaultMaxSteps bounds a saturation run when the config does not.
const DefaultMaxSteps = 1 << 20

// Config tunes a saturation engine.
type Config struct {
	// Logger receives debug traces of derivations and merges.
	Logger hclog.Logger
	// MaxSteps bounds the number of rule applications; 0 means
	// DefaultMaxSteps.
	MaxSteps int
}

// An Engine saturates a dataset under a rule set. It holds exclusive
// mutable access to the interpretation and dataset for its lifetime.
type Engine struct {
	in  *interp.Interpretation
	ds  *dataset.Dataset
	log hclog.Logger

	ordinary  []*Rule
	universal []*Rule

	maxSteps int
	steps    int

	deltaIn, deltaOut []delta

	locked    map[lockKey]interp.Resource
	fired     map[string]bool
	instances []Instance
}

type delta struct {
	gid     dataset.GraphID
	fact    uint32
	rewrite bool
}

type lockKey struct {
	gid      dataset.GraphID
	subject  interp.Resource
	property interp.Resource
}

// An Instance records one firing of a rule; the Inferred cause of a
// derived fact is an index into this table.
type Instance struct {
	Rule  string
	Graph dataset.GraphID
}

// New returns an engine over the given state and compiled rules.
func New(in *interp.Interpretation, ds *dataset.Dataset, rules []*Rule, cfg Config) *Engine {
	e := &Engine{
		in:       in,
		ds:       ds,
		log:      cfg.Logger,
		maxSteps: cfg.MaxSteps,
		locked:   map[lockKey]interp.Resource{},
		fired:    map[string]bool{},
	}
	if e.log == nil {
		e.log = hclog.NewNullLogger()
	}
	if e.maxSteps == 0 {
		e.maxSteps = DefaultMaxSteps
	}
	for _, r := range rules {
		if r.Universal {
			e.universal = append(e.universal, r)
		} else {
			e.ordinary = append(e.ordinary, r)
		}
	}
	return e
}

// Interpretation returns the engine's interpretation.
func (e *Engine) Interpretation() *interp.Interpretation { return e.in }

// Dataset returns the engine's dataset.
func (e *Engine) Dataset() *dataset.Dataset { return e.ds }

// Instances returns the rule instance table.
func (e *Engine) Instances() []Instance { return e.instances }

// LoadDocument interprets and asserts one input document. Blank node
// labels are scoped to the call.
func (e *Engine) LoadDocument(stmts []*rdf.Statement) error {
	blanks := map[string]interp.Resource{}
	resolve := func(t rdf.Term) (interp.Resource, error) {
		switch t.Kind {
		case rdf.Blank:
			r, ok := blanks[t.Value]
			if !ok {
				r = e.in.Anonymous()
				blanks[t.Value] = r
			}
			return r, nil
		case rdf.IRI, rdf.Literal:
			return e.in.Term(t), nil
		}
		return 0, fmt.Errorf("cannot interpret term of kind %d", t.Kind)
	}
	for _, st := range stmts {
		gid := dataset.DefaultGraph
		if st.Graph.Kind != rdf.Invalid {
			name, err := resolve(st.Graph)
			if err != nil {
				return err
			}
			gid = dataset.GraphID{Named: true, Name: name}
		}
		s, err := resolve(st.Subject)
		if err != nil {
			return err
		}
		p, err := resolve(st.Predicate)
		if err != nil {
			return err
		}
		o, err := resolve(st.Object)
		if err != nil {
			return err
		}
		_, err = e.Assert(gid, dataset.Positive, dataset.Triple{S: s, P: p, O: o},
			dataset.Cause{Kind: dataset.Stated, Value: uint32(st.Line)})
		if err != nil {
			return err
		}
	}
	return nil
}

// Assert inserts a signed triple, normalizing its positions and
// enforcing locked properties. Fresh facts enter the delta.
func (e *Engine) Assert(gid dataset.GraphID, sign dataset.Sign, t dataset.Triple, cause dataset.Cause) (bool, error) {
	t.S = e.in.Representative(t.S)
	t.P = e.in.Representative(t.P)
	t.O = e.in.Representative(t.O)
	if sign == dataset.Positive {
		if w, ok := e.locked[lockKey{gid: gid, subject: t.S, property: t.P}]; ok && w != t.O {
			return false, &ConflictLocked{Subject: t.S, Property: t.P, Object: t.O}
		}
	}
	g := e.ds.Graph(gid)
	id, fresh, err := g.Insert(dataset.Fact{Sign: sign, Triple: t, Cause: cause})
	if err != nil {
		return false, err
	}
	if fresh {
		e.deltaOut = append(e.deltaOut, delta{gid: gid, fact: id})
	}
	return fresh, nil
}

// Saturate runs rounds of semi-naive evaluation to a fixpoint,
// interleaved with the post-stabilization universal phase, until
// neither produces new facts.
func (e *Engine) Saturate() error {
	for {
		if err := e.stabilize(); err != nil {
			return err
		}
		progressed, err := e.universalPass()
		if err != nil {
			return err
		}
		if !progressed {
			return nil
		}
	}
}

// actions is the set of head effects collected during one round,
// applied in conflict-stable order: distinctions, then assertions,
// then merges.
type actions struct {
	distinct []action
	assert   []action
	equate   []action
}

type action struct {
	gid     dataset.GraphID
	sign    dataset.Sign
	s, p, o interp.Resource
	lock    bool
	inst    uint32
}

func (e *Engine) stabilize() error {
	for len(e.deltaOut) > 0 {
		e.deltaIn, e.deltaOut = e.deltaOut, e.deltaIn[:0]
		var acts actions
		for _, d := range e.deltaIn {
			if d.rewrite {
				// Merging cannot trigger a rule: merge has already
				// refreshed indexes and locks for rewrites.
				continue
			}
			for _, r := range e.ordinary {
				if err := e.collect(r, d, &acts); err != nil {
					return err
				}
			}
		}
		if _, err := e.apply(&acts); err != nil {
			return err
		}
	}
	return nil
}

// collect pins the delta fact into each triple atom of the rule body
// and gathers the head instantiations of every completed match.
func (e *Engine) collect(r *Rule, d delta, acts *actions) error {
	g := e.ds.Graph(d.gid)
	if !g.Alive(d.fact) {
		return nil
	}
	m := &match.Matcher{In: e.in, Graph: g}
	f := g.Fact(d.fact)

	gather := func(env *match.Env) error {
		if err := e.budget(); err != nil {
			return err
		}
		e.emitHead(r, d.gid, env, acts)
		return nil
	}

	for i, a := range r.Forall.Atoms {
		t, ok := a.(match.Triple)
		if !ok {
			continue
		}
		if t.Sign != f.Sign {
			continue
		}
		if !t.S.IsVar() && t.S.Resource() != f.Triple.S ||
			!t.P.IsVar() && t.P.Resource() != f.Triple.P ||
			!t.O.IsVar() && t.O.Resource() != f.Triple.O {
			continue
		}
		if err := m.MatchFrom(r.Forall, i, d.fact, gather); err != nil {
			return err
		}
	}
	if r.hasPath {
		for _, p := range r.pathPreds {
			if f.Triple.P == p && f.Sign == dataset.Positive {
				// A new edge can extend path closures anywhere in the
				// body; re-enumerate the rule in full.
				if err := m.Match(r.Forall, gather); err != nil {
					return err
				}
				break
			}
		}
	}
	return nil
}

// emitHead resolves the head atoms of r under env into actions.
func (e *Engine) emitHead(r *Rule, gid dataset.GraphID, env *match.Env, acts *actions) {
	inst := uint32(len(e.instances))
	e.instances = append(e.instances, Instance{Rule: r.Name, Graph: gid})
	resolve := func(t match.Term) interp.Resource {
		if t.IsVar() {
			return env.Value(t.Slot())
		}
		return t.Resource()
	}
	for _, h := range r.Head {
		a := action{gid: gid, sign: h.Sign, lock: h.Lock, inst: inst}
		switch h.Kind {
		case HeadAssert:
			a.s, a.p, a.o = resolve(h.S), resolve(h.P), resolve(h.O)
			acts.assert = append(acts.assert, a)
		case HeadEquate:
			a.s, a.o = resolve(h.S), resolve(h.O)
			acts.equate = append(acts.equate, a)
		case HeadDistinct:
			a.s, a.o = resolve(h.S), resolve(h.O)
			acts.distinct = append(acts.distinct, a)
		}
	}
}

// apply commits the collected actions and reports whether anything
// changed.
func (e *Engine) apply(acts *actions) (bool, error) {
	progressed := false
	for _, a := range acts.distinct {
		s, o := e.in.Representative(a.s), e.in.Representative(a.o)
		if e.in.NonEqual(s, o) {
			continue
		}
		if err := e.in.SetNonEqual(s, o); err != nil {
			return progressed, err
		}
		e.log.Debug("asserted non-equality", "a", s, "b", o)
		progressed = true
	}
	for _, a := range acts.assert {
		t := dataset.Triple{S: a.s, P: a.p, O: a.o}
		fresh, err := e.Assert(a.gid, a.sign, t, dataset.Cause{Kind: dataset.Inferred, Value: a.inst})
		if err != nil {
			return progressed, err
		}
		if fresh {
			progressed = true
			e.log.Debug("derived fact",
				"sign", a.sign.String(), "s", a.s, "p", a.p, "o", a.o, "instance", a.inst)
		}
		if a.lock {
			if err := e.lock(a.gid, a.s, a.p, a.o); err != nil {
				return progressed, err
			}
		}
	}
	for _, a := range acts.equate {
		changed, err := e.merge(a.s, a.o)
		if err != nil {
			return progressed, err
		}
		progressed = progressed || changed
	}
	return progressed, nil
}

// lock registers (subject, property) as locked on witness object and
// verifies the property's extension is the witness singleton.
func (e *Engine) lock(gid dataset.GraphID, s, p, o interp.Resource) error {
	s, p, o = e.in.Representative(s), e.in.Representative(p), e.in.Representative(o)
	key := lockKey{gid: gid, subject: s, property: p}
	if w, ok := e.locked[key]; ok && w != o {
		return &ConflictLocked{Subject: s, Property: p, Object: w}
	}
	g := e.ds.Graph(gid)
	for _, id := range g.FactsWithSubject(s) {
		if !g.Alive(id) {
			continue
		}
		f := g.Fact(id)
		if f.Sign == dataset.Positive && f.Triple.P == p && f.Triple.O != o {
			return &ConflictLocked{Subject: s, Property: p, Object: f.Triple.O}
		}
	}
	e.locked[key] = o
	e.log.Debug("locked property", "subject", s, "property", p, "witness", o)
	return nil
}

// merge unifies two resources and propagates the rewrite through
// every graph, the locked table, and the delta.
func (e *Engine) merge(a, b interp.Resource) (bool, error) {
	surv, ret, err := e.in.Merge(a, b)
	if err != nil {
		return false, err
	}
	if ret == surv {
		return false, nil
	}
	if err := e.budget(); err != nil {
		return true, err
	}
	e.log.Debug("merged resources", "survivor", surv, "retired", ret)

	succ, err := e.ds.Rewrite(ret, surv)
	for gid, ids := range succ {
		for _, id := range ids {
			e.deltaOut = append(e.deltaOut, delta{gid: gid, fact: id, rewrite: true})
		}
	}
	if err != nil {
		return true, err
	}
	if err := e.remapLocks(); err != nil {
		return true, err
	}
	// Rewritten facts must still satisfy the locked properties.
	for gid, ids := range succ {
		g := e.ds.Graph(gid)
		for _, id := range ids {
			f := g.Fact(id)
			if f.Sign != dataset.Positive {
				continue
			}
			key := lockKey{gid: gid, subject: f.Triple.S, property: f.Triple.P}
			if w, ok := e.locked[key]; ok && w != f.Triple.O {
				return true, &ConflictLocked{Subject: f.Triple.S, Property: f.Triple.P, Object: f.Triple.O}
			}
		}
	}
	return true, nil
}

// remapLocks normalizes the locked table after a merge. Two locks
// collapsing onto one key with different witnesses violate the
// singleton invariant.
func (e *Engine) remapLocks() error {
	next := make(map[lockKey]interp.Resource, len(e.locked))
	for key, w := range e.locked {
		key.subject = e.in.Representative(key.subject)
		key.property = e.in.Representative(key.property)
		if key.gid.Named {
			key.gid.Name = e.in.Representative(key.gid.Name)
		}
		w = e.in.Representative(w)
		if have, ok := next[key]; ok && have != w {
			return &ConflictLocked{Subject: key.subject, Property: key.property, Object: w}
		}
		next[key] = w
	}
	e.locked = next
	return nil
}

func (e *Engine) budget() error {
	e.steps++
	if e.steps > e.maxSteps {
		return &BudgetError{Steps: e.maxSteps}
	}
	return nil
}

// universalPass evaluates every universal rule against the stabilized
// graphs. It reports whether any head effect changed the state.
func (e *Engine) universalPass() (bool, error) {
	progressed := false
	for ri, r := range e.universal {
		for _, gid := range e.graphIDs() {
			p, err := e.universalRule(ri, r, gid)
			if err != nil {
				return progressed, err
			}
			progressed = progressed || p
		}
	}
	return progressed, nil
}

var errStop = errors.New("stop enumeration")

func (e *Engine) universalRule(ri int, r *Rule, gid dataset.GraphID) (bool, error) {
	g := e.ds.Graph(gid)
	m := &match.Matcher{In: e.in, Graph: g}

	var contexts []*match.Env
	if len(r.Exists.Atoms) == 0 {
		contexts = []*match.Env{match.NewEnv(r.NVars)}
	} else {
		err := m.Match(r.Exists, func(env *match.Env) error {
			contexts = append(contexts, env.Clone())
			return nil
		})
		if err != nil {
			return false, err
		}
	}

	progressed := false
	for _, ctx := range contexts {
		key := e.contextKey(ri, gid, r, ctx)
		if e.fired[key] {
			continue
		}
		headEnvs, holds, err := e.universalCheck(m, r, ctx)
		if err != nil {
			return progressed, err
		}
		if !holds {
			// The universal condition fails for this context; it may
			// hold on a later pass, so the context stays unfired.
			continue
		}
		e.fired[key] = true
		var acts actions
		for _, env := range headEnvs {
			if err := e.budget(); err != nil {
				return progressed, err
			}
			e.emitHead(r, gid, env, &acts)
		}
		p, err := e.apply(&acts)
		progressed = progressed || p
		if err != nil {
			return progressed, err
		}
	}
	return progressed, nil
}

// universalCheck enumerates the universal clause under ctx. It
// reports whether every binding passes the inner existential, and
// returns the head binding environments.
func (e *Engine) universalCheck(m *match.Matcher, r *Rule, ctx *match.Env) (headEnvs []*match.Env, holds bool, err error) {
	if len(r.Forall.Atoms) == 0 {
		return []*match.Env{ctx}, true, nil
	}
	holds = true
	err = m.MatchEnv(r.Forall, ctx.Clone(), func(env *match.Env) error {
		if r.Inner == nil {
			headEnvs = append(headEnvs, env.Clone())
			return nil
		}
		found := false
		ierr := m.MatchEnv(*r.Inner, env.Clone(), func(ie *match.Env) error {
			found = true
			headEnvs = append(headEnvs, ie.Clone())
			return errStop
		})
		if ierr != nil && ierr != errStop {
			return ierr
		}
		if !found {
			holds = false
			return errStop
		}
		return nil
	})
	if err == errStop {
		err = nil
	}
	if err != nil {
		return nil, false, err
	}
	if !holds {
		return nil, false, nil
	}
	return headEnvs, true, nil
}

func (e *Engine) graphIDs() []dataset.GraphID {
	ids := []dataset.GraphID{dataset.DefaultGraph}
	for _, name := range e.ds.Names() {
		ids = append(ids, dataset.GraphID{Named: true, Name: name})
	}
	return ids
}

func (e *Engine) contextKey(ri int, gid dataset.GraphID, r *Rule, ctx *match.Env) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%v/%d:", ri, gid.Named, gid.Name)
	for i := 0; i < r.NVars; i++ {
		if ctx.Bound(i) {
			fmt.Fprintf(&b, "%d=%d;", i, e.in.Representative(ctx.Value(i)))
		}
	}
	return b.String()
}
