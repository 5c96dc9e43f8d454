// Package compiler turns openCypher clause chains into relational plans.
// Each clause compiles to one rel.Query; every clause after the first wraps
// its predecessor as an anonymous subquery range table entry, so variables
// flow forward positionally rather than through named join logic.
package compiler

import (
	"context"
	"strconv"

	"github.com/relgraph/relgraph/src/ast"
	"github.com/relgraph/relgraph/src/catalog"
	"github.com/relgraph/relgraph/src/rel"
)

// The wrapped previous clause is always aliased "_"; hidden target entries
// carry names no query variable can collide with.
const (
	prevClauseAlias    = "_"
	defaultAliasPrefix = "_rg_alias_"

	varnameCreateNull   = "_rg_create_null"
	varnameCreateClause = "_rg_create_clause"
	varnameSetClause    = "_rg_set_clause"
	varnameDeleteClause = "_rg_delete_clause"
)

// Compiler compiles clause chains against one graph's catalog. It is safe
// for concurrent use; every compilation owns its own scope state.
type Compiler struct {
	store  catalog.Store
	config *Config
	logger Logger
	obs    *observabilityInstruments
	cache  *planCache
}

// New creates a compiler over the given catalog store.
func New(store catalog.Store, config *Config) *Compiler {
	if config == nil {
		config = DefaultConfig(store.Graph().Name)
	}
	config.normalize()

	return &Compiler{
		store:  store,
		config: config,
		logger: config.Logging.Logger,
		obs:    initObservability(),
		cache:  newPlanCache(config.Cache.MaxSize),
	}
}

// Compile compiles a clause chain into a single relational plan: the last
// clause's query, with every predecessor nested inside it. Compilation is
// synchronous; ctx is used only for trace propagation.
//
// When the plan cache is enabled the returned query may be shared with
// other callers and must not be mutated.
func (c *Compiler) Compile(ctx context.Context, clauses []ast.Clause) (*rel.Query, error) {
	_, spanCtx := c.obs.startCompileSpan(ctx, c.config.GraphName, len(clauses), c.config.Observability)

	query, err := c.compileCached(clauses)

	c.obs.finishCompileSpan(spanCtx, len(clauses), err, c.config.Observability)
	return query, err
}

func (c *Compiler) compileCached(clauses []ast.Clause) (*rel.Query, error) {
	if len(clauses) == 0 {
		return nil, compileErrorf(ErrInternal, -1, "empty clause chain")
	}

	if !c.config.Cache.Enabled {
		return c.compileChain(clauses)
	}

	key := cacheKey(c.config.GraphName, c.store.Generation(), clauses)
	query, hit, err := c.cache.Fetch(key, func() (*rel.Query, error) {
		return c.compileChain(clauses)
	})
	if hit {
		c.obs.recordCacheHit(c.config.Observability)
		if c.config.Logging.enabled(LogLevelDebug, LogCategoryCache) {
			c.logger.Debug("plan cache hit", "key", key)
		}
	}
	return query, err
}

func (c *Compiler) compileChain(clauses []ast.Clause) (*rel.Query, error) {
	chain := buildChain(clauses)

	state := newClauseState(c, nil)
	query, err := state.compileClause(chain)
	if err != nil {
		return nil, err
	}

	if err := rel.Validate(query); err != nil {
		return nil, compileErrorf(ErrInternal, -1, "compiled plan failed validation: %v", err)
	}

	if c.config.Logging.enabled(LogLevelInfo, LogCategoryGeneral) {
		c.logger.Info("compiled clause chain",
			"clauses", len(clauses), "graph", c.config.GraphName)
	}

	return query, nil
}

// clauseNode links one clause into the chain. Each node is consumed
// exactly once, by the compilation of its successor (or by the driver for
// the last node).
type clauseNode struct {
	self ast.Clause
	prev *clauseNode
	next *clauseNode
}

// buildChain links the clauses and returns the LAST node; compilation
// recurses backwards from it.
func buildChain(clauses []ast.Clause) *clauseNode {
	var prev *clauseNode
	for _, clause := range clauses {
		node := &clauseNode{self: clause, prev: prev}
		if prev != nil {
			prev.next = node
		}
		prev = node
	}
	return prev
}

// exprKind tracks what position an expression is being compiled in. WHERE
// position forbids introducing new pattern variables and makes outer
// columns visible to subqueries.
type exprKind int

const (
	exprKindNone exprKind = iota
	exprKindWhere
)

// clauseState is the per-clause compilation scope: the range table, join
// list and target list being accumulated, plus the entity catalog shared
// along the chain. A fresh state is created for every clause; finished
// states fold their entities back into the parent.
type clauseState struct {
	c      *Compiler
	parent *clauseState

	exprKind exprKind

	rtable     []*rel.RangeTblEntry
	joinlist   []int
	targetList []*rel.TargetEntry
	nextResno  int

	entities  entityCatalog
	propQuals []rel.Expr
	hasAggs   bool

	aliasNum int
}

func newClauseState(c *Compiler, parent *clauseState) *clauseState {
	state := &clauseState{c: c, parent: parent, nextResno: 1}
	if parent != nil {
		state.exprKind = parent.exprKind
	}
	return state
}

// compileClause dispatches on the clause kind.
func (s *clauseState) compileClause(node *clauseNode) (*rel.Query, error) {
	switch self := node.self.(type) {
	case *ast.ReturnClause:
		return s.compileReturnWithWhere(node, self, nil)
	case *ast.WithClause:
		return s.compileWith(node, self)
	case *ast.MatchClause:
		return s.compileMatch(node, self)
	case *ast.CreateClause:
		return s.compileCreate(node, self)
	case *ast.SetClause:
		return s.compileSet(node, self)
	case *ast.DeleteClause:
		return s.compileDelete(node, self)
	case *ast.SubPattern:
		return s.compileSubPattern(self)
	default:
		return nil, compileErrorf(ErrInternal, -1, "unexpected clause type %T", node.self)
	}
}

// analyzeClause compiles a clause in a fresh child scope, then demotes the
// child's entities and folds them into this scope, mirroring how variable
// bindings survive clause boundaries.
func (s *clauseState) analyzeClause(transform func(*clauseState) (*rel.Query, error)) (*rel.Query, error) {
	child := newClauseState(s.c, s)
	child.entities.entities = s.entities.entities

	query, err := transform(child)
	if err != nil {
		return nil, err
	}

	child.entities.advanceClause()
	s.entities.entities = child.entities.entities

	return query, nil
}

// wrapClauseAsSubquery compiles the given clause and adds it to this
// scope's range table as the anonymous subquery relation. Every non-junk
// output column of the wrapped clause becomes visible here.
func (s *clauseState) wrapClauseAsSubquery(transform func(*clauseState) (*rel.Query, error)) (*rel.RangeTblEntry, int, error) {
	query, err := s.analyzeClause(transform)
	if err != nil {
		return nil, 0, err
	}

	columns := make([]string, len(query.TargetList))
	for i, te := range query.TargetList {
		if !te.Junk {
			columns[i] = te.Name
		}
	}

	rte := &rel.RangeTblEntry{
		Kind:     rel.RTESubquery,
		Alias:    prevClauseAlias,
		Columns:  columns,
		Subquery: query,
	}
	s.rtable = append(s.rtable, rte)
	rtindex := len(s.rtable)
	s.joinlist = append(s.joinlist, rtindex)

	return rte, rtindex, nil
}

// wrapPrevClause wraps node.prev as the first range table entry of the
// current clause.
func (s *clauseState) wrapPrevClause(node *clauseNode) (*rel.RangeTblEntry, int, error) {
	prev := node.prev
	return s.wrapClauseAsSubquery(func(child *clauseState) (*rel.Query, error) {
		return child.compileClause(prev)
	})
}

// expandRelAttrs appends a target entry for every visible column of the
// subquery RTE, passing the previous clause's variables through by
// position.
func (s *clauseState) expandRelAttrs(rte *rel.RangeTblEntry, rtindex int) {
	for i, name := range rte.Columns {
		if name == "" {
			continue
		}
		te := &rel.TargetEntry{
			Expr:  &rel.Var{RTIndex: rtindex, AttNo: i + 1},
			ResNo: s.nextResno,
			Name:  name,
		}
		s.nextResno++
		s.targetList = append(s.targetList, te)
	}
}

// columnVar resolves a variable name to a column of a visible subquery
// RTE, walking outer scopes with increasing var levels. Returns nil when
// the name is not visible.
func (s *clauseState) columnVar(name string) *rel.Var {
	level := 0
	for state := s; state != nil; state = state.parent {
		for rtindex, rte := range state.rtable {
			if rte.Kind != rel.RTESubquery {
				continue
			}
			for i, col := range rte.Columns {
				if col != "" && col == name {
					return &rel.Var{RTIndex: rtindex + 1, AttNo: i + 1, Level: level}
				}
			}
		}
		level++
	}
	return nil
}

// nextAlias hands out names for anonymous pattern elements and hidden
// target entries.
func (s *clauseState) nextAlias() string {
	alias := defaultAliasPrefix + strconv.Itoa(s.aliasNum)
	s.aliasNum++
	return alias
}

// findTarget returns the non-junk target entry named name, or nil.
func (s *clauseState) findTarget(name string) *rel.TargetEntry {
	if name == "" {
		return nil
	}
	for _, te := range s.targetList {
		if te.Junk {
			continue
		}
		if te.Name == name {
			return te
		}
	}
	return nil
}

// targetEntryResno finds the output position of a named target entry and
// wraps the entry in a volatile call so the optimizer cannot erase the
// value the write operators will read back. Returns -1 when absent.
func (s *clauseState) targetEntryResno(name string) int {
	for _, te := range s.targetList {
		if te.Name == name {
			te.Expr = rel.Volatile(te.Expr)
			return te.ResNo
		}
	}
	return -1
}

// placeholderTargetEntry reserves an output slot whose real value only
// exists at execution time: a null constant behind a volatile wrapper, so
// it survives constant folding and dead-code elimination.
func (s *clauseState) placeholderTargetEntry(name string) *rel.TargetEntry {
	te := &rel.TargetEntry{
		Expr:  rel.Volatile(&rel.Const{Value: nil}),
		ResNo: s.nextResno,
		Name:  name,
	}
	s.nextResno++
	return te
}

// finalize assembles the accumulated state into a query.
func (s *clauseState) finalize(qual rel.Expr) *rel.Query {
	return &rel.Query{
		TargetList: s.targetList,
		RangeTable: s.rtable,
		Jointree:   &rel.FromExpr{FromList: s.joinlist, Qual: qual},
		HasAggs:    s.hasAggs,
	}
}

// compileWithWhere applies an optional WHERE predicate by wrapping the
// already-transformed clause as a subquery, projecting all of its columns,
// and attaching the predicate to the outer join tree.
func (s *clauseState) compileWithWhere(transform func(*clauseState) (*rel.Query, error), where ast.Expr) (*rel.Query, error) {
	if where == nil {
		return transform(s)
	}

	rte, rtindex, err := s.wrapClauseAsSubquery(transform)
	if err != nil {
		return nil, err
	}
	s.expandRelAttrs(rte, rtindex)

	// Only the predicate itself compiles in WHERE context; the wrapped
	// clause introduces variables normally.
	oldKind := s.exprKind
	s.exprKind = exprKindWhere
	qual, err := s.compileExpr(where)
	s.exprKind = oldKind
	if err != nil {
		return nil, err
	}

	return s.finalize(qual), nil
}

// compileSubPattern compiles an EXISTS-style sub-pattern: the pattern
// becomes its own MATCH subquery whose columns are re-projected one level
// up. Used by the expression compiler for sub-links.
func (s *clauseState) compileSubPattern(sub *ast.SubPattern) (*rel.Query, error) {
	match := &ast.MatchClause{Pattern: sub.Pattern, Loc: sub.Loc}
	inner := &clauseNode{self: match}

	rte, rtindex, err := s.wrapClauseAsSubquery(func(child *clauseState) (*rel.Query, error) {
		return child.compileClause(inner)
	})
	if err != nil {
		return nil, err
	}
	s.expandRelAttrs(rte, rtindex)

	return s.finalize(nil), nil
}

func graphIDConst(g catalog.Graph) rel.Expr {
	return &rel.Const{Value: g.ID.String()}
}

// labelOf resolves a label name for the given entity kind, applying the
// default label for empty names and rejecting kind mismatches.
func (s *clauseState) labelOf(name string, kind catalog.Kind, loc int) (*catalog.Label, error) {
	if name == "" {
		name = catalog.DefaultLabelFor(kind)
	}
	label, err := s.c.store.ResolveLabel(name)
	if err != nil {
		return nil, compileErrorf(ErrUnknownLabel, loc, "label %s does not exist", name)
	}
	if label.Kind != kind {
		return nil, compileErrorf(ErrLabelKindMismatch, loc,
			"label %s is for %ss, not %ss", name, label.Kind, kind)
	}
	return label, nil
}
