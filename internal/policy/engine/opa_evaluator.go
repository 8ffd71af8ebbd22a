package engine

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"sync"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"portfolio-client/internal/policy/repository"
)

const routesQuery = "data.portfolio.routes"

// Default Rego policy; it encodes the same rule as DefaultRoute.
const defaultRegoPolicy = `package portfolio.routes

default privileged := false

default allow := false

privileged if input.path == "/admin"

privileged if startswith(input.path, "/admin/")

allow if not privileged

allow if {
	privileged
	input.authenticated
	input.user.is_admin
}
`

// maxPrepared bounds the prepared query cache; it is reset when full.
const maxPrepared = 8

// OPAEvaluator evaluates route access with OPA Rego. Policies come from the
// repository; without any, the built-in policy applies. Each distinct policy set
// is compiled once and its prepared query reused.
type OPAEvaluator struct {
	policyRepo repository.Repository

	mu       sync.Mutex
	prepared map[[sha256.Size]byte]preparedQuery
	compiles int
}

type preparedQuery struct {
	query rego.PreparedEvalQuery
	err   error
}

// NewOPAEvaluator returns an OPA-based route evaluator. policyRepo may be nil.
// The built-in policy is compiled up front.
func NewOPAEvaluator(policyRepo repository.Repository) *OPAEvaluator {
	e := &OPAEvaluator{
		policyRepo: policyRepo,
		prepared:   make(map[[sha256.Size]byte]preparedQuery),
	}
	if _, err := e.prepare(context.Background(), []string{defaultRegoPolicy}); err != nil {
		log.Printf("policy: built-in route policy: %v", err)
	}
	return e
}

// HealthCheck verifies that the in-process OPA engine can compile and evaluate the default policy.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	res, err := e.evaluatePolicies(ctx, []string{defaultRegoPolicy}, buildInput(RouteInput{Path: "/admin"}))
	if err != nil {
		return err
	}
	if !res.Privileged || res.Allow {
		return fmt.Errorf("default policy returned unexpected result %+v", res)
	}
	return nil
}

// EvaluateRoute evaluates the route policies for in. Evaluation problems are logged
// and answered with DefaultRoute; the returned error is always nil in that case.
func (e *OPAEvaluator) EvaluateRoute(ctx context.Context, in RouteInput) (RouteResult, error) {
	in.Path = CleanPath(in.Path)

	var policies []string
	if e.policyRepo != nil {
		enabled, err := e.policyRepo.ListEnabled(ctx)
		if err != nil {
			log.Printf("policy: failed to load route policies: %v", err)
		}
		for _, p := range enabled {
			if p.Enabled && p.Rules != "" {
				policies = append(policies, p.Rules)
			}
		}
	}
	if len(policies) == 0 {
		policies = []string{defaultRegoPolicy}
	}

	res, err := e.evaluatePolicies(ctx, policies, buildInput(in))
	if err != nil {
		log.Printf("policy: evaluation failed: %v, using built-in rule", err)
		return DefaultRoute(in), nil
	}
	return res, nil
}

func buildInput(in RouteInput) map[string]interface{} {
	user := map[string]interface{}{
		"id":       int64(0),
		"email":    "",
		"is_admin": false,
	}
	if in.User != nil {
		user["id"] = in.User.ID
		user["email"] = in.User.Email
		user["is_admin"] = in.User.IsAdmin
	}
	return map[string]interface{}{
		"path":          CleanPath(in.Path),
		"authenticated": in.Authenticated,
		"user":          user,
	}
}

// prepare returns the prepared query for policies, compiling it on first use.
// Compile failures are cached as well so a broken file is not recompiled per call.
func (e *OPAEvaluator) prepare(ctx context.Context, policies []string) (rego.PreparedEvalQuery, error) {
	h := sha256.New()
	for _, p := range policies {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	var key [sha256.Size]byte
	copy(key[:], h.Sum(nil))

	e.mu.Lock()
	defer e.mu.Unlock()
	if pq, ok := e.prepared[key]; ok {
		return pq.query, pq.err
	}
	if len(e.prepared) >= maxPrepared {
		clear(e.prepared)
	}
	e.compiles++

	var pq preparedQuery
	modules := make(map[string]string, len(policies))
	for i, policy := range policies {
		modules[fmt.Sprintf("policy_%d.rego", i)] = policy
	}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		pq.err = fmt.Errorf("compile policies: %w", err)
	} else {
		pq.query, err = rego.New(
			rego.Query(routesQuery),
			rego.Compiler(compiler),
		).PrepareForEval(ctx)
		if err != nil {
			pq.err = fmt.Errorf("prepare policies: %w", err)
		}
	}
	e.prepared[key] = pq
	return pq.query, pq.err
}

func (e *OPAEvaluator) evaluatePolicies(ctx context.Context, policies []string, input map[string]interface{}) (RouteResult, error) {
	query, err := e.prepare(ctx, policies)
	if err != nil {
		return RouteResult{}, err
	}
	rs, err := query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return RouteResult{}, fmt.Errorf("eval policies: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return RouteResult{}, fmt.Errorf("policy query returned no result")
	}
	doc, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return RouteResult{}, fmt.Errorf("policy query returned %T, want object", rs[0].Expressions[0].Value)
	}
	allow, ok := doc["allow"].(bool)
	if !ok {
		return RouteResult{}, fmt.Errorf("policy does not define boolean allow")
	}
	out := RouteResult{Allow: allow}
	if v, ok := doc["privileged"].(bool); ok {
		out.Privileged = v
	} else {
		out.Privileged = IsPrivileged(fmt.Sprint(input["path"]))
	}
	return out, nil
}
