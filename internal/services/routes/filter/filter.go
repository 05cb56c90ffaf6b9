// Package filter compiles AIP-160 filter expressions into route predicates.
package filter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	apperrors "github.com/louisbranch/routekeeper/internal/platform/errors"
	"github.com/louisbranch/routekeeper/internal/services/routes/domain/route"
)

// Predicate reports whether a route matches a compiled filter.
type Predicate func(route.Route) bool

// Declarations returns the field declarations for route filtering.
func Declarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("id", filtering.TypeInt),
		filtering.DeclareIdent("name", filtering.TypeString),
		filtering.DeclareIdent("distance", filtering.TypeFloat),
		filtering.DeclareIdent("from_name", filtering.TypeString),
		filtering.DeclareIdent("to_name", filtering.TypeString),
		filtering.DeclareIdent("creation_date", filtering.TypeTimestamp),
	)
}

// Compile parses filterStr and returns the matching predicate. An empty
// filter matches every route.
func Compile(filterStr string) (Predicate, error) {
	if strings.TrimSpace(filterStr) == "" {
		return func(route.Route) bool { return true }, nil
	}

	decls, err := Declarations()
	if err != nil {
		return nil, fmt.Errorf("create declarations: %w", err)
	}

	var parser filtering.Parser
	parser.Init(filterStr)
	parsed, err := parser.Parse()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeArgument, "parse filter", err)
	}
	widenIntConstants(parsed.GetExpr())

	var checker filtering.Checker
	checker.Init(parsed.GetExpr(), parsed.GetSourceInfo(), decls)
	checked, err := checker.Check()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeArgument, "parse filter", err)
	}

	pred, err := translateExpr(checked.GetExpr())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeArgument, "translate filter", err)
	}
	return pred, nil
}

// floatFields lists the fields declared as TypeFloat.
var floatFields = map[string]bool{"distance": true}

// widenIntConstants rewrites integer literals compared against a float
// field into doubles so "distance > 5" type-checks like "distance > 5.0".
func widenIntConstants(e *expr.Expr) {
	call := e.GetCallExpr()
	if call == nil {
		return
	}
	for _, arg := range call.GetArgs() {
		widenIntConstants(arg)
	}
	if len(call.GetArgs()) != 2 || !floatFields[call.GetArgs()[0].GetIdentExpr().GetName()] {
		return
	}
	constant := call.GetArgs()[1].GetConstExpr()
	if v, ok := constant.GetConstantKind().(*expr.Constant_Int64Value); ok {
		constant.ConstantKind = &expr.Constant_DoubleValue{DoubleValue: float64(v.Int64Value)}
	}
}

func translateExpr(e *expr.Expr) (Predicate, error) {
	if e == nil {
		return func(route.Route) bool { return true }, nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return translateCall(kind.CallExpr)
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func translateCall(call *expr.Expr_Call) (Predicate, error) {
	switch call.Function {
	case "_&&_", "AND":
		return translateLogical(call.Args, func(a, b bool) bool { return a && b })
	case "_||_", "OR":
		return translateLogical(call.Args, func(a, b bool) bool { return a || b })
	case "!_", "NOT":
		if len(call.Args) != 1 {
			return nil, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := translateExpr(call.Args[0])
		if err != nil {
			return nil, err
		}
		return func(r route.Route) bool { return !inner(r) }, nil
	case "_==_", "=":
		return translateComparison(call.Args, func(c int) bool { return c == 0 })
	case "_!=_", "!=":
		return translateComparison(call.Args, func(c int) bool { return c != 0 })
	case "_<_", "<":
		return translateComparison(call.Args, func(c int) bool { return c < 0 })
	case "_<=_", "<=":
		return translateComparison(call.Args, func(c int) bool { return c <= 0 })
	case "_>_", ">":
		return translateComparison(call.Args, func(c int) bool { return c > 0 })
	case "_>=_", ">=":
		return translateComparison(call.Args, func(c int) bool { return c >= 0 })
	default:
		return nil, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func translateLogical(args []*expr.Expr, join func(a, b bool) bool) (Predicate, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("logical operator requires 2 arguments")
	}
	left, err := translateExpr(args[0])
	if err != nil {
		return nil, err
	}
	right, err := translateExpr(args[1])
	if err != nil {
		return nil, err
	}
	return func(r route.Route) bool { return join(left(r), right(r)) }, nil
}

func translateComparison(args []*expr.Expr, accept func(int) bool) (Predicate, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := extractFieldName(args[0])
	if err != nil {
		return nil, err
	}
	value, err := extractValue(args[1])
	if err != nil {
		return nil, err
	}
	cmp, err := comparer(field, value)
	if err != nil {
		return nil, err
	}
	return func(r route.Route) bool { return accept(cmp(r)) }, nil
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(kind.ConstExpr)
	case *expr.Expr_CallExpr:
		if kind.CallExpr.Function == "timestamp" && len(kind.CallExpr.Args) == 1 {
			return extractTimestampValue(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}

	switch kind := c.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_DoubleValue:
		return kind.DoubleValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

func extractTimestampValue(e *expr.Expr) (time.Time, error) {
	constExpr, ok := e.GetExprKind().(*expr.Expr_ConstExpr)
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp argument must be a constant string")
	}
	strVal, ok := constExpr.ConstExpr.GetConstantKind().(*expr.Constant_StringValue)
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp argument must be a string")
	}
	t, err := time.Parse(time.RFC3339Nano, strVal.StringValue)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp format: %s", strVal.StringValue)
	}
	return t.UTC(), nil
}
