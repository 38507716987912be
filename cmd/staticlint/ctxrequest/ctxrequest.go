// Package ctxrequest defines an analyzer that reports outgoing HTTP requests built without a context.
package ctxrequest

import (
	"errors"
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

// Analyzer is the ctxrequest analyzer.
var Analyzer = &analysis.Analyzer{
	Name:     "ctxrequest",
	Doc:      "reports net/http helpers that build requests without a context",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// replacements maps context-free net/http functions to what should be used instead.
var replacements = map[string]string{
	"NewRequest": "http.NewRequestWithContext",
	"Get":        "http.NewRequestWithContext and Client.Do",
	"Head":       "http.NewRequestWithContext and Client.Do",
	"Post":       "http.NewRequestWithContext and Client.Do",
	"PostForm":   "http.NewRequestWithContext and Client.Do",
}

func run(pass *analysis.Pass) (any, error) {
	insp, ok := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	if !ok {
		return nil, errors.New("failed to assert type: expected *inspector.Inspector")
	}

	insp.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return
		}
		fn := typeutil.StaticCallee(pass.TypesInfo, call)
		if fn == nil || fn.Pkg() == nil || fn.Pkg().Path() != "net/http" {
			return
		}
		// (*http.Client).Get and friends are methods, not package helpers
		if fn.Signature().Recv() != nil {
			return
		}
		if alt, bad := replacements[fn.Name()]; bad {
			pass.Reportf(call.Pos(), "http.%s builds a request without a context; use %s", fn.Name(), alt)
		}
	})
	return nil, nil
}
