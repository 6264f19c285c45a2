package handler

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every exported endpoint method documents its route for the API docs
func TestHandlers_APIAnnotations(t *testing.T) {
	files := map[string]string{
		"contract.go": "ContractHandler",
		"batch.go":    "BatchHandler",
		"outbox.go":   "OutboxHandler",
		"health.go":   "HealthHandler",
	}

	ids := map[string]string{}
	for file, receiver := range files {
		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, file, nil, parser.ParseComments)
		require.NoError(t, err)

		var endpoints int
		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || !fn.Name.IsExported() || receiverName(fn) != receiver {
				continue
			}
			endpoints++
			name := receiver + "." + fn.Name.Name
			require.NotNil(t, fn.Doc, name)
			doc := fn.Doc.Text()

			assert.Contains(t, doc, "@Summary", name)
			assert.Contains(t, doc, "@Router", name)
			id := annotation(doc, "@ID")
			if assert.NotEmpty(t, id, name) {
				prev, dup := ids[id]
				assert.False(t, dup, "%s reuses @ID %s of %s", name, id, prev)
				ids[id] = name
			}
			if receiver != "HealthHandler" {
				assert.Contains(t, doc, "@Security     BearerAuth", name)
			}
		}
		assert.NotZero(t, endpoints, file)
	}
}

func receiverName(fn *ast.FuncDecl) string {
	expr := fn.Recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name
	}
	return ""
}

func annotation(doc, tag string) string {
	for _, line := range strings.Split(doc, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), tag); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
