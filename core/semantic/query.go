package semantic

import "github.com/cockroachdb/errors"

// GraphView is the read-only surface handed to query engines.
type GraphView interface {
	Nodes() []KnowledgeNode
	Edges() []KnowledgeEdge
	GetNode(termOrID string) (KnowledgeNode, bool)
	Neighbors(termOrID string) []string
}

// QueryEngine evaluates a SPARQL-like query against a graph view.
type QueryEngine interface {
	Execute(query string, view GraphView) ([]map[string]any, error)
}

var _ GraphView = (*KnowledgeGraph)(nil)

// Query runs q through engine against this graph.
func (g *KnowledgeGraph) Query(engine QueryEngine, q string) ([]map[string]any, error) {
	if engine == nil {
		return nil, errors.New("no query engine configured")
	}
	rows, err := engine.Execute(q, g)
	if err != nil {
		return nil, errors.Wrapf(err, "query %q", q)
	}
	return rows, nil
}
