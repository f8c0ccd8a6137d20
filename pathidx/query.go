package pathidx

import (
	cerrors "github.com/raintank/corehouse/errors"
	"github.com/raintank/corehouse/schema"
)

// buildQuery assembles the ES query for a glob lookup (§4.5): it must
// match depth, tenant, and the path regex; leafsOnly additionally
// restricts to leaf=true documents.
func buildQuery(tenant, glob string, leafsOnly bool) map[string]interface{} {
	must := []map[string]interface{}{
		{"term": map[string]interface{}{"depth": schema.Segments(glob)}},
		{"term": map[string]interface{}{"tenant": tenant}},
		{"regexp": map[string]interface{}{"path": ToRegexp(glob)}},
	}
	if leafsOnly {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"leaf": true}})
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
	}
}

// Query answers path lookups against the index (C5). It holds an
// optional threshold beyond which a query is rejected outright rather
// than streamed (§4.5, §8 scenario 6).
type Query struct {
	client    *IndexClient
	threshold int // <=0 means "no limit"
}

func NewQuery(client *IndexClient, threshold int) *Query {
	return &Query{client: client, threshold: threshold}
}

// Prefixes returns every document, leaf or intermediate, matching
// glob within tenant (§6 "prefixes(tenant, glob)").
func (q *Query) Prefixes(tenant, glob string) ([]schema.PathDoc, error) {
	return q.run(tenant, glob, false)
}

// Lookup returns only the leaf paths matching glob within tenant
// (§6 "lookup(tenant, glob)").
func (q *Query) Lookup(tenant, glob string) ([]string, error) {
	docs, err := q.run(tenant, glob, true)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(docs))
	for i, d := range docs {
		paths[i] = d.Path
	}
	return paths, nil
}

func (q *Query) run(tenant, glob string, leafsOnly bool) ([]schema.PathDoc, error) {
	query := buildQuery(tenant, glob, leafsOnly)
	iter, err := q.client.Search(query)
	if err != nil {
		return nil, cerrors.NewIndexQueryMalformed(glob, err)
	}

	var out []schema.PathDoc
	page, more, err := iter.Next()
	if err != nil {
		return nil, cerrors.NewIndexQueryMalformed(glob, err)
	}
	if q.threshold > 0 && iter.Total > q.threshold {
		return nil, cerrors.TooManyPaths{Requested: iter.Total, Threshold: q.threshold}
	}
	for more {
		out = append(out, page...)
		page, more, err = iter.Next()
		if err != nil {
			return nil, cerrors.NewIndexQueryMalformed(glob, err)
		}
	}
	return out, nil
}
