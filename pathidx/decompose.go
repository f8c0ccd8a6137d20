package pathidx

import (
	"strings"

	"github.com/raintank/corehouse/schema"
)

// Decompose splits a dotted path into its ancestor prefix documents,
// left to right, one per separator plus the leaf itself (C2). For
// "a.b.c" it yields {a,1,false}, {a.b,2,false}, {a.b.c,3,true}.
//
// Any prefix with depth <= cache.StoreToDepth that cache already knows
// about is omitted from the output, since Stage A of the pipeline uses
// this to cut down on redundant work for pathologically hot shallow
// prefixes (§4.1, §4.2). The terminal leaf is never omitted. Pass a
// nil cache to get the full decomposition unconditionally (used by the
// synchronous Register path, §4.4).
func Decompose(tenant, path string, cache *SubPathCache) []schema.PathDoc {
	docs := make([]schema.PathDoc, 0, strings.Count(path, ".")+1)
	depth := 0
	for i := 0; i < len(path); i++ {
		if path[i] != '.' {
			continue
		}
		depth++
		prefix := path[:i]
		if cache == nil || depth > cache.StoreToDepth || !cache.Has(prefix) {
			docs = append(docs, schema.PathDoc{Tenant: tenant, Path: prefix, Depth: depth, Leaf: false})
		}
	}
	depth++
	docs = append(docs, schema.PathDoc{Tenant: tenant, Path: path, Depth: depth, Leaf: true})
	return docs
}
