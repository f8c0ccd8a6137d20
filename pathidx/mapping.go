package pathidx

// mapping is the search index mapping for path documents: two exact
// token fields (tenant, path) plus a numeric depth, _all disabled,
// source stored uncompressed (§6 "Persisted layout, search index").
const mapping = `{
	"mappings": {
	    "_default_": {
		"_all": {
		    "enabled": false
		},
		"_source": {
		    "compress": false
		},
		"properties": {
		    "tenant": {
			"type": "string",
			"index": "not_analyzed"
		    },
		    "path": {
			"type": "string",
			"index": "not_analyzed"
		    },
		    "depth": {
			"type": "long"
		    },
		    "leaf": {
			"type": "boolean"
		    }
		}
	    }
	}
}`
