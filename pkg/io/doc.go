// Package io provides JSON import and export for dependency graphs and
// level views.
//
// # Graph Format
//
//	{
//	  "meta":  {"registry": "pypi"},
//	  "nodes": [
//	    {"id": "fastapi", "meta": {"version": "0.110.0"}},
//	    {"id": "starlette", "level": 2}
//	  ],
//	  "edges": [
//	    {"from": "fastapi", "to": "starlette"}
//	  ]
//	}
//
// Node fields:
//   - id: unique normalized package name (required)
//   - label: display label, when different from id
//   - kind: "package" (default) or "cluster"
//   - level: level assigned by a view (omitted when unclassified)
//   - meta: registry metadata (version, license, ...)
//   - cluster: {root, level, members} for cluster nodes
//
// # Result Format
//
// [WriteResult] adds the classification of a view to the same document:
//
//	{
//	  "view": "shared", "max_level": 2, "roots": ["pkga", "pkgb"],
//	  "nodes": [...], "edges": [...],
//	  "levels": {"pkga": 1, "pkgb": 1, "x": 2},
//	  "shared": ["x"]
//	}
//
// "owners" (unique view) and "clusters" (clusters view) appear when the view
// produces them. [ReadResult] reads both formats.
package io
