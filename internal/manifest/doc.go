// Package manifest builds the tree-shaped listing that gets encrypted.
//
// A tree comes either from a local directory (ScanDirectory) or from a flat
// bucket listing with signed URLs (BuildTree). Both produce the same shape:
//
//	[{"name": "docs", "type": "directory", "path": "docs", "children": [...]},
//	 {"name": "a.txt", "type": "file", "path": "https://..."}]
//
// Directories sort before files, and names compare case-insensitively.
package manifest
