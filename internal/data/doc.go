// Package data loads authored content: TMD key/value documents, scene
// manifests, and the text files they reference.
package data
