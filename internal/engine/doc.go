// Package engine is the generation orchestrator. For every validated entity it
// resolves a template, renders it, reads the file currently at the output
// path, merges the two and records the outcome in a Manifest.
//
// Generate never writes to disk. Persisting a manifest is the job of package
// writer, which lets a dry run and a real run share every step up to the
// write.
package engine
