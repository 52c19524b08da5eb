// Package app contains the embedding environment. It wires the procedure
// registries, the resolver, the evaluator and the bridge together, exposes
// the execution-context lifecycle calls, and runs script files on a worker
// pool, decoupled from any specific entrypoint like a CLI or server.
package app
