// Command lazymint drives a lazy-mint orchestrator from the shell: mint
// tokens, manage the collection and catalog addresses and inspect the mint
// receipt trail. Configuration is read from a TOML file.
//
// Mints can also go through the job queue kept in the same database:
// "jobs enqueue" queues a mint and "jobs work" runs queued mints.
package main
