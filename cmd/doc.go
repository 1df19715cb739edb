// Package cmd hosts the pubharvest command tree.
//
// Architecture overview:
//   - openalex: resolves an author through the OpenAlex API and walks their works with a cursor,
//     one page at a time with a fixed politeness delay. Any remote failure is fatal and exits non-zero.
//   - scholar: drives Chrome through a Scholar profile (consent, block detection, "show more" loop,
//     extraction). Blocks, empty tables and browser failures keep the previous snapshot, dump
//     diagnostics and exit zero.
//   - all: runs both in sequence and fails only on fatal errors.
//
// Every run writes its snapshot at most once, at the end, by renaming a temp file over the target.
// Configuration comes from Viper (file plus PUBHARVEST_* env vars); zap logs go to stderr and the
// one-line run summary goes to stdout. Optional extras: a Prometheus textfile, Pub/Sub notifications
// on successful writes and GCS storage for diagnostics.
package cmd
