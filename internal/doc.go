// Package internal contains the core implementation packages for bustle.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - types: asset kinds, derived and minified path naming
//   - resolver: logical path lookup across asset sources and the static root
//   - manifest: the bundle manifest (YAML, JSON or JSONC)
//   - identity: build ids and per-bundle hashes read from the build file
//   - staleness: when a derived CSS file must be regenerated
//   - compiler: lessc invocation with search paths, timeouts and atomic output
//   - bundle: debug and production markup for a bundle
//   - minify: production aggregation, minification and content hashing
//   - watcher: fsnotify-driven LESS recompilation
//   - config, logging, errors, validation, version: ambient support
//
// # Data Flow
//
// Configuration builds a resolver, a manifest and an identity store once at
// startup. The bundle builder reads all three and asks the compiler for
// derived CSS in debug mode. The production build writes minified bundles
// and a new build file, which the next process start picks up.
package internal
