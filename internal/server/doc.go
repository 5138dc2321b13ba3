// Package server provides the HTTP live view of a documentation cache.
//
// Endpoints:
//   - GET /                 - HTML page listing modules, with search
//   - GET /summary?ts=      - whether anything was published after ts
//   - GET /modules          - module metadata, sorted by key
//   - GET /module/{path...} - one module Document
//   - GET /search?q=&limit=&page= - ranked search results
//   - GET /dump             - every Document of the current generation
//   - GET /ws               - websocket push of published generations
//   - GET /healthz          - liveness and generation counters
//
// Handlers only read from the cache; the refresher that writes it runs
// elsewhere.
package server
