// setup-db creates the student indexes on the configured storage backend
// and exits. It is safe to run any number of times and is never part of
// the request path: a failure here does not affect a running server.
//
//	go run ./cmd/setup-db --config=config/local.yaml
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
