// Package stub provides an in-process live backend for tests, the scenario
// harness and the CLI's --stub mode.
//
// A Server simulates an EDS server and the per-connection state a real
// backend keeps. A Loader serves Servers under the module file names
// package backend derives, so live.Client runs against them unchanged:
//
//	srv := stub.NewServer(stub.Point{IESS: "A1", Value: 42})
//	l := stub.NewLoader()
//	l.Register("9.2", srv)
//	c, err := live.New("9.2", live.WithLoader(l))
//
// Older backends are simulated by omitting exports, see Pre92 and Pre73.
// Failures are injected per export with Server.Fail.
package stub
