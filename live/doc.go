// Package live is a client for EDS live servers.
//
// A Client wraps the live backend of one EDS version, loaded at runtime by
// package backend. Operations the loaded backend does not export fail with
// *UnsupportedFunctionError; no call is made. Non-zero backend status codes
// are returned as *BackendError.
//
// # Lifecycle
//
//	c, err := live.New("9.2")
//	defer c.Close()
//	err = c.InitializeAsAgent(live.AccessReadWrite, "myapp", "default", live.ConnectParams{
//		RemoteHost: "eds.example.com",
//		RemotePort: live.DefaultRemotePort,
//	})
//	lid, err := c.FindByIESS("A1.UNIT1@site")
//	err = c.SetInput(lid)
//	for {
//		if err := c.SynchronizeInput(); err != nil && !live.IsRetryable(err) {
//			return err
//		}
//		v, q, err := c.ReadAnalog(lid)
//		...
//	}
//
// Until the server accepts the connection, SynchronizeInput returns
// retryable errors and the client reports StateConnecting.
//
// # Subscriptions
//
// SetInput and SetOutput are reference counted per point. A point is either
// an input or an output of one client, never both.
//
// # Status bits
//
// WriteST and WriteXSTn pass value and mask through unmodified. Alarm
// priority and alarm number are stored minus one in the ST word; use
// EncodeAlarm to build them.
//
// # Concurrency
//
// A Client is not safe for concurrent use and has no internal locking.
// Callers sharing a Client between goroutines must serialize access.
//
// Loading backends of two different EDS versions into one process is not
// supported by the backends themselves and is logged as a warning.
package live
