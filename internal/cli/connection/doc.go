// Package connection provides the memkv-cli transports.
//
//   - client.go: the TCP text protocol client
//   - http.go: the operational HTTP endpoint (health, readiness)
package connection
