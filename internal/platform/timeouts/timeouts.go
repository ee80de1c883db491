// Package timeouts holds the durations shared by the marketplace server and CLI.
package timeouts

import "time"

// GRPCDial caps how long a client waits for the server to report healthy.
const GRPCDial = 2 * time.Second

// GRPCRequest caps a single CLI request.
const GRPCRequest = 5 * time.Second

// ReadHeader limits how long the metrics HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits graceful shutdown of the gRPC and metrics servers.
const Shutdown = 5 * time.Second
