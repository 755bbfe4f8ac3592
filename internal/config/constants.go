package config

import "time"

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Chain RPC timeouts
const (
	RPCRequestTimeout   = 30 * time.Second
	ReceiptPollInterval = 2 * time.Second
	ReceiptWaitTimeout  = 90 * time.Second
)

// Torii state reads
const ToriiRequestTimeout = 10 * time.Second

// Database ping timeout for startup checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute
