// Package main is the entry point for the codepair backend server.
//
// The server hosts live coding interview sessions: a shared code
// buffer and language selection replicated to every participant over
// WebSocket, plus sandboxed execution of the buffer.
//
// The server provides:
//   - REST API for session lifecycle
//   - WebSocket fan-out for real-time buffer and language sync
//   - Sandboxed JavaScript (goja) and Python (subprocess) execution
//   - Rate limiting and Prometheus metrics
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 3001
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
