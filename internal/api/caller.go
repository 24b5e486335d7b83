// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package api

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// callerKey derives the rate-limit identity for a request. An authenticated
// caller identity (X-Caller-ID, set by the fronting auth proxy) wins;
// anonymous requests fall back to a hash of the client IP so raw addresses
// never appear in limiter state or logs.
func callerKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Caller-ID")); id != "" {
		return "caller:" + id
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	sum := sha256.Sum256([]byte(host))
	return "ip:" + hex.EncodeToString(sum[:8])
}
