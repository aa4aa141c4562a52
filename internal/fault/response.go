// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

package fault

// Response is the canonical error body returned on every non-2xx response.
// It is constructed once per failing request and never mutated afterwards.
type Response struct {
	Success    bool                `json:"success"`
	StatusCode int                 `json:"statusCode"`
	ErrorCode  string              `json:"errorCode"`
	Message    string              `json:"message"`
	Details    map[string][]string `json:"details"`
	Timestamp  string              `json:"timestamp"`
	Path       string              `json:"path"`
	RequestID  string              `json:"requestId"`
}

// RequestMeta carries the request attributes the classifier stamps onto
// responses and log lines. It never contains credentials or tokens.
type RequestMeta struct {
	Method     string
	Path       string
	UserAgent  string
	RemoteAddr string
	RequestID  string
}
