// Package httputil provides the pooled HTTP client and bounded-concurrency
// semaphore behind WaProtect's calls to the AI classifier.
package httputil

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxResponseSize bounds response body reads. Classifier responses are small
// JSON documents; anything past this limit is treated as garbage.
const MaxResponseSize = 4 * 1024 * 1024 // 4MB

// pooledTransport backs the shared client so TCP connections are reused
// across classifier calls instead of being dialed per message.
var pooledTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          64,
	MaxIdleConnsPerHost:   8,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// ClassifierTimeout caps a remote classification call. A group chat pipeline
// cannot hang a minute on one message.
const ClassifierTimeout = 15 * time.Second

var (
	classifierClient *http.Client
	clientOnce       sync.Once
)

// Client returns the shared classifier client. Callers must not mutate the
// returned client.
func Client() *http.Client {
	clientOnce.Do(func() {
		classifierClient = &http.Client{
			Timeout:   ClassifierTimeout,
			Transport: pooledTransport,
		}
	})
	return classifierClient
}

// ReadResponseBody reads a body with a size cap. Pass maxSize <= 0 for the
// package default.
func ReadResponseBody(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxResponseSize
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// DrainAndClose drains and closes a response body so the connection can
// return to the pool.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
		_ = body.Close()
	}
}
