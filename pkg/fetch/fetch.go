// Package fetch provides the default network implementation of the
// external fetcher collaborator: retrieving a did:webvh log and its
// witness proof file over HTTPS. The core itself (pkg/webvh) never imports
// this package — it only declares the Fetcher interface its resolver
// facade accepts — so callers who don't need network I/O never pull in
// net/http. HTTPFetcher performs no retry or backoff; that is the caller's
// concern.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Mindburn-Labs/didwebvh/pkg/diddoc"
	"github.com/Mindburn-Labs/didwebvh/pkg/webvh"
)

// HTTPFetcher retrieves a did:webvh log and witness proof file over HTTPS,
// satisfying the webvh.Fetcher interface.
type HTTPFetcher struct {
	Client *http.Client
}

var _ webvh.Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher builds a fetcher whose requests are bounded by timeout.
// A zero timeout leaves the client's default (no timeout) in place.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

// FetchLog retrieves and parses the did.jsonl log at did's base URL.
func (f *HTTPFetcher) FetchLog(ctx context.Context, did webvh.DID) ([]diddoc.LogEntry, error) {
	logURL, err := did.LogURL()
	if err != nil {
		return nil, fmt.Errorf("fetch: resolve log url: %w", err)
	}
	body, err := f.get(ctx, logURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: log: %w", err)
	}
	entries, err := webvh.ParseLog(body)
	if err != nil {
		return nil, fmt.Errorf("fetch: parse log: %w", err)
	}
	return entries, nil
}

// FetchWitnessProofs retrieves and parses the did-witness.json file at
// did's base URL.
func (f *HTTPFetcher) FetchWitnessProofs(ctx context.Context, did webvh.DID) ([]diddoc.WitnessProofEntry, error) {
	witnessURL, err := did.WitnessURL()
	if err != nil {
		return nil, fmt.Errorf("fetch: resolve witness url: %w", err)
	}
	body, err := f.get(ctx, witnessURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: witness proofs: %w", err)
	}
	entries, err := webvh.ParseWitnessFile(body)
	if err != nil {
		return nil, fmt.Errorf("fetch: parse witness file: %w", err)
	}
	return entries, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}
