package tileindex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// RemoteIndex reads a tile over HTTP. Only the header bytes are fetched,
// with a Range request; servers that ignore Range are tolerated.
type RemoteIndex struct {
	client *http.Client

	mu    sync.Mutex
	info  Info
	err   error
	valid bool
}

// NewRemoteIndex returns an unloaded remote index using client.
func NewRemoteIndex(client *http.Client) *RemoteIndex {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteIndex{client: client}
}

// Load fetches and decodes the public header of the tile at url.
func (r *RemoteIndex) Load(ctx context.Context, url string) error {
	info, err := r.fetch(ctx, url)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	r.valid = err == nil
	if err == nil {
		r.info = info
	}
	return err
}

func (r *RemoteIndex) fetch(ctx context.Context, url string) (Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Info{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", HeaderProbeSize-1))

	resp, err := r.client.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("fetch tile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return Info{}, fmt.Errorf("fetch tile: unexpected status %s", resp.Status)
	}

	buf, err := io.ReadAll(io.LimitReader(resp.Body, HeaderProbeSize))
	if err != nil {
		return Info{}, fmt.Errorf("read header: %w", err)
	}
	return decodeHeader(url, buf)
}

// IsValid reports whether the last Load succeeded.
func (r *RemoteIndex) IsValid() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.valid
}

// Err returns the error of the last Load.
func (r *RemoteIndex) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Info returns the decoded header.
func (r *RemoteIndex) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.info
}
