package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/JoeyEinTX/aquamind/internal/errors"
)

// Remote forwards relay actions to an external HTTP relay controller
// exposing POST {baseURL}/relay/{zoneID}/{on|off}. Network failures and
// non-2xx responses are hard errors propagated to the caller.
type Remote struct {
	baseURL string
	client  *http.Client

	mu sync.Mutex
	on map[int]bool
}

// NewRemote creates a remote relay driver.
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		on:      make(map[int]bool),
	}
}

func (r *Remote) Activate(ctx context.Context, zoneID int) error {
	if err := r.post(ctx, zoneID, "on"); err != nil {
		return err
	}
	r.mu.Lock()
	r.on[zoneID] = true
	r.mu.Unlock()
	return nil
}

func (r *Remote) Deactivate(ctx context.Context, zoneID int) error {
	if err := r.post(ctx, zoneID, "off"); err != nil {
		return err
	}
	r.mu.Lock()
	r.on[zoneID] = false
	r.mu.Unlock()
	return nil
}

func (r *Remote) IsActive(zoneID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.on[zoneID]
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) post(ctx context.Context, zoneID int, action string) error {
	url := fmt.Sprintf("%s/relay/%d/%s", r.baseURL, zoneID, action)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return errors.RelayNetworkError(url, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return errors.RelayNetworkError(url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.New(errors.CategoryHardware, errors.SeverityError, "relay controller rejected command").
			WithContext("url", url).
			WithContext("status", resp.StatusCode)
	}

	return nil
}
