package opower

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// loginURL resolves a path against the utility's login domain, honoring the
// test override.
func (t *Transport) loginURL(u Utility, path string) string {
	base := t.LoginBase
	if base == "" {
		base = "https://" + u.LoginDomain()
	}
	return base + path
}

// postJSON posts a JSON body and decodes a JSON response. Login endpoints
// report failure both via HTTP status and via fields in the body, so callers
// inspect the decoded value as well.
func (t *Transport) postJSON(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
