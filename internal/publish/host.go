package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/fieldpress/pressroom/internal/artifact"
	"github.com/fieldpress/pressroom/internal/logfields"
)

// publishHost deploys siteDir to the static-hosting service: the site is
// zipped in memory and POSTed to the site's deploy endpoint with bearer
// auth, bounded by the target's time ceiling.
func (p *Publisher) publishHost(ctx context.Context, siteDir string) (Destination, error) {
	t := p.cfg.Host
	ctx, cancel := context.WithTimeout(ctx, t.TimeoutDuration())
	defer cancel()

	dest := Destination{Detail: t.SiteID}

	var buf bytes.Buffer
	if err := artifact.WriteZip(&buf, siteDir, ""); err != nil {
		return dest, fmt.Errorf("zip site for deploy: %w", err)
	}

	endpoint := deployURL(t.APIURL, t.SiteID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return dest, fmt.Errorf("build deploy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/zip")
	if t.Token != "" {
		req.Header.Set("Authorization", "Bearer "+t.Token)
	}

	slog.Debug("Uploading site", logfields.URL(endpoint), logfields.Count(buf.Len()))
	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return dest, fmt.Errorf("deploy to %s timed out: %w", endpoint, context.DeadlineExceeded)
		}
		return dest, fmt.Errorf("host deploy: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return dest, &AuthError{URL: endpoint, Status: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound:
		return dest, &NotFoundError{URL: endpoint, Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return dest, &APIError{URL: endpoint, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	// The deploy ID is informative only; hosts that return no body still
	// count as deployed.
	var dr struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}
	_ = json.Unmarshal(body, &dr)

	slog.Info("Host deploy accepted",
		slog.String("site_id", t.SiteID),
		slog.String("deploy_id", dr.ID))
	dest.DeployID = dr.ID
	return dest, nil
}

func deployURL(apiURL, siteID string) string {
	return strings.TrimRight(apiURL, "/") + "/sites/" + url.PathEscape(siteID) + "/deploys"
}
