package signals

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"signal_router/pkg/graph"
)

// DefaultOverpassURL is the public Overpass interpreter endpoint.
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

// maxResponseBytes bounds how much of an Overpass response is read.
const maxResponseBytes = 32 << 20

// Overpass fetches traffic signals from an Overpass API interpreter.
type Overpass struct {
	BaseURL string
	Client  *http.Client
}

// NewOverpass returns an Overpass client for baseURL. An empty baseURL uses
// DefaultOverpassURL.
func NewOverpass(baseURL string) *Overpass {
	if baseURL == "" {
		baseURL = DefaultOverpassURL
	}
	return &Overpass{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Query returns the Overpass QL selecting every signal node inside b.
func Query(b BBox) string {
	return fmt.Sprintf("[out:xml][timeout:25];\nnode[highway=traffic_signals](%s);\nout;", b)
}

// FetchSignals returns the traffic signals inside b.
func (o *Overpass) FetchSignals(ctx context.Context, b BBox) ([]graph.Waypoint, error) {
	u := o.BaseURL + "?data=" + url.QueryEscape(Query(b))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return ReadXML(ctx, io.LimitReader(resp.Body, maxResponseBytes), Options{BBox: b})
}
