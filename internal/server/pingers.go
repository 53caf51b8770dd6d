package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
// It satisfies the Pinger interface and is used by GET /api/ready.
type QdrantPinger struct {
	// client is the Qdrant gRPC client to probe.
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
// Returns nil if Qdrant is reachable, or a descriptive error otherwise.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	_, err := p.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// EndpointPinger probes an HTTP dependency (the OCR service, an Ollama host)
// by issuing a GET request to its base URL. Any response — including an auth
// rejection — counts as reachable; only transport failures are reported.
type EndpointPinger struct {
	// name identifies the dependency in readiness responses.
	name string
	// url is the endpoint probed.
	url string
	// client is the HTTP client used for probes.
	client *http.Client
}

// NewEndpointPinger constructs an EndpointPinger for the given label and URL.
func NewEndpointPinger(name, url string) *EndpointPinger {
	return &EndpointPinger{name: name, url: url, client: http.DefaultClient}
}

// Name returns the dependency label used in readiness responses.
func (p *EndpointPinger) Name() string { return p.name }

// Ping issues a GET against the endpoint and reports transport failures.
func (p *EndpointPinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("create probe request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}
