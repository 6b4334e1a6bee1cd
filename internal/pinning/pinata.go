package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultPinataEndpoint = "https://api.pinata.cloud/pinning/pinJSONToIPFS"

// Pinata pins JSON documents to IPFS through the Pinata API.
type Pinata struct {
	endpoint  string
	apiKey    string
	secretKey string
	client    *http.Client
}

func NewPinata(endpoint, apiKey, secretKey string, timeout time.Duration) *Pinata {
	if endpoint == "" {
		endpoint = DefaultPinataEndpoint
	}
	return &Pinata{
		endpoint:  endpoint,
		apiKey:    apiKey,
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type pinataRequest struct {
	Content  json.RawMessage `json:"pinataContent"`
	Metadata struct {
		Name string `json:"name,omitempty"`
	} `json:"pinataMetadata"`
}

type pinataResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Pin uploads payload and returns its IPFS CID.
func (p *Pinata) Pin(ctx context.Context, name string, payload json.RawMessage) (string, error) {
	body := pinataRequest{Content: payload}
	body.Metadata.Name = name
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode pin request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("pinata_api_key", p.apiKey)
	req.Header.Set("pinata_secret_api_key", p.secretKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pinata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("pinata returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out pinataResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode pinata response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("pinata response has no IpfsHash")
	}
	return out.IpfsHash, nil
}
