package pinning

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultPinataURL = "https://api.pinata.cloud"
	pinFilePath      = "/pinning/pinFileToIPFS"
	unpinPath        = "/pinning/unpin/"
)

type pinataConfig struct {
	APIURL  string `json:"api_url"`
	JWT     string `json:"jwt"`
	Timeout string `json:"timeout"`
}

// PinataPinner uses a static bearer JWT against a Pinata-compatible API.
type PinataPinner struct {
	baseURL string
	jwt     string
	client  *http.Client
}

func init() {
	Register("pinata", createPinata)
}

func createPinata(args any) (Pinner, error) {
	cfg := &pinataConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.JWT == "" {
		return nil, fmt.Errorf("pinata jwt is required")
	}
	client := &http.Client{}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("pinata timeout: %w", err)
		}
		client.Timeout = d
	}
	return NewPinataPinner(cfg.APIURL, cfg.JWT, client), nil
}

func NewPinataPinner(baseURL, jwt string, client *http.Client) *PinataPinner {
	if baseURL == "" {
		baseURL = DefaultPinataURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &PinataPinner{
		baseURL: strings.TrimRight(baseURL, "/"),
		jwt:     jwt,
		client:  client,
	}
}

type pinataResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Pin streams r as the multipart "file" field.
func (p *PinataPinner) Pin(ctx context.Context, name string, r io.Reader) (*PinResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+pinFilePath, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.jwt)

	resp, err := p.client.Do(req)
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, fmt.Errorf("upload to IPFS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upload to IPFS failed with status: %d", resp.StatusCode)
	}

	var out pinataResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode pin response: %w", err)
	}
	if out.IpfsHash == "" {
		return nil, fmt.Errorf("pin response has no IpfsHash")
	}

	res := &PinResult{Hash: out.IpfsHash, Size: out.PinSize}
	if ts, err := time.Parse(time.RFC3339, out.Timestamp); err == nil {
		res.Timestamp = ts
	}
	return res, nil
}

func (p *PinataPinner) Unpin(ctx context.Context, hash string) error {
	if err := ValidateHash(hash); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.baseURL+unpinPath+hash, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.jwt)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("unpin %s: %w", hash, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("failed to unpin: %d", resp.StatusCode)
	}
	return nil
}
