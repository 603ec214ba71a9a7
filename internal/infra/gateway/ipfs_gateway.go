package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"

	"github.com/totegamma/transparence/internal/domain"
)

// IPFSGateway pins files through the Pinata pinning API.
type IPFSGateway struct {
	client      *http.Client
	endpoint    string
	jwt         string
	gatewayBase string
}

func NewIPFSGateway(endpoint, jwt, gatewayBase string) *IPFSGateway {
	if !strings.HasSuffix(gatewayBase, "/") {
		gatewayBase += "/"
	}
	return &IPFSGateway{
		client:      &http.Client{Timeout: 2 * time.Minute},
		endpoint:    endpoint,
		jwt:         jwt,
		gatewayBase: gatewayBase,
	}
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Upload streams body to the pinning service and returns its content
// reference.
func (g *IPFSGateway) Upload(ctx context.Context, filename, contentType string, body io.Reader) (domain.ContentRef, error) {
	ctx, span := tracer.Start(ctx, "Gateway.IPFS.Upload", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if g.jwt == "" {
		return domain.ContentRef{}, fmt.Errorf("pinata jwt: %w", domain.ErrNotConfigured)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreatePart(fileHeader(filename, contentType))
		if err == nil {
			_, err = io.Copy(part, body)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, pr)
	if err != nil {
		pr.Close()
		return domain.ContentRef{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.jwt)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		span.RecordError(errors.Wrap(err, "Gateway.IPFS.Upload: request failed"))
		return domain.ContentRef{}, fmt.Errorf("failed to upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.ContentRef{}, fmt.Errorf("upload failed: %d %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var pinned pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pinned); err != nil {
		return domain.ContentRef{}, fmt.Errorf("failed to decode pin response: %w", err)
	}
	if pinned.IpfsHash == "" {
		return domain.ContentRef{}, fmt.Errorf("pin response without hash")
	}

	return domain.ContentRef{
		CID: pinned.IpfsHash,
		URL: g.gatewayBase + pinned.IpfsHash,
	}, nil
}

func fileHeader(filename, contentType string) textproto.MIMEHeader {
	if filename == "" {
		filename = "evidence"
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(filename)
	return textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, escaped)},
		"Content-Type":        {contentType},
	}
}
