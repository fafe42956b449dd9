package export

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"invoicing-backend/config"
)

// Uploader puts a rendered invoice somewhere reachable and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// GCSUploader stores objects in a Google Cloud Storage bucket.
type GCSUploader struct {
	client *storage.Client
	bucket string
}

// NewGCSUploader prefers ADC; credentialsJSON overrides it when set.
func NewGCSUploader(ctx context.Context, bucket, credentialsJSON string) (*GCSUploader, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

func (g *GCSUploader) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	wc := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType
	wc.Metadata = map[string]string{
		"x-goog-acl": "public-read",
	}
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("failed to upload to Google Cloud Storage: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, objectName), nil
}

func (g *GCSUploader) Close() error {
	return g.client.Close()
}

const (
	ShareUpload  = "upload"
	ShareMessage = "message"
)

type ShareResult struct {
	Method  string `json:"method"`
	URL     string `json:"url"`
	Message string `json:"message,omitempty"`
}

// Sharer shares a rendered invoice. The invoice is already in the ledger when
// this runs, so Share never fails: any upload problem falls back to a
// pre-filled message link.
type Sharer struct {
	uploader Uploader
	logger   *logrus.Logger
	timeout  time.Duration
}

// NewSharer accepts a nil uploader; every share then uses the message link.
func NewSharer(uploader Uploader, logger *logrus.Logger) *Sharer {
	return &Sharer{uploader: uploader, logger: logger, timeout: 10 * time.Second}
}

func (s *Sharer) Share(ctx context.Context, v View, png []byte) ShareResult {
	if s.uploader != nil && len(png) > 0 {
		upCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		name := fmt.Sprintf("invoices/%s-%d.png", v.InvoiceID, time.Now().Unix())
		link, err := s.uploader.Upload(upCtx, name, png, "image/png")
		if err == nil {
			return ShareResult{Method: ShareUpload, URL: link}
		}
		config.LogError(s.logger, "export", "Share", "upload failed, falling back to message link", v.InvoiceID, err)
	}

	text := SummaryText(v)
	return ShareResult{Method: ShareMessage, URL: MessageLink(text), Message: text}
}

// SummaryText is the plain-text invoice summary used for the message fallback.
func SummaryText(v View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Invoice Summary from %s*\n", v.ShopName)
	b.WriteString("-----------------------------\n")
	fmt.Fprintf(&b, "Invoice ID: %s\n", v.InvoiceID)
	fmt.Fprintf(&b, "Customer: %s\n", v.CustomerName)
	fmt.Fprintf(&b, "Total Amount: %s\n", v.Total)
	b.WriteString("-----------------------------\n")
	b.WriteString("Thank you for your business!")
	return b.String()
}

// MessageLink opens a WhatsApp compose view pre-filled with text.
func MessageLink(text string) string {
	return "https://wa.me/?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
