package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/outreach-tracker/outreach-tracker/internal/telemetry"
)

// Entry is the wire form of a committed audit row sent to external
// destinations. It mirrors the database row; shipping happens after commit,
// so an Entry always describes a mutation that actually took effect.
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"`
	TableName string                 `json:"table_name"`
	RecordID  int64                  `json:"record_id"`
	UserID    int64                  `json:"user_id"`
	Changes   map[string]interface{} `json:"changes"`
}

// Shipper delivers audit entries to an external destination.
type Shipper interface {
	// Ship sends an audit entry to the destination
	Ship(ctx context.Context, entry *Entry) error
	// Close cleans up any resources
	Close() error
}

// ShipperConfig holds configuration for a single audit shipper
type ShipperConfig struct {
	// Enabled determines if this shipper is active
	Enabled bool
	// Type is the shipper type (webhook, file)
	Type string
	// Webhook configuration
	Webhook *WebhookConfig
	// File configuration
	File *FileConfig
}

// WebhookConfig holds webhook shipper configuration
type WebhookConfig struct {
	// URL is the webhook endpoint
	URL string
	// Headers are additional HTTP headers to send
	Headers map[string]string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

// FileConfig holds file shipper configuration
type FileConfig struct {
	// Path is the log file path
	Path string
	// MaxSizeMB is the maximum file size before rotation
	MaxSizeMB int
	// MaxBackups is the number of backup files to keep
	MaxBackups int
}

// MultiShipper ships to multiple destinations
type MultiShipper struct {
	shippers []Shipper
	mu       sync.RWMutex
}

// NewMultiShipper creates a new multi-shipper from configs
func NewMultiShipper(configs []ShipperConfig) (*MultiShipper, error) {
	ms := &MultiShipper{
		shippers: make([]Shipper, 0),
	}

	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		var shipper Shipper
		var err error

		switch cfg.Type {
		case "webhook":
			if cfg.Webhook == nil {
				return nil, fmt.Errorf("webhook config is required for webhook shipper")
			}
			shipper, err = NewWebhookShipper(cfg.Webhook)
		case "file":
			if cfg.File == nil {
				return nil, fmt.Errorf("file config is required for file shipper")
			}
			shipper, err = NewFileShipper(cfg.File)
		default:
			return nil, fmt.Errorf("unknown shipper type: %s", cfg.Type)
		}

		if err != nil {
			return nil, fmt.Errorf("failed to create %s shipper: %w", cfg.Type, err)
		}

		ms.shippers = append(ms.shippers, shipper)
	}

	return ms, nil
}

// Ship sends an entry to all configured shippers. A failing destination never
// prevents delivery to the others; failures are counted and logged.
func (ms *MultiShipper) Ship(ctx context.Context, entry *Entry) error {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var lastErr error
	for _, shipper := range ms.shippers {
		if err := shipper.Ship(ctx, entry); err != nil {
			lastErr = err
			telemetry.AuditShipErrorsTotal.Inc()
			slog.Warn("audit shipper delivery failed", "error", err)
		}
	}
	return lastErr
}

// Close closes all shippers
func (ms *MultiShipper) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var lastErr error
	for _, shipper := range ms.shippers {
		if err := shipper.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// WebhookShipper POSTs audit entries to an HTTP endpoint
type WebhookShipper struct {
	cfg    *WebhookConfig
	client *http.Client
}

// NewWebhookShipper creates a new webhook shipper
func NewWebhookShipper(cfg *WebhookConfig) (*WebhookShipper, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &WebhookShipper{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Ship sends an entry to the webhook
func (ws *WebhookShipper) Ship(ctx context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ws.cfg.URL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range ws.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := ws.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Close closes the webhook shipper
func (ws *WebhookShipper) Close() error {
	return nil
}

// FileShipper appends audit entries to a local file, one JSON object per line
type FileShipper struct {
	cfg  *FileConfig
	file *os.File
	mu   sync.Mutex
}

// NewFileShipper creates a new file shipper
func NewFileShipper(cfg *FileConfig) (*FileShipper, error) {
	file, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &FileShipper{
		cfg:  cfg,
		file: file,
	}, nil
}

// Ship writes an entry to the file
func (fs *FileShipper) Ship(ctx context.Context, entry *Entry) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	// Check file size for rotation
	if fs.cfg.MaxSizeMB > 0 {
		info, err := fs.file.Stat()
		if err == nil && info.Size() > int64(fs.cfg.MaxSizeMB)*1024*1024 {
			if err := fs.rotate(); err != nil {
				slog.Warn("failed to rotate audit log file", "error", err)
			}
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	// Write with newline
	if _, err := fs.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}

	return nil
}

// rotate rotates the log file
func (fs *FileShipper) rotate() error {
	// Close current file
	if err := fs.file.Close(); err != nil {
		return err
	}

	// Rotate existing backups
	for i := fs.cfg.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", fs.cfg.Path, i)
		newPath := fmt.Sprintf("%s.%d", fs.cfg.Path, i+1)
		_ = os.Rename(oldPath, newPath)
	}

	// Rename current to .1
	_ = os.Rename(fs.cfg.Path, fs.cfg.Path+".1")

	// Remove oldest if needed
	if fs.cfg.MaxBackups > 0 {
		_ = os.Remove(fmt.Sprintf("%s.%d", fs.cfg.Path, fs.cfg.MaxBackups+1))
	}

	// Open new file
	file, err := os.OpenFile(fs.cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	fs.file = file
	return nil
}

// Close closes the file
func (fs *FileShipper) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.file.Close()
}
