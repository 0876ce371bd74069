// Package storage is the probe for S3-compatible object storage.
package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ilkoid/aiops-assistant/pkg/config"
	"github.com/ilkoid/aiops-assistant/pkg/s3storage"
	"github.com/ilkoid/aiops-assistant/pkg/tools"
	"github.com/ilkoid/aiops-assistant/pkg/utils"
)

const (
	FuncListBuckets = "storage_list_buckets"
	FuncListObjects = "storage_list_objects"
)

// Probe implements tools.Probe over an S3 client.
type Probe struct {
	client     s3storage.ClientInterface
	maxObjects int
}

// New creates the probe. maxObjects <= 0 uses config.DefaultMaxObjects.
func New(client s3storage.ClientInterface, maxObjects int) *Probe {
	if maxObjects <= 0 {
		maxObjects = config.DefaultMaxObjects
	}
	return &Probe{client: client, maxObjects: maxObjects}
}

// FromConfig builds the probe for the configured endpoint.
func FromConfig(cfg config.StorageProbeConfig) (*Probe, error) {
	client, err := s3storage.New(cfg)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "probes.storage.endpoint", Message: "cannot create storage client", Err: err}
	}
	utils.Info("Storage probe configured", "endpoint", cfg.Endpoint, "access_key", utils.MaskKey(cfg.AccessKey))
	return New(client, cfg.MaxObjects), nil
}

func (p *Probe) Name() string { return "storage" }

func (p *Probe) FunctionList() []tools.FunctionSpec {
	return []tools.FunctionSpec{
		{
			Name: FuncListBuckets,
			Description: "Use this function when you need the list of object storage buckets. " +
				`The result is CSV data with the columns "Bucket Name", "Created".`,
			Parameters: tools.JSONSchema{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			},
		},
		{
			Name: FuncListObjects,
			Description: "Use this function when you need the objects stored in a bucket, optionally under a key prefix. " +
				fmt.Sprintf("At most %d objects are returned. ", p.maxObjects) +
				`The result is CSV data with the columns "Key", "Size", "Last Modified".`,
			Parameters: tools.JSONSchema{
				"type": "object",
				"properties": map[string]any{
					"bucket": map[string]any{
						"type":        "string",
						"description": "Bucket name, as returned by storage_list_buckets.",
					},
					"prefix": map[string]any{
						"type":        "string",
						"description": "Key prefix to list under; empty lists the whole bucket.",
						"default":     "",
					},
				},
				"required": []string{"bucket"},
			},
		},
	}
}

func (p *Probe) FunctionCall(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case FuncListBuckets:
		return p.ListBuckets(ctx)

	case FuncListObjects:
		bucket, _ := args["bucket"].(string)
		if strings.TrimSpace(bucket) == "" {
			return "", fmt.Errorf("argument \"bucket\" must be a non-empty string")
		}
		prefix, ok := args["prefix"].(string)
		if !ok && args["prefix"] != nil {
			return "", fmt.Errorf("argument \"prefix\" must be a string, got %T", args["prefix"])
		}
		return p.ListObjects(ctx, bucket, prefix)

	default:
		return tools.UnknownFunctionResult(name), nil
	}
}

// ListBuckets returns the buckets as CSV.
func (p *Probe) ListBuckets(ctx context.Context) (string, error) {
	buckets, err := p.client.ListBuckets(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 list buckets: %w", err)
	}

	rows := [][]string{{"Bucket Name", "Created"}}
	for _, b := range buckets {
		rows = append(rows, []string{b.Name, b.CreationDate.UTC().Format(time.RFC3339)})
	}
	return writeCSV(rows)
}

// ListObjects returns up to maxObjects objects of bucket under prefix as CSV.
// A truncated listing ends with a note line after the CSV data.
func (p *Probe) ListObjects(ctx context.Context, bucket, prefix string) (string, error) {
	objects, truncated, err := p.client.ListObjects(ctx, bucket, prefix, p.maxObjects)
	if err != nil {
		return "", fmt.Errorf("s3 list objects in %s: %w", bucket, err)
	}

	rows := [][]string{{"Key", "Size", "Last Modified"}}
	for _, obj := range objects {
		rows = append(rows, []string{
			obj.Key,
			strconv.FormatInt(obj.Size, 10),
			obj.LastModified.UTC().Format(time.RFC3339),
		})
	}

	out, err := writeCSV(rows)
	if err != nil {
		return "", err
	}
	if truncated {
		out += fmt.Sprintf("Listing truncated after %d objects.\n", p.maxObjects)
	}

	utils.Debug("Listed objects", "bucket", bucket, "prefix", prefix, "count", len(objects), "truncated", truncated)
	return out, nil
}

func writeCSV(rows [][]string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("failed to write csv: %w", err)
	}
	return sb.String(), nil
}

var _ tools.Probe = (*Probe)(nil)
