package baas

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Khangurai/zap-admin/internal/entities"
)

// Upload stores body at bucket/path using the service key.
func (c *Client) Upload(ctx context.Context, bucket, path, contentType string, body io.Reader, upsert bool) error {
	if bucket == "" || path == "" {
		return fmt.Errorf("bucket and path are required: %w", entities.ErrInvalidArgument)
	}
	headers := map[string]string{
		"Content-Type":  contentType,
		"Cache-Control": "3600",
		"x-upsert":      strconv.FormatBool(upsert),
	}
	return c.call(ctx, "upload", http.MethodPost, objectPath(bucket, path), c.serviceKey, headers, body, nil)
}

// Remove deletes the given object paths. An empty list is a no-op.
func (c *Client) Remove(ctx context.Context, bucket string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	return c.call(ctx, "remove", http.MethodDelete, "/storage/v1/object/"+url.PathEscape(bucket), c.serviceKey, nil,
		map[string][]string{"prefixes": paths}, nil)
}

// PublicURL is the unauthenticated download URL of an object in a public bucket.
func (c *Client) PublicURL(bucket, path string) string {
	return c.baseURL + "/storage/v1/object/public/" + url.PathEscape(bucket) + "/" + escapeObjectPath(path)
}

// ObjectPath recovers the object path from a PublicURL for bucket.
func (c *Client) ObjectPath(bucket, publicURL string) (string, bool) {
	prefix := c.baseURL + "/storage/v1/object/public/" + url.PathEscape(bucket) + "/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	p, err := url.PathUnescape(strings.SplitN(strings.TrimPrefix(publicURL, prefix), "?", 2)[0])
	if err != nil || p == "" {
		return "", false
	}
	return p, true
}

func objectPath(bucket, path string) string {
	return "/storage/v1/object/" + url.PathEscape(bucket) + "/" + escapeObjectPath(path)
}

func escapeObjectPath(p string) string {
	parts := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
