package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

// GCS is a Store backed by a Google Cloud Storage bucket, accessed through
// the JSON API with application default credentials.
type GCS struct {
	svc     *storage.Service
	bucket  string
	uniform bool
}

var _ Store = (*GCS)(nil)

// NewGCS connects to bucket. uniform mirrors the bucket's uniform
// bucket-level access setting; buckets with uniform access reject
// per-object ACLs, so public-read puts against them fail up front.
func NewGCS(ctx context.Context, bucket string, uniform bool) (*GCS, error) {
	client, err := google.DefaultClient(ctx, storage.DevstorageReadWriteScope)
	if err != nil {
		return nil, fmt.Errorf("could not load google credentials: %w", err)
	}
	svc, err := storage.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("could not create storage service: %w", err)
	}
	g := &GCS{svc: svc, bucket: bucket, uniform: uniform}
	if _, err = svc.Buckets.Get(bucket).Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("could not access bucket '%s': %w", bucket, err)
	}
	return g, nil
}

func (g *GCS) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.svc.Objects.Get(g.bucket, key).Context(ctx).Do()
	switch {
	case err == nil:
		return true, nil
	case isStatus(err, http.StatusNotFound):
		return false, nil
	}
	return false, &Error{Op: "stat", Key: key, Err: err}
}

func (g *GCS) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	if opts.PublicRead && g.uniform {
		return &Error{Op: "put", Key: key, Err: errors.New("bucket has uniform access control, cannot set object ACL")}
	}
	obj := &storage.Object{
		Name:            key,
		ContentType:     opts.ContentType,
		ContentEncoding: opts.ContentEncoding,
		CacheControl:    opts.CacheControl,
	}
	call := g.svc.Objects.Insert(g.bucket, obj).
		Media(bytes.NewReader(data), googleapi.ContentType(opts.ContentType)).
		Context(ctx)
	if opts.PublicRead {
		call = call.PredefinedAcl("publicRead")
	}
	if _, err := call.Do(); err != nil {
		return &Error{Op: "put", Key: key, Err: err}
	}
	return nil
}

func (g *GCS) Get(ctx context.Context, key string) (Object, error) {
	meta, err := g.svc.Objects.Get(g.bucket, key).Context(ctx).Do()
	switch {
	case isStatus(err, http.StatusNotFound):
		return Object{}, fmt.Errorf("object '%s': %w", key, ErrNotFound)
	case err != nil:
		return Object{}, &Error{Op: "stat", Key: key, Err: err}
	}

	res, err := g.svc.Objects.Get(g.bucket, key).Context(ctx).Download()
	if err != nil {
		return Object{}, &Error{Op: "get", Key: key, Err: err}
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return Object{}, &Error{Op: "read", Key: key, Err: err}
	}
	return Object{
		Data:            data,
		ContentType:     meta.ContentType,
		ContentEncoding: meta.ContentEncoding,
	}, nil
}

func (g *GCS) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	pageToken := ""
	for {
		call := g.svc.Objects.List(g.bucket).Fields("nextPageToken, items(name)").MaxResults(1000)
		if prefix != "" {
			call = call.Prefix(prefix)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		r, err := call.Context(ctx).Do()
		if err != nil {
			return nil, &Error{Op: "list", Err: err}
		}
		for _, item := range r.Items {
			keys = append(keys, item.Name)
		}
		pageToken = r.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return keys, nil
}

func isStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}
