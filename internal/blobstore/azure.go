package blobstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"salespulse/internal/errors"
)

// AzureOptions tunes the Azure client.
type AzureOptions struct {
	// MaxRetries caps SDK retries. Negative disables retries, zero keeps the SDK default.
	MaxRetries int32
	// Transport overrides the HTTP transport.
	Transport policy.Transporter
}

// AzureStore is an ObjectStore backed by Azure Blob Storage.
// The client is created on first use so a credential failure surfaces as an
// operation error rather than at startup.
type AzureStore struct {
	accountURL string
	creds      CredentialProvider
	opts       AzureOptions
	logger     *slog.Logger

	mu     sync.Mutex
	client *azblob.Client
}

// NewAzureStore returns a store for accountURL. An empty URL yields
// errors.ErrStoreNotConfigured.
func NewAzureStore(accountURL string, creds CredentialProvider, opts AzureOptions, logger *slog.Logger) (*AzureStore, error) {
	if accountURL == "" {
		return nil, errors.ErrStoreNotConfigured
	}
	if creds == nil {
		creds = DefaultCredentialProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AzureStore{
		accountURL: accountURL,
		creds:      creds,
		opts:       opts,
		logger:     logger.With(slog.String("component", "azure_blob_store")),
	}, nil
}

// AccountURL returns the configured account endpoint.
func (s *AzureStore) AccountURL() string {
	return s.accountURL
}

func (s *AzureStore) getClient() (*azblob.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	cred, err := s.creds.Credential()
	if err != nil {
		return nil, err
	}

	clientOpts := &azblob.ClientOptions{}
	if s.opts.MaxRetries != 0 {
		clientOpts.Retry = policy.RetryOptions{MaxRetries: s.opts.MaxRetries}
	}
	if s.opts.Transport != nil {
		clientOpts.Transport = s.opts.Transport
	}

	client, err := azblob.NewClient(s.accountURL, cred, clientOpts)
	if err != nil {
		return nil, errors.NewConfigError("create blob service client", err).
			WithContext("account_url", s.accountURL)
	}
	s.client = client
	return client, nil
}

// EnsureContainer implements ObjectStore
func (s *AzureStore) EnsureContainer(ctx context.Context, container string) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}

	_, err = client.CreateContainer(ctx, container, nil)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "Container created", slog.String("container", container))
		return nil
	case bloberror.HasCode(err, bloberror.ContainerAlreadyExists):
		s.logger.DebugContext(ctx, "Container already exists", slog.String("container", container))
		return nil
	default:
		return mapError(err, "create container", container, "")
	}
}

// PutObject implements ObjectStore. Existing blobs are overwritten.
func (s *AzureStore) PutObject(ctx context.Context, container, key string, data []byte, contentType string) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}

	opts := &azblob.UploadBufferOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)}
	}

	if _, err := client.UploadBuffer(ctx, container, key, data, opts); err != nil {
		return mapError(err, "upload blob", container, key)
	}

	s.logger.InfoContext(ctx, "Blob uploaded",
		slog.String("container", container),
		slog.String("key", key),
		slog.Int("bytes", len(data)))
	return nil
}

// GetObject implements ObjectStore
func (s *AzureStore) GetObject(ctx context.Context, container, key string) ([]byte, error) {
	client, err := s.getClient()
	if err != nil {
		return nil, err
	}

	resp, err := client.DownloadStream(ctx, container, key, nil)
	if err != nil {
		return nil, mapError(err, "download blob", container, key)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetworkError("read blob body", err).
			WithContext("container", container).
			WithContext("key", key)
	}
	return data, nil
}

// mapError converts SDK errors into AppErrors. Missing blobs and containers
// wrap errors.ErrObjectNotFound.
func mapError(err error, op, container, key string) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return errors.NewNotFoundError(fmt.Sprintf("%s/%s", container, key),
			fmt.Errorf("%w: %w", errors.ErrObjectNotFound, err))
	}

	var respErr *azcore.ResponseError
	if stderrors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.NewPermissionError(op, err).
				WithContext("container", container).
				WithContext("code", respErr.ErrorCode)
		case http.StatusNotFound:
			return errors.NewNotFoundError(fmt.Sprintf("%s/%s", container, key),
				fmt.Errorf("%w: %w", errors.ErrObjectNotFound, err))
		}
	}

	appErr := errors.NewStorageError(op, err).WithContext("container", container)
	if key != "" {
		appErr = appErr.WithContext("key", key)
	}
	return appErr
}
