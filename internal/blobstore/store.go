// Package blobstore abstracts the remote object store that receives the
// published KPI document.
//
// AzureStore talks to Azure Blob Storage, MemoryStore keeps objects in
// process for tests and local runs.
package blobstore

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"salespulse/internal/errors"
)

// JSONContentType is set on every uploaded KPI document.
const JSONContentType = "application/json"

// ObjectStore is the minimal blob API the pipeline and read handlers need.
type ObjectStore interface {
	// EnsureContainer creates the container. An existing container is not an error.
	EnsureContainer(ctx context.Context, container string) error
	// PutObject writes data under key, replacing any previous object.
	PutObject(ctx context.Context, container, key string, data []byte, contentType string) error
	// GetObject returns the object bytes, or an error wrapping errors.ErrObjectNotFound.
	GetObject(ctx context.Context, container, key string) ([]byte, error)
}

// CredentialProvider supplies the token credential used to authenticate to the store.
type CredentialProvider interface {
	Credential() (azcore.TokenCredential, error)
}

// DefaultCredentialProvider resolves credentials from the environment, workload
// identity, managed identity or a developer CLI login, in that order.
type DefaultCredentialProvider struct {
	TenantID string
}

// Credential implements CredentialProvider
func (p DefaultCredentialProvider) Credential() (azcore.TokenCredential, error) {
	var opts *azidentity.DefaultAzureCredentialOptions
	if p.TenantID != "" {
		opts = &azidentity.DefaultAzureCredentialOptions{TenantID: p.TenantID}
	}
	cred, err := azidentity.NewDefaultAzureCredential(opts)
	if err != nil {
		return nil, errors.NewConfigError("create default azure credential", err)
	}
	return cred, nil
}

// StaticCredentialProvider returns a fixed credential.
type StaticCredentialProvider struct {
	Cred azcore.TokenCredential
}

// Credential implements CredentialProvider
func (p StaticCredentialProvider) Credential() (azcore.TokenCredential, error) {
	if p.Cred == nil {
		return nil, errors.NewConfigError("static credential is nil", nil)
	}
	return p.Cred, nil
}
