package fakes

import (
	"context"
	"fmt"
	"hash/crc32"
	"sync"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FakeGCPSecretManagerClient is an in-memory stand-in for *secretmanager.Client
type FakeGCPSecretManagerClient struct {
	// Versions maps version resource names (projects/X/secrets/Y/versions/Z) to their data
	Versions map[string]*GCPSecretVersionData
	// Errors maps resource names to errors to return
	Errors map[string]error
	// AccessSecretVersionFunc allows custom behavior for AccessSecretVersion
	AccessSecretVersionFunc func(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)

	mu    sync.Mutex
	calls []*secretmanagerpb.AccessSecretVersionRequest
}

// GCPSecretVersionData holds version-specific data for a GCP secret
type GCPSecretVersionData struct {
	// Name is the resolved version name returned by the API
	Name string
	Data []byte
	// Checksum overrides the CRC32C reported with the payload
	Checksum *int64
}

// NewFakeGCPSecretManagerClient creates an empty fake GCP Secret Manager client
func NewFakeGCPSecretManagerClient() *FakeGCPSecretManagerClient {
	return &FakeGCPSecretManagerClient{
		Versions: make(map[string]*GCPSecretVersionData),
		Errors:   make(map[string]error),
	}
}

// AddSecretString adds a secret whose latest version resolves to version 1
func (f *FakeGCPSecretManagerClient) AddSecretString(projectID, secretName, value string) {
	latest := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretName)
	f.Versions[latest] = &GCPSecretVersionData{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/1", projectID, secretName),
		Data: []byte(value),
	}
}

// AddError configures the fake to return an error for a specific resource
func (f *FakeGCPSecretManagerClient) AddError(resourceName string, err error) {
	f.Errors[resourceName] = err
}

// Calls returns the AccessSecretVersion requests received so far
func (f *FakeGCPSecretManagerClient) Calls() []*secretmanagerpb.AccessSecretVersionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*secretmanagerpb.AccessSecretVersionRequest(nil), f.calls...)
}

// AccessSecretVersion fakes the AccessSecretVersion operation
func (f *FakeGCPSecretManagerClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.AccessSecretVersionFunc != nil {
		return f.AccessSecretVersionFunc(ctx, req)
	}

	if err, exists := f.Errors[req.Name]; exists {
		return nil, err
	}

	version, exists := f.Versions[req.Name]
	if !exists {
		return nil, GCPNotFoundError(req.Name)
	}

	sum := int64(crc32.Checksum(version.Data, crc32.MakeTable(crc32.Castagnoli)))
	if version.Checksum != nil {
		sum = *version.Checksum
	}

	return &secretmanagerpb.AccessSecretVersionResponse{
		Name: version.Name,
		Payload: &secretmanagerpb.SecretPayload{
			Data:       version.Data,
			DataCrc32C: &sum,
		},
	}, nil
}

// GCP error helpers

// GCPNotFoundError creates a GCP not found error
func GCPNotFoundError(resourceName string) error {
	return status.Errorf(codes.NotFound, "Secret [%s] not found or has no versions", resourceName)
}

// GCPPermissionDeniedError creates a GCP permission denied error
func GCPPermissionDeniedError(message string) error {
	return status.Error(codes.PermissionDenied, message)
}

// GCPResourceExhaustedError creates a GCP resource exhausted (throttled) error
func GCPResourceExhaustedError() error {
	return status.Errorf(codes.ResourceExhausted, "Quota exceeded")
}
