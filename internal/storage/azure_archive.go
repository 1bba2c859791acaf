package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureArchive keeps documents as block blobs in one container.
type AzureArchive struct {
	client    *azblob.Client
	container string
}

// NewAzureArchive connects with a shared key. endpoint may be empty for
// the public cloud or point at an emulator.
func NewAzureArchive(accountName, accountKey, container, endpoint string) (*AzureArchive, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(endpoint, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &AzureArchive{client: client, container: container}, nil
}

// EnsureContainer creates the container when it does not exist yet.
func (a *AzureArchive) EnsureContainer(ctx context.Context) error {
	_, err := a.client.CreateContainer(ctx, a.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("create container %s: %w", a.container, err)
	}
	return nil
}

func (a *AzureArchive) Save(ctx context.Context, name string, r io.Reader) (Location, error) {
	if err := validateName(name); err != nil {
		return Location{}, err
	}
	contentType := "application/octet-stream"
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		contentType = "application/pdf"
	}

	cr := &countingReader{r: r}
	_, err := a.client.UploadStream(ctx, a.container, name, cr, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return Location{}, fmt.Errorf("upload %s: %w", name, err)
	}
	return Location{Name: name, Path: a.blobURL(name), Size: cr.n}, nil
}

func (a *AzureArchive) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	resp, err := a.client.DownloadStream(ctx, a.container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	return resp.Body, nil
}

func (a *AzureArchive) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	_, err := a.client.DeleteBlob(ctx, a.container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func (a *AzureArchive) blobURL(name string) string {
	return strings.TrimRight(a.client.URL(), "/") + "/" + a.container + "/" + name
}
