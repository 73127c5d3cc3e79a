package services

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/google/uuid"

	"alfredoptarigan/voice-screener/internal/config"
)

// StoredObject is where an uploaded document ended up.
type StoredObject struct {
	Key string
	URL string
}

type StorageService interface {
	EnsureReady(ctx context.Context) error
	Save(ctx context.Context, sessionID, documentType, originalName string, data []byte) (*StoredObject, error)
	Delete(ctx context.Context, key string) error
}

// NewStorageService picks the backend named by cfg.Driver.
func NewStorageService(cfg config.StorageConfig) (StorageService, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.UploadPath, cfg.PublicURL), nil
	case "azure":
		if cfg.AzureConnectionString == "" {
			return nil, fmt.Errorf("azure storage needs AZURE_STORAGE_CONNECTION_STRING")
		}
		client, err := azblob.NewClientFromConnectionString(cfg.AzureConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client: %w", err)
		}
		return &azureStorage{client: client, container: cfg.AzureContainer}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}

// objectKey files documents per session: <session>/<type>_<uuid>.pdf.
func objectKey(sessionID, documentType, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext != ".pdf" {
		return "", fmt.Errorf("invalid file extension: %s", ext)
	}
	if sessionID == "" {
		sessionID = "anonymous"
	}
	return path.Join(sessionID, fmt.Sprintf("%s_%s%s", documentType, uuid.New().String(), ext)), nil
}

type localStorage struct {
	uploadPath string
	publicURL  string
}

func NewLocalStorage(uploadPath, publicURL string) StorageService {
	return &localStorage{
		uploadPath: uploadPath,
		publicURL:  strings.TrimRight(publicURL, "/"),
	}
}

func (s *localStorage) EnsureReady(ctx context.Context) error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

func (s *localStorage) Save(ctx context.Context, sessionID, documentType, originalName string, data []byte) (*StoredObject, error) {
	key, err := objectKey(sessionID, documentType, originalName)
	if err != nil {
		return nil, err
	}

	filePath := filepath.Join(s.uploadPath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	return &StoredObject{Key: key, URL: s.publicURL + "/" + key}, nil
}

func (s *localStorage) Delete(ctx context.Context, key string) error {
	if err := os.Remove(filepath.Join(s.uploadPath, filepath.FromSlash(key))); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

type azureStorage struct {
	client    *azblob.Client
	container string
}

func (s *azureStorage) EnsureReady(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("failed to create container %s: %w", s.container, err)
	}
	return nil
}

func (s *azureStorage) Save(ctx context.Context, sessionID, documentType, originalName string, data []byte) (*StoredObject, error) {
	key, err := objectKey(sessionID, documentType, originalName)
	if err != nil {
		return nil, err
	}

	contentType := "application/pdf"
	_, err = s.client.UploadStream(ctx, s.container, key, bytes.NewReader(data), &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload blob: %w", err)
	}

	blobURL, err := url.JoinPath(s.client.URL(), s.container, key)
	if err != nil {
		return nil, fmt.Errorf("failed to build blob url: %w", err)
	}
	return &StoredObject{Key: key, URL: blobURL}, nil
}

func (s *azureStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteBlob(ctx, s.container, key, nil); err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
