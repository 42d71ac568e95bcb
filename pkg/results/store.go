package results

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageSettings configures the object store holding experiment
// artifacts. Objects live under prefix/<run>/<version>/<name>.
type StorageSettings struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// SettingsFromEnv reads storage settings from GLOBI_STORAGE_* variables.
func SettingsFromEnv() StorageSettings {
	return StorageSettings{
		Endpoint:  getEnv("GLOBI_STORAGE_ENDPOINT", "localhost:9000"),
		AccessKey: getEnv("GLOBI_STORAGE_ACCESS_KEY", "minioadmin"),
		SecretKey: getEnv("GLOBI_STORAGE_SECRET_KEY", "minioadmin"),
		Bucket:    getEnv("GLOBI_STORAGE_BUCKET", "globi"),
		Prefix:    getEnv("GLOBI_STORAGE_PREFIX", "experiments"),
		UseSSL:    getEnv("GLOBI_STORAGE_USE_SSL", "") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Store reads and writes versioned run artifacts in an S3-compatible
// object store.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore connects to the object store described by settings.
func NewStore(settings StorageSettings) (*Store, error) {
	client, err := minio.New(settings.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(settings.AccessKey, settings.SecretKey, ""),
		Secure: settings.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to object store: %w", err)
	}
	return &Store{
		client: client,
		bucket: settings.Bucket,
		prefix: strings.Trim(settings.Prefix, "/"),
	}, nil
}

func (s *Store) objectKey(run string, version Version, name string) string {
	return path.Join(s.prefix, run, version.String(), name)
}

// PutArtifact uploads one named artifact for a run version.
func (s *Store) PutArtifact(ctx context.Context, run string, version Version, name string, r io.Reader, size int64) error {
	key := s.objectKey(run, version, name)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

// PutArtifactFile uploads a local file as a run artifact.
func (s *Store) PutArtifactFile(ctx context.Context, run string, version Version, name, localPath string) error {
	key := s.objectKey(run, version, name)
	_, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

// GetArtifact downloads a run artifact to localPath.
func (s *Store) GetArtifact(ctx context.Context, run string, version Version, name, localPath string) error {
	key := s.objectKey(run, version, name)
	if err := s.client.FGetObject(ctx, s.bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("downloading %s: %w", key, err)
	}
	return nil
}

// ListRuns lists run names present under the store prefix.
func (s *Store) ListRuns(ctx context.Context) ([]string, error) {
	return s.listPrefixes(ctx, s.prefix+"/")
}

// ListVersions lists the versions stored for a run, sorted ascending.
// Directory entries that are not parseable versions are skipped.
func (s *Store) ListVersions(ctx context.Context, run string) ([]Version, error) {
	names, err := s.listPrefixes(ctx, path.Join(s.prefix, run)+"/")
	if err != nil {
		return nil, err
	}
	versions := make([]Version, 0, len(names))
	for _, name := range names {
		v, err := ParseVersion(name)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	SortVersions(versions)
	return versions, nil
}

// LatestVersion returns the newest stored version of a run.
func (s *Store) LatestVersion(ctx context.Context, run string) (Version, error) {
	versions, err := s.ListVersions(ctx, run)
	if err != nil {
		return Version{}, err
	}
	latest, ok := Latest(versions)
	if !ok {
		return Version{}, fmt.Errorf("run %q has no stored versions", run)
	}
	return latest, nil
}

// NextVersion returns the version a new upload of the run should use:
// the latest patch bumped, or v0.0.1 for a new run.
func (s *Store) NextVersion(ctx context.Context, run string) (Version, error) {
	versions, err := s.ListVersions(ctx, run)
	if err != nil {
		return Version{}, err
	}
	latest, ok := Latest(versions)
	if !ok {
		return Version{Patch: 1}, nil
	}
	return latest.NextPatch(), nil
}

func (s *Store) listPrefixes(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: false}
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("listing %s: %w", prefix, obj.Err)
		}
		if !strings.HasSuffix(obj.Key, "/") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(obj.Key, prefix), "/")
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
