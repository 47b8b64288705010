package config

import "strings"

// Disk names accepted by FILESYSTEM_DISK.
const (
	DiskLocal = "local"
	DiskS3    = "s3"
)

// StorageConfig selects where uploaded movie images are written.  The local
// disk writes under Root and is served back at /storage.  The s3 disk puts
// objects into Bucket under the same keys; image URLs then use
// S3_PUBLIC_URL when set, otherwise a gateway must expose APP_URL/storage.
type StorageConfig struct {
	Disk string
	Root string
	S3   S3Config
}

// S3Config holds credentials for an S3-compatible backend (AWS or MinIO).
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	PublicURL    string // optional; image URLs use it instead of APP_URL/storage
}

func LoadStorageConfig() StorageConfig {
	disk := envStr("FILESYSTEM_DISK", DiskLocal)
	if disk != DiskS3 {
		disk = DiskLocal
	}
	return StorageConfig{
		Disk: disk,
		Root: envStr("STORAGE_ROOT", "storage/app/public"),
		S3: S3Config{
			Bucket:       envStr("S3_BUCKET", ""),
			Region:       envStr("S3_REGION", "us-east-1"),
			Endpoint:     envStr("S3_ENDPOINT", ""),
			AccessKey:    envStr("S3_ACCESS_KEY", ""),
			SecretKey:    envStr("S3_SECRET_KEY", ""),
			UsePathStyle: envBool("S3_USE_PATH_STYLE", true),
			PublicURL:    strings.TrimRight(envStr("S3_PUBLIC_URL", ""), "/"),
		},
	}
}
