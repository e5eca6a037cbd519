package storage

// MinIOConfig holds MinIO (or any S3-compatible endpoint) connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// PublicBaseURL is joined with the object key to build the stored
	// reference, e.g. "https://cdn.example.org/cms".
	PublicBaseURL string
}

// DiskConfig configures the local-disk object store.
type DiskConfig struct {
	// Dir is the directory uploads are written under.
	Dir string
	// URLPrefix is the public path Dir is served from, e.g. "/public/uploads".
	URLPrefix string
}
