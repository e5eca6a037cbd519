package storage

import (
	"context"
	"fmt"
)

// Open builds the object store selected by backend ("disk" or "minio").
func Open(ctx context.Context, backend string, disk *DiskConfig, mc *MinIOConfig) (ObjectStore, error) {
	switch backend {
	case "", "disk":
		return NewDiskStorage(disk)
	case "minio":
		return NewMinIOStorage(ctx, mc)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}
