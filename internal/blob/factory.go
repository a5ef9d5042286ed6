package blob

import (
	"context"
	"fmt"
	"os"
)

// Open selects an audio archive implementation using environment variables.
//
//	MEDFLOW_AUDIO_DRIVER: fs|s3|memory (default fs)
//	MEDFLOW_AUDIO_FS_ROOT: directory root when driver=fs (default ./audio_recordings)
//	(S3 specific variables documented at OpenS3FromEnv)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("MEDFLOW_AUDIO_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("MEDFLOW_AUDIO_FS_ROOT"))
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown audio driver %s", driver)
	}
}
