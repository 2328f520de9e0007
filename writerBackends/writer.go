package writerbackends

import (
	"context"
	"fmt"
	"io"

	"imageconverter/config"
	"imageconverter/credentials"
)

// Sink types.
const (
	DirectServe = "directServe"
	S3          = "s3"
	GCS         = "gcs"
	SFTP        = "sftp"
)

// Writer delivers a named payload to one sink. AccessInfo carries the
// sink's settings and secrets.
type Writer struct {
	Type       string
	AccessInfo map[string]string
}

// Save writes r to the sink under name.
func (w Writer) Save(ctx context.Context, name string, r io.Reader) error {
	switch w.Type {
	case DirectServe:
		if err := SaveToDirectServe(ctx, w.AccessInfo, name, r); err != nil {
			return fmt.Errorf("failed to save to direct serve: %w", err)
		}
	case S3:
		if err := UploadToS3WithCreds(ctx, w.AccessInfo, name, r); err != nil {
			return fmt.Errorf("failed to upload to S3: %w", err)
		}
	case GCS:
		if err := UploadToGCSWithJSON(ctx, w.AccessInfo, name, r); err != nil {
			return fmt.Errorf("failed to upload to GCS: %w", err)
		}
	case SFTP:
		if err := UploadToSFTPWithCreds(ctx, w.AccessInfo, name, r); err != nil {
			return fmt.Errorf("failed to upload to SFTP: %w", err)
		}
	default:
		return fmt.Errorf("unknown backend type: %s", w.Type)
	}
	return nil
}

// CredentialGetter is the read side of credentials.Store.
type CredentialGetter interface {
	Get(key string) (map[string]string, error)
}

// FromConfig builds the Writer selected by cfg. Remote sinks read their
// access info from the credentials store entry sink/<credentials_key>.
func FromConfig(cfg config.Download, store CredentialGetter) (Writer, error) {
	if cfg.Sink == DirectServe {
		return Writer{Type: DirectServe, AccessInfo: map[string]string{"dir": cfg.Dir}}, nil
	}
	if store == nil {
		return Writer{}, fmt.Errorf("%s sink needs the credentials store", cfg.Sink)
	}
	info, err := store.Get(credentials.SinkPrefix + cfg.CredentialsKey)
	if err != nil {
		return Writer{}, fmt.Errorf("load %s credentials %q: %w", cfg.Sink, cfg.CredentialsKey, err)
	}
	if t := info["type"]; t != "" && t != cfg.Sink {
		return Writer{}, fmt.Errorf("credentials %q belong to a %s sink, not %s", cfg.CredentialsKey, t, cfg.Sink)
	}
	return Writer{Type: cfg.Sink, AccessInfo: info}, nil
}

// RequiredKeys lists the access info each remote sink cannot work without.
var RequiredKeys = map[string][]string{
	S3:   {"accessKey", "secretKey", "region", "bucket"},
	GCS:  {"credentialsJSON", "bucket"},
	SFTP: {"host", "user", "remoteDir"},
}

// CheckAccessInfo reports the first required key missing for sinkType.
func CheckAccessInfo(sinkType string, info map[string]string) error {
	keys, ok := RequiredKeys[sinkType]
	if !ok {
		return fmt.Errorf("unknown backend type: %s", sinkType)
	}
	for _, k := range keys {
		if info[k] == "" {
			return fmt.Errorf("%s access info is missing %q", sinkType, k)
		}
	}
	return nil
}
