package routes

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"imageconverter/logger"
	"imageconverter/models"
	"imageconverter/selection"
	"imageconverter/utils"

	"github.com/klauspost/compress/zip"
)

// maxUploadBytes caps the multipart body held in memory.
const maxUploadBytes = 32 << 20

// ArchiveName is the attachment name of every successful response.
const ArchiveName = "converted-images.zip"

// ConvertConfig holds what the loopback endpoint needs to check tokens.
type ConvertConfig struct {
	Secret    string
	Issuer    string
	ClockSkew time.Duration
}

// conversionRequest is a parsed and validated POST /convert.
type conversionRequest struct {
	format  models.OutputFormat
	options models.FormatOptions
	files   []*multipart.FileHeader
}

// verifyBearer checks the Authorization header and returns the claims.
func verifyBearer(r *http.Request, cfg ConvertConfig) (*models.IDTokenClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errors.New("authorization header required")
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return nil, errors.New("invalid authorization header format")
	}

	return utils.VerifyIDToken(token, utils.VerifyConfig{
		Secret:         cfg.Secret,
		ExpectedIssuer: cfg.Issuer,
		ClockSkew:      cfg.ClockSkew,
	})
}

// parseConversionRequest reads outputFormat, the one option field that
// belongs to it, and the files parts.
func parseConversionRequest(r *http.Request) (*conversionRequest, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, errors.New("Failed to parse multipart form")
	}

	format, err := models.ParseOutputFormat(r.FormValue("outputFormat"))
	if err != nil {
		return nil, errors.New("Unsupported output format")
	}

	_, hasQuality := r.MultipartForm.Value["quality"]
	_, hasLossless := r.MultipartForm.Value["lossless"]

	req := &conversionRequest{format: format}
	switch {
	case format.UsesQuality():
		if hasLossless {
			return nil, fmt.Errorf("lossless does not apply to %s", format)
		}
		q := models.DefaultQuality
		if hasQuality {
			q, err = strconv.Atoi(r.FormValue("quality"))
			if err != nil || q < models.MinQuality || q > models.MaxQuality {
				return nil, fmt.Errorf("quality must be an integer between %d and %d", models.MinQuality, models.MaxQuality)
			}
		}
		req.options = models.QualityOptions{Quality: q}
	case format.UsesLossless():
		if hasQuality {
			return nil, fmt.Errorf("quality does not apply to %s", format)
		}
		lossless := false
		if hasLossless {
			lossless, err = strconv.ParseBool(r.FormValue("lossless"))
			if err != nil {
				return nil, errors.New("lossless must be true or false")
			}
		}
		req.options = models.LosslessOptions{Lossless: lossless}
	}

	req.files = r.MultipartForm.File["files"]
	if len(req.files) == 0 {
		return nil, errors.New("No files uploaded")
	}
	for _, fh := range req.files {
		if !selection.AcceptedMediaTypes[selection.MediaTypeFor(fh.Filename)] {
			return nil, fmt.Errorf("Unsupported file type: %s", fh.Filename)
		}
	}
	return req, nil
}

// convertedName swaps name's extension for the target format's.
func convertedName(name string, format models.OutputFormat) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + format.String()
}

// buildArchive writes one zip entry per uploaded file. The loopback
// endpoint does not re-encode pixels; entries carry the uploaded bytes
// under the converted name, with a numeric suffix when two names collide.
func buildArchive(req *conversionRequest) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	used := make(map[string]int, len(req.files))

	for _, fh := range req.files {
		name := convertedName(fh.Filename, req.format)
		if n := used[name]; n > 0 {
			used[name] = n + 1
			ext := filepath.Ext(name)
			name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
		} else {
			used[name] = 1
		}

		if err := addEntry(zw, fh, name); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf, nil
}

func addEntry(zw *zip.Writer, fh *multipart.FileHeader, name string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer src.Close()

	hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
	hdr.Modified = time.Now()
	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

// ConvertHandler serves POST /convert: it checks the bearer token, reads
// the multipart form and answers with converted-images.zip. Every failure
// is a non-2xx response with a plain text body.
func ConvertHandler(cfg ConvertConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		logger.Debugf("Convert request: method=%s, remoteAddr=%s, requestID=%s", r.Method, r.RemoteAddr, requestID)

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		claims, err := verifyBearer(r, cfg)
		if err != nil {
			logger.Warnf("Rejected convert request %s: %v", requestID, err)
			status := http.StatusUnauthorized
			if errors.Is(err, utils.ErrInvalidIssuer) {
				status = http.StatusForbidden
			}
			http.Error(w, fmt.Sprintf("Invalid token: %v", err), status)
			return
		}

		req, err := parseConversionRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		archive, err := buildArchive(req)
		if err != nil {
			logger.Errorf("Failed to build archive for %s: %v", requestID, err)
			http.Error(w, "Conversion failed", http.StatusInternalServerError)
			return
		}

		logger.Infof("Converted %d file(s) to %s %v for %q (%d bytes)", len(req.files), req.format, req.options.FormFields(), claims.Subject, archive.Len())

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ArchiveName))
		w.Header().Set("Content-Length", strconv.Itoa(archive.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := archive.WriteTo(w); err != nil {
			logger.Errorf("Failed to write archive for %s: %v", requestID, err)
		}
	}
}

// NewMux registers the loopback endpoints.
func NewMux(cfg ConvertConfig) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/convert", ConvertHandler(cfg))
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/version", VersionHandler)
	return mux
}
