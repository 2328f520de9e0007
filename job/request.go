package job

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"

	"imageconverter/models"
)

// FilesField is the repeated multipart field carrying the images.
const FilesField = "files"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// buildBody encodes job as a multipart form: one part per file under
// FilesField, then outputFormat, then the format-specific parameter.
func buildBody(job models.ConversionJob) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	for _, f := range job.Files {
		if err := writeFilePart(mw, f); err != nil {
			return nil, "", err
		}
	}

	fields := job.FormFields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k != "outputFormat" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	keys = append([]string{"outputFormat"}, keys...)

	for _, k := range keys {
		if err := mw.WriteField(k, fields[k]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return body, mw.FormDataContentType(), nil
}

func writeFilePart(mw *multipart.Writer, f models.FileEntry) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer src.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FilesField, quoteEscaper.Replace(f.Name)))
	contentType := f.MediaType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part for %s: %w", f.Name, err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy %s: %w", f.Name, err)
	}
	return nil
}
