package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/gema-admin/internal/observability"
)

var (
	// ErrUploadTooLarge indicates the file exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted for the field.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
)

// Normalised upload kinds used by allow-lists.
const (
	UploadImage    = "image"
	UploadPDF      = "application/pdf"
	UploadZip      = "application/zip"
	UploadDocument = "document"
)

// UploadPolicy bounds what a multipart field accepts.
type UploadPolicy struct {
	MaxBytes int64
	Allowed  []string
}

// DefaultMaxUploadBytes is applied when a policy sets no limit.
const DefaultMaxUploadBytes = 10 * 1024 * 1024

// FilePart is a validated file ready to be written into a multipart body.
type FilePart struct {
	Field       string
	FileName    string
	ContentType string
	Data        []byte
}

// Multipart is a form body with plain fields and files.
type Multipart struct {
	Fields map[string]string
	Files  []FilePart
}

// PrepareFile reads a file, sniffs its type and enforces policy before any
// request is made.
func PrepareFile(ctx context.Context, field, name string, reader io.Reader, policy UploadPolicy) (FilePart, error) {
	_, span := otel.Tracer("github.com/noah-isme/gema-admin/internal/apiclient/upload").Start(ctx, "upload.prepare")
	defer span.End()

	maxBytes := policy.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	span.SetAttributes(
		attribute.String("upload.field", field),
		attribute.String("upload.original_name", strings.TrimSpace(name)),
		attribute.Int64("upload.max_bytes", maxBytes),
	)

	if reader == nil {
		err := &Error{Kind: KindValidation, Message: "File is required", Fields: map[string]string{field: "File is required"}}
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return FilePart{}, err
	}

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(reader, maxBytes+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return FilePart{}, &Error{
			Kind:    KindValidation,
			Message: fmt.Sprintf("Could not read %s", name),
			Fields:  map[string]string{field: "File could not be read"},
			cause:   err,
		}
	}
	if int64(buf.Len()) > maxBytes {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return FilePart{}, &Error{
			Kind:    KindValidation,
			Message: fmt.Sprintf("%s exceeds the %d MB limit", name, maxBytes/(1024*1024)),
			Fields:  map[string]string{field: "File is too large"},
			cause:   ErrUploadTooLarge,
		}
	}

	detected := mimetype.Detect(buf.Bytes())
	kind := normalizeMime(detected.String())
	span.SetAttributes(attribute.String("upload.detected_mime", detected.String()))
	if len(policy.Allowed) > 0 && !isAllowedType(kind, policy.Allowed) {
		observability.UploadRejected().WithLabelValues("type").Inc()
		span.SetStatus(codes.Error, "type not allowed")
		return FilePart{}, &Error{
			Kind:    KindValidation,
			Message: fmt.Sprintf("%s has an unsupported file type", name),
			Fields:  map[string]string{field: "File type not allowed"},
			cause:   ErrUploadTypeNotAllowed,
		}
	}

	span.SetStatus(codes.Ok, "prepared")
	return FilePart{
		Field:       field,
		FileName:    sanitizeFileName(name),
		ContentType: detected.String(),
		Data:        buf.Bytes(),
	}, nil
}

// encode writes the form and returns the body with its boundary content type.
func (m Multipart) encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, value := range m.Fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}

	for _, file := range m.Files {
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(file.Field), escapeQuotes(file.FileName)))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" || base == "." {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}

func normalizeMime(m string) string {
	lower := strings.ToLower(strings.TrimSpace(m))
	if idx := strings.Index(lower, ";"); idx >= 0 {
		lower = strings.TrimSpace(lower[:idx])
	}
	if strings.HasPrefix(lower, "image/") {
		return UploadImage
	}
	switch lower {
	case "application/pdf":
		return UploadPDF
	case "application/zip", "application/x-zip-compressed":
		return UploadZip
	case "application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"text/plain", "text/csv":
		return UploadDocument
	default:
		return lower
	}
}

func isAllowedType(kind string, allowed []string) bool {
	for _, candidate := range allowed {
		if candidate == kind {
			return true
		}
	}
	return false
}
