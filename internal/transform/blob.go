package transform

import (
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Blob is an in-memory image ready to be attached to a multipart request.
type Blob struct {
	Data     []byte
	MIMEType string
	Filename string
}

// WrapAsBlob wraps bytes with a filename derived from the mime type.
func WrapAsBlob(data []byte, mimeType string) Blob {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return Blob{Data: data, MIMEType: mimeType, Filename: "image" + ExtensionForMIME(mimeType)}
}

// WriteField writes the blob as a file part named field.
func (b Blob) WriteField(w *multipart.Writer, field string) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, b.Filename))
	h.Set("Content-Type", b.MIMEType)
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", field, err)
	}
	if _, err := part.Write(b.Data); err != nil {
		return fmt.Errorf("write part %s: %w", field, err)
	}
	return nil
}

// DataURL renders bytes as a base64 data URL.
func DataURL(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURL reports whether s is an inline image.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:image/")
}

// ParseDataURL decodes a base64 data:image URL.
func ParseDataURL(s string) ([]byte, string, error) {
	if !IsDataURL(s) {
		return nil, "", fmt.Errorf("not an image data url")
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data url")
	}
	mimeType, encoding, _ := strings.Cut(header, ";")
	if encoding != "base64" {
		return nil, "", fmt.Errorf("unsupported data url encoding %q", encoding)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data url: %w", err)
	}
	return data, mimeType, nil
}

// ExtensionForMIME picks a file extension for common image types.
func ExtensionForMIME(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0])) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
