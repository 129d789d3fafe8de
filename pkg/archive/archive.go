// Package archive unpacks ZIP archives into JSON-friendly file records.
package archive

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

// DefaultContentType is reported for files whose extension is not known.
const DefaultContentType = "application/octet-stream"

// File is one regular file extracted from an archive.
type File struct {
	Name        string // path inside the archive
	ContentType string // media type inferred from the extension
	Content     []byte // uncompressed bytes
}

// Value returns the file as
// {"fileName": ..., "content": {"$content-type": ..., "$content": <base64>}}.
func (f File) Value() jsonvalue.Value {
	content := jsonvalue.NewObject().
		Set("$content-type", jsonvalue.String(f.ContentType)).
		Set("$content", jsonvalue.String(base64.StdEncoding.EncodeToString(f.Content)))
	obj := jsonvalue.NewObject().
		Set("fileName", jsonvalue.String(f.Name)).
		Set("content", jsonvalue.ObjectValue(content))
	return jsonvalue.ObjectValue(obj)
}

// Files converts files into a JSON array value.
func Files(files []File) jsonvalue.Value {
	elems := make([]jsonvalue.Value, len(files))
	for i, f := range files {
		elems[i] = f.Value()
	}
	return jsonvalue.Array(elems...)
}

// DecodeBase64 decodes Base64 text leniently: whitespace is ignored, padding
// is optional and the URL-safe alphabet is accepted.
func DecodeBase64(text []byte) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, string(text))
	cleaned = strings.TrimRight(cleaned, "=")

	enc := base64.RawStdEncoding
	if strings.ContainsAny(cleaned, "-_") {
		enc = base64.RawURLEncoding
	}
	data, err := enc.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}

// Extract reads every regular file from the ZIP archive in data, in archive
// order. Directory entries are skipped.
func Extract(data []byte) ([]File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(zr.File))
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || strings.HasSuffix(zf.Name, "/") {
			continue
		}
		content, err := readEntry(zf)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", zf.Name, err)
		}
		files = append(files, File{
			Name:        zf.Name,
			ContentType: ContentType(zf.Name),
			Content:     content,
		})
	}
	return files, nil
}

// ExtractBase64 decodes Base64 text and extracts the archive it holds.
func ExtractBase64(text []byte) ([]File, error) {
	data, err := DecodeBase64(text)
	if err != nil {
		return nil, err
	}
	return Extract(data)
}

func readEntry(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// ContentType infers a media type, without parameters, from the extension of
// name. Unknown extensions yield DefaultContentType.
func ContentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return DefaultContentType
	}
	if t, ok := knownTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
	}
	return DefaultContentType
}

// knownTypes pins the common extensions so results do not depend on the
// host's mime tables.
var knownTypes = map[string]string{
	".bmp":  "image/bmp",
	".csv":  "text/csv",
	".css":  "text/css",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".gif":  "image/gif",
	".gz":   "application/gzip",
	".htm":  "text/html",
	".html": "text/html",
	".ico":  "image/vnd.microsoft.icon",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".js":   "application/javascript",
	".json": "application/json",
	".md":   "text/markdown",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".tar":  "application/x-tar",
	".toml": "application/toml",
	".tsv":  "text/tab-separated-values",
	".txt":  "text/plain",
	".wav":  "audio/wav",
	".webp": "image/webp",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xml":  "application/xml",
	".yaml": "text/yaml",
	".yml":  "text/yaml",
	".zip":  "application/zip",
}
