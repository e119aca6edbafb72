package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind classifies content into the analyzer families the service supports.
type Kind string

const (
	KindText  Kind = "text"
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// ErrUnsupportedType is wrapped into errors returned for content no
// analyzer can handle.
var ErrUnsupportedType = fmt.Errorf("unsupported content type")

// mimeKinds routes MIME types to analyzer kinds.
var mimeKinds = map[string]Kind{
	"text/plain":       KindText,
	"text/markdown":    KindText,
	"text/html":        KindText,
	"application/json": KindText,

	"audio/wav":  KindAudio,
	"audio/mp3":  KindAudio,
	"audio/mpeg": KindAudio,
	"audio/ogg":  KindAudio,
	"audio/webm": KindAudio,

	"video/mp4":       KindVideo,
	"video/quicktime": KindVideo,
	"video/x-msvideo": KindVideo,
	"video/x-ms-wmv":  KindVideo,
	"video/webm":      KindVideo,
}

// extKinds is the fallback routing on file extension when the MIME type is
// missing or unknown. ".webm" is ambiguous and resolved by MIME type only.
var extKinds = map[string]Kind{
	".txt": KindText, ".md": KindText, ".html": KindText, ".json": KindText,
	".wav": KindAudio, ".mp3": KindAudio, ".ogg": KindAudio,
	".mp4": KindVideo, ".mov": KindVideo, ".avi": KindVideo, ".wmv": KindVideo,
}

// DetectKind resolves the analyzer kind for the given MIME type and
// filename, MIME type first.
func DetectKind(contentType, filename string) (Kind, error) {
	if contentType != "" {
		// Strip parameters like "; charset=utf-8".
		mime := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
		if kind, ok := mimeKinds[mime]; ok {
			return kind, nil
		}
	}
	if filename != "" {
		if kind, ok := extKinds[strings.ToLower(filepath.Ext(filename))]; ok {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q (file %q)", ErrUnsupportedType, contentType, filename)
}

// ContentHash returns the hex SHA-256 of the content, the cache and dedup key.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// AnalyzeFile analyzes file content according to its kind. Text files get
// the full text analysis; audio and video produce metadata-only results
// until real media analyzers exist.
func AnalyzeFile(content []byte, filename, contentType string, opts Options) (map[string]any, error) {
	kind, err := DetectKind(contentType, filename)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{
		"kind":      string(kind),
		"file_size": len(content),
		"file_hash": ContentHash(content),
	}

	if kind != KindText {
		meta["note"] = "media analysis not implemented; metadata only"
		return meta, nil
	}

	results, err := (TextAnalyzer{}).Analyze(string(content), opts)
	if err != nil {
		return nil, err
	}
	for k, v := range meta {
		results[k] = v
	}
	return results, nil
}
