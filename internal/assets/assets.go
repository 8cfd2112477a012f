package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path"
	"strings"

	"picksheet/api/internal/document"
	"picksheet/api/internal/util"
)

// Ingestor turns an uploaded image into a library asset. The returned
// asset carries a reachable src, either an object-store URL or an
// inline data URL.
type Ingestor interface {
	Ingest(ctx context.Context, filename string, data []byte) (document.LibraryAsset, error)
}

// InlineStore embeds uploads directly in the sheet as data URLs. It is
// the fallback when no object store is configured.
type InlineStore struct{}

func (InlineStore) Ingest(_ context.Context, filename string, data []byte) (document.LibraryAsset, error) {
	if len(data) == 0 {
		return document.LibraryAsset{}, fmt.Errorf("ingest %s: empty upload", filename)
	}
	contentType := detectContentType(filename, data)
	src := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return document.LibraryAsset{
		ID:   util.NewID("asset"),
		Src:  src,
		Name: assetName(filename),
	}, nil
}

func detectContentType(filename string, data []byte) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	}
	return http.DetectContentType(data)
}

// assetName strips the extension so the display name matches what the
// user sees in their file picker.
func assetName(filename string) string {
	base := path.Base(filename)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		return "asset"
	}
	return base
}

var _ Ingestor = InlineStore{}
