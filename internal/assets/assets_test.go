package assets

import (
	"context"
	"strings"
	"testing"
)

func TestInlineStoreIngest(t *testing.T) {
	asset, err := InlineStore{}.Ingest(context.Background(), "Team Logo.png", []byte("fake-png-bytes"))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if asset.ID == "" {
		t.Errorf("asset should get an id")
	}
	if asset.Name != "Team Logo" {
		t.Errorf("name = %q, want extension stripped", asset.Name)
	}
	if !strings.HasPrefix(asset.Src, "data:image/png;base64,") {
		t.Errorf("src = %q, want a png data URL", asset.Src)
	}
}

func TestInlineStoreRejectsEmptyUpload(t *testing.T) {
	if _, err := (InlineStore{}).Ingest(context.Background(), "x.png", nil); err == nil {
		t.Errorf("empty upload should be rejected")
	}
}

func TestDetectContentType(t *testing.T) {
	if got := detectContentType("a.WEBP", nil); got != "image/webp" {
		t.Errorf("extension should win, got %q", got)
	}
	// unknown extension falls back to sniffing the bytes
	if got := detectContentType("a.bin", []byte("GIF89a...")); got != "image/gif" {
		t.Errorf("sniffed type = %q", got)
	}
}

func TestAssetName(t *testing.T) {
	for input, want := range map[string]string{
		"logo.png":        "logo",
		"dir/nested.jpeg": "nested",
		".png":            "asset",
		"":                "asset",
		"plain":           "plain",
	} {
		if got := assetName(input); got != want {
			t.Errorf("assetName(%q) = %q, want %q", input, got, want)
		}
	}
}
