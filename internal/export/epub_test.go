package export

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/storybook-backend/internal/domain/book"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		out[f.Name] = string(b)
	}
	return out
}

func TestBuildEPUB(t *testing.T) {
	t.Parallel()

	pngBytes := tinyPNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	eb, err := NewEPUBBuilder(logger.Nop(), srv.Client(), []string{srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewEPUBBuilder: %v", err)
	}
	b := &book.Book{
		ID:    uuid.New(),
		Title: "Tom's Adventure",
		BookData: []book.PageUnit{
			{PartID: 1, Text: "Tom's Adventure", ImageURL: srv.URL + "/1.png"},
			{PartID: 2, Text: "Tom met a <b>dragon</b> & smiled.", ImageURL: srv.URL + "/missing.png"},
			{PartID: 3, Text: "The End!"},
		},
	}

	data, err := eb.Build(context.Background(), b, "Tom")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	files := readZip(t, data)
	if files["mimetype"] != ContentTypeEPUB {
		t.Fatalf("mimetype: want=%q got=%q", ContentTypeEPUB, files["mimetype"])
	}

	var sections, images []string
	for name, body := range files {
		switch {
		case strings.HasSuffix(name, ".xhtml") && strings.Contains(name, "page-"):
			sections = append(sections, body)
		case strings.HasSuffix(name, ".png"):
			images = append(images, name)
		}
	}
	if len(sections) != 3 {
		t.Fatalf("page sections: want=3 got=%d", len(sections))
	}
	// cover plus the one reachable page image
	if len(images) != 2 {
		t.Fatalf("images: want=2 got=%v", images)
	}

	all := strings.Join(sections, "\n")
	if strings.Contains(all, "<b>dragon</b>") {
		t.Fatalf("page text must be sanitized")
	}
	if !strings.Contains(all, "dragon") || !strings.Contains(all, "The End!") {
		t.Fatalf("page text missing from sections")
	}
}

func TestRenderCover(t *testing.T) {
	t.Parallel()

	fonts, err := loadCoverFonts()
	if err != nil {
		t.Fatalf("loadCoverFonts: %v", err)
	}
	data, err := renderCover(fonts, "A Very Long Title That Needs Wrapping Across Lines", "Ana")
	if err != nil {
		t.Fatalf("renderCover: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != coverWidth || b.Dy() != coverHeight {
		t.Fatalf("cover size: want=%dx%d got=%dx%d", coverWidth, coverHeight, b.Dx(), b.Dy())
	}
}

func TestBuildRequiresBook(t *testing.T) {
	t.Parallel()

	eb, err := NewEPUBBuilder(logger.Nop(), nil, nil)
	if err != nil {
		t.Fatalf("NewEPUBBuilder: %v", err)
	}
	if _, err := eb.Build(context.Background(), nil, ""); err == nil {
		t.Fatalf("Build(nil): want error")
	}
}

func countImages(files map[string]string) int {
	n := 0
	for name := range files {
		if strings.Contains(name, "page-") && !strings.HasSuffix(name, ".xhtml") {
			n++
		}
	}
	return n
}

func TestBuildSkipsImagesOutsideIllustrationStore(t *testing.T) {
	t.Parallel()

	var internalHits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalHits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("secret-token"))
	}))
	defer internal.Close()

	pngBytes := tinyPNG(t)
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/illustrations/redirect.png" {
			http.Redirect(w, r, internal.URL+"/computeMetadata/v1/token", http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer store.Close()

	eb, err := NewEPUBBuilder(logger.Nop(), http.DefaultClient, []string{store.URL + "/illustrations/"})
	if err != nil {
		t.Fatalf("NewEPUBBuilder: %v", err)
	}
	b := &book.Book{
		ID:    uuid.New(),
		Title: "Edited",
		BookData: []book.PageUnit{
			{PartID: 1, Text: "Edited", ImageURL: internal.URL + "/computeMetadata/v1/token"},
			{PartID: 2, Text: "Redirected", ImageURL: store.URL + "/illustrations/redirect.png"},
			{PartID: 3, Text: "Other path", ImageURL: store.URL + "/private/3.png"},
			{PartID: 4, Text: "Stored", ImageURL: store.URL + "/illustrations/4.png"},
		},
	}

	data, err := eb.Build(context.Background(), b, "Tom")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if n := internalHits.Load(); n != 0 {
		t.Fatalf("requests to a non-store host: want=0 got=%d", n)
	}
	files := readZip(t, data)
	if n := countImages(files); n != 1 {
		t.Fatalf("page images: want=1 got=%d", n)
	}
	if !strings.Contains(strings.Join(mapValues(files), "\n"), "Redirected") {
		t.Fatalf("page text must be kept when its image is refused")
	}
}

func TestBuildSkipsOversizedImages(t *testing.T) {
	t.Parallel()

	pngBytes := tinyPNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	eb, err := NewEPUBBuilder(logger.Nop(), srv.Client(), []string{srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewEPUBBuilder: %v", err)
	}
	eb.maxImage = len(pngBytes) - 1

	if _, _, err := eb.download(context.Background(), srv.URL+"/big.png"); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("download: want size error got=%v", err)
	}
	eb.maxImage = len(pngBytes)
	data, _, err := eb.download(context.Background(), srv.URL+"/exact.png")
	if err != nil || !bytes.Equal(data, pngBytes) {
		t.Fatalf("download(exact size): err=%v len=%d", err, len(data))
	}
}

func mapValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
