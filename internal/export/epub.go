package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	epub "github.com/go-shiori/go-epub"
	"github.com/microcosm-cc/bluemonday"
	"github.com/vincent-petithory/dataurl"

	"github.com/yungbote/storybook-backend/internal/domain/book"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

const (
	epubAuthor       = "Storybook"
	maxEmbeddedImage = 20 << 20
	ContentTypeEPUB  = "application/epub+zip"
)

var errImageSourceNotAllowed = errors.New("image url is outside the illustration store")

// EPUBBuilder turns a stored book into an EPUB with one section per page.
type EPUBBuilder struct {
	log      *logger.Logger
	http     *http.Client
	policy   *bluemonday.Policy
	fonts    coverFonts
	prefixes []string
	maxImage int
}

// NewEPUBBuilder fetches page images only from URLs starting with one of
// imagePrefixes (the illustration bucket or CDN). data: URLs are always
// decoded in place. Anything else is left out of the book.
func NewEPUBBuilder(log *logger.Logger, httpClient *http.Client, imagePrefixes []string) (*EPUBBuilder, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	fonts, err := loadCoverFonts()
	if err != nil {
		return nil, fmt.Errorf("could not load cover fonts: %w", err)
	}
	eb := &EPUBBuilder{
		log:      log.With("service", "EPUBBuilder"),
		policy:   bluemonday.StrictPolicy(),
		fonts:    fonts,
		maxImage: maxEmbeddedImage,
	}
	for _, p := range imagePrefixes {
		if p = strings.TrimSpace(p); p != "" {
			eb.prefixes = append(eb.prefixes, p)
		}
	}
	client := *httpClient
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return errors.New("too many redirects")
		}
		if !eb.allowedSource(req.URL.String()) {
			return errImageSourceNotAllowed
		}
		return nil
	}
	eb.http = &client
	return eb, nil
}

func (eb *EPUBBuilder) allowedSource(src string) bool {
	for _, p := range eb.prefixes {
		if strings.HasPrefix(src, p) {
			return true
		}
	}
	return false
}

// Build renders b. Page images that cannot be fetched are left out; the
// page text is always kept.
func (eb *EPUBBuilder) Build(ctx context.Context, b *book.Book, childName string) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("book required")
	}
	title := strings.TrimSpace(b.Title)
	if title == "" {
		title = "Untitled"
	}

	e, err := epub.NewEpub(title)
	if err != nil {
		return nil, fmt.Errorf("failed to create epub: %w", err)
	}
	e.SetAuthor(epubAuthor)
	e.SetLang("en")
	e.SetIdentifier("urn:uuid:" + b.ID.String())
	if childName != "" {
		e.SetDescription("A story for " + childName)
	}

	cover, err := renderCover(eb.fonts, title, childName)
	if err != nil {
		return nil, err
	}
	coverPath, err := e.AddImage(dataurl.New(cover, "image/png").String(), "cover.png")
	if err != nil {
		return nil, fmt.Errorf("failed to add cover: %w", err)
	}
	coverBody := fmt.Sprintf(`<div class="cover"><img src="%s" alt="%s"/></div>`, coverPath, html.EscapeString(title))
	if _, err := e.AddSection(coverBody, "Cover", "cover.xhtml", ""); err != nil {
		return nil, fmt.Errorf("failed to add cover section: %w", err)
	}

	embedded := 0
	for _, u := range b.BookData {
		var body strings.Builder
		if u.ImageURL != "" {
			if path, err := eb.addPageImage(ctx, e, u); err != nil {
				eb.log.Warn("failed to embed page image", "book_id", b.ID.String(), "part_id", u.PartID, "error", err)
			} else {
				embedded++
				fmt.Fprintf(&body, `<div class="illustration"><img src="%s" alt="Page %d"/></div>`, path, u.PartID)
			}
		}
		fmt.Fprintf(&body, `<p>%s</p>`, eb.pageText(u.Text))

		sectionTitle := fmt.Sprintf("Page %d", u.PartID)
		if u.PartID == 1 {
			sectionTitle = title
		}
		if _, err := e.AddSection(body.String(), sectionTitle, fmt.Sprintf("page-%03d.xhtml", u.PartID), ""); err != nil {
			return nil, fmt.Errorf("failed to add section to epub: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := e.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write epub: %w", err)
	}
	eb.log.Debug("epub built", "book_id", b.ID.String(), "pages", len(b.BookData), "images", embedded, "bytes", buf.Len())
	return buf.Bytes(), nil
}

func (eb *EPUBBuilder) pageText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		lines[i] = eb.policy.Sanitize(strings.TrimSpace(line))
	}
	return strings.Join(lines, "<br/>")
}

func (eb *EPUBBuilder) addPageImage(ctx context.Context, e *epub.Epub, u book.PageUnit) (string, error) {
	data, contentType, err := eb.download(ctx, u.ImageURL)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("page-%03d%s", u.PartID, imageExtension(contentType))
	return e.AddImage(dataurl.New(data, contentType).String(), name)
}

func (eb *EPUBBuilder) download(ctx context.Context, src string) ([]byte, string, error) {
	if strings.HasPrefix(src, "data:") {
		du, err := dataurl.DecodeString(src)
		if err != nil {
			return nil, "", err
		}
		return du.Data, du.MediaType.ContentType(), nil
	}
	if !eb.allowedSource(src) {
		return nil, "", errImageSourceNotAllowed
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := eb.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(eb.maxImage)+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > eb.maxImage {
		return nil, "", fmt.Errorf("image exceeds %d bytes", eb.maxImage)
	}
	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("not an image: %s", contentType)
	}
	return data, contentType, nil
}

func imageExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
