// ABOUTME: EPUB builder packaging a ranked collection into an e-reader artifact
// ABOUTME: One chapter per article with a metadata header and a leading contents page

package epub

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	goepub "github.com/go-shiori/go-epub"

	"newsfetch-api/core/domain"
	"newsfetch-api/core/interfaces"
)

const chapterCSS = `body { font-family: Arial, sans-serif; margin: 2em; }
h1 { color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px; }
h2 { color: #34495e; margin-top: 2em; }
.article-meta { color: #7f8c8d; font-size: 0.9em; margin-bottom: 1em; }
.article-content { line-height: 1.6; }
.source-link { color: #3498db; text-decoration: none; }
.published-date { font-style: italic; }
`

// Result describes a built artifact.
type Result struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Articles int    `json:"articles"`
	FileSize int64  `json:"file_size"`
}

// Builder writes EPUB files into a fixed output directory.
type Builder struct {
	outputDir string
	logger    interfaces.Logger
	now       func() time.Time
}

// NewBuilder creates a builder writing into outputDir, creating it if needed.
func NewBuilder(outputDir string, logger interfaces.Logger) (*Builder, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	return &Builder{outputDir: outputDir, logger: logger, now: time.Now}, nil
}

// Build assembles an EPUB from the collection's articles. filename is
// optional; when empty it derives from the title. The returned path is
// absolute within the builder's output directory.
func (b *Builder) Build(collection domain.Collection, title, filename string) (Result, error) {
	if len(collection.Items) == 0 {
		return Result{}, fmt.Errorf("no articles to build")
	}
	if title == "" {
		title = collection.Topic
	}
	if filename == "" {
		filename = GenerateFilename(title, b.now())
	}
	if !strings.HasSuffix(filename, ".epub") {
		filename += ".epub"
	}

	book, err := goepub.NewEpub(title)
	if err != nil {
		return Result{}, err
	}
	book.SetAuthor("Newsfetch")
	book.SetLang("en")
	book.SetIdentifier(fmt.Sprintf("newsfetch-%d", b.now().Unix()))
	book.SetDescription(fmt.Sprintf("Collection of %d news articles", len(collection.Items)))

	cssPath, err := b.writeCSS(book)
	if err != nil {
		return Result{}, err
	}

	if err := b.addContentsPage(book, title, collection, cssPath); err != nil {
		return Result{}, err
	}

	for i, item := range collection.Items {
		chapterTitle := item.Article.Title
		if chapterTitle == "" {
			chapterTitle = fmt.Sprintf("Article %d", i+1)
		}
		body := chapterBody(chapterTitle, item.Article)
		name := fmt.Sprintf("chapter_%03d.xhtml", i+1)
		if _, err := book.AddSection(body, chapterTitle, name, cssPath); err != nil {
			return Result{}, fmt.Errorf("adding chapter %d: %w", i+1, err)
		}
	}

	outPath := filepath.Join(b.outputDir, filename)
	if err := book.Write(outPath); err != nil {
		return Result{}, err
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return Result{}, err
	}

	if b.logger != nil {
		b.logger.Info("built epub", map[string]interface{}{
			"path":     outPath,
			"articles": len(collection.Items),
			"bytes":    info.Size(),
		})
	}

	return Result{
		Path:     outPath,
		Filename: filename,
		Title:    title,
		Articles: len(collection.Items),
		FileSize: info.Size(),
	}, nil
}

// writeCSS registers the stylesheet. The library takes CSS from a file, so
// the content goes through a temp file first.
func (b *Builder) writeCSS(book *goepub.Epub) (string, error) {
	tmp, err := os.CreateTemp("", "newsfetch-*.css")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(chapterCSS); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return book.AddCSS(tmp.Name(), "nav.css")
}

func (b *Builder) addContentsPage(book *goepub.Epub, title string, collection domain.Collection, cssPath string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", html.EscapeString(title))
	fmt.Fprintf(&sb, "<p>Generated on %s</p>\n", b.now().Format("January 2, 2006 at 3:04 PM"))
	fmt.Fprintf(&sb, "<p>%d articles</p>\n<ul>\n", len(collection.Items))
	for i, item := range collection.Items {
		name := item.Article.Title
		if name == "" {
			name = fmt.Sprintf("Article %d", i+1)
		}
		fmt.Fprintf(&sb, "<li><a href=\"chapter_%03d.xhtml\">%s</a></li>\n", i+1, html.EscapeString(name))
	}
	sb.WriteString("</ul>\n")

	_, err := book.AddSection(sb.String(), "Table of Contents", "intro.xhtml", cssPath)
	return err
}

// chapterBody renders one article as section body XHTML.
func chapterBody(title string, article domain.Article) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", html.EscapeString(title))
	sb.WriteString("<div class=\"article-meta\">\n")
	if article.Author != "" {
		fmt.Fprintf(&sb, "<p><strong>Author:</strong> %s</p>\n", html.EscapeString(article.Author))
	}
	if !article.PublishedAt.IsZero() {
		fmt.Fprintf(&sb, "<p class=\"published-date\"><strong>Published:</strong> %s</p>\n",
			article.PublishedAt.Format("January 2, 2006 at 3:04 PM"))
	}
	if article.SiteName != "" {
		fmt.Fprintf(&sb, "<p><strong>Source:</strong> %s</p>\n", html.EscapeString(article.SiteName))
	} else if article.SourceID != "" {
		fmt.Fprintf(&sb, "<p><strong>Source:</strong> %s</p>\n", html.EscapeString(article.SourceID))
	}
	if article.CanonicalURL != "" {
		escaped := html.EscapeString(article.CanonicalURL)
		fmt.Fprintf(&sb, "<p><strong>Original:</strong> <a href=%q class=\"source-link\">%s</a></p>\n", escaped, escaped)
	}
	sb.WriteString("</div>\n<div class=\"article-content\">\n")

	content := article.Text
	if content == "" {
		content = article.Excerpt
	}
	if content == "" {
		content = "No content available for this article."
	}
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		fmt.Fprintf(&sb, "<p>%s</p>\n", html.EscapeString(para))
	}
	sb.WriteString("</div>\n")
	return sb.String()
}

var (
	unsafeChars    = regexp.MustCompile(`[<>:"/\\|?*]`)
	nonWordChars   = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	hyphenCollapse = regexp.MustCompile(`[-\s]+`)
)

// GenerateFilename derives a safe filename slug from a title. Letters and
// digits in any script are kept. Falls back to a timestamped name when the
// title reduces to nothing.
func GenerateFilename(title string, now time.Time) string {
	name := strings.TrimSpace(title)
	name = unsafeChars.ReplaceAllString(name, "")
	name = nonWordChars.ReplaceAllString(name, "")
	name = hyphenCollapse.ReplaceAllString(name, "-")

	if runes := []rune(name); len(runes) > 50 {
		cut := string(runes[:50])
		if idx := strings.LastIndex(cut, "-"); idx > 0 {
			cut = cut[:idx]
		}
		name = cut
	}
	name = strings.Trim(name, "-")

	if name == "" {
		name = "news-" + now.Format("20060102-150405")
	}
	return name
}
