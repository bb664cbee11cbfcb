package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DefaultRenderDPI is the resolution pages are rendered at before OCR.
const DefaultRenderDPI = 200

// Rasterizer renders each page of a PDF to an encoded image, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([][]byte, error)
}

// PdftoppmRasterizer renders pages with poppler's pdftoppm, one PNG per page.
type PdftoppmRasterizer struct {
	binary string
	dpi    int
}

// NewPdftoppmRasterizer returns a rasterizer invoking binary (default "pdftoppm") at dpi
// (default DefaultRenderDPI).
func NewPdftoppmRasterizer(binary string, dpi int) *PdftoppmRasterizer {
	if binary == "" {
		binary = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = DefaultRenderDPI
	}
	return &PdftoppmRasterizer{binary: binary, dpi: dpi}
}

// Rasterize writes pdf to a scratch directory, counts its pages and renders them one at a time.
// The scratch directory is removed before returning.
func (p *PdftoppmRasterizer) Rasterize(ctx context.Context, pdf []byte) ([][]byte, error) {
	pageCount, err := countPages(pdf)
	if err != nil {
		return nil, err
	}
	workDir, err := os.MkdirTemp("", "tenderlens-pages-")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	pdfPath := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(pdfPath, pdf, 0600); err != nil {
		return nil, fmt.Errorf("write PDF: %w", err)
	}

	pages := make([][]byte, 0, pageCount)
	for n := 1; n <= pageCount; n++ {
		img, err := p.renderPage(ctx, pdfPath, workDir, n)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}
	return pages, nil
}

func (p *PdftoppmRasterizer) renderPage(ctx context.Context, pdfPath, workDir string, n int) ([]byte, error) {
	prefix := filepath.Join(workDir, "page-"+strconv.Itoa(n))
	cmd := exec.CommandContext(ctx, p.binary,
		"-f", strconv.Itoa(n),
		"-l", strconv.Itoa(n),
		"-png",
		"-r", strconv.Itoa(p.dpi),
		"-singlefile",
		pdfPath,
		prefix,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm page %d: %w: %s", n, err, strings.TrimSpace(stderr.String()))
	}
	img, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("read rendered page %d: %w", n, err)
	}
	_ = os.Remove(prefix + ".png")
	return img, nil
}

func countPages(pdf []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(pdf), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("count PDF pages: %w", err)
	}
	return n, nil
}
