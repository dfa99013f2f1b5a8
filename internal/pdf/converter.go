// Package pdf renders PDF documents into per-page JPEG images.
package pdf

import (
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog"

	"github.com/spherical/docpipe/internal/domain"
	"github.com/spherical/docpipe/internal/observability"
)

// Converter implements PDF to image conversion using go-fitz
type Converter struct {
	dpi     int
	tempDir string
	doc     *fitz.Document
	logger  zerolog.Logger
}

// NewConverter creates a new PDF converter rendering at the given DPI.
func NewConverter(dpi int, logger zerolog.Logger) *Converter {
	if dpi <= 0 {
		dpi = 200
	}
	return &Converter{
		dpi:    dpi,
		logger: observability.WithComponent(logger, "pdf"),
	}
}

// Convert renders every page of a PDF file to a JPEG image in a fresh temp
// directory. Rendering stops between pages when ctx is cancelled.
func (c *Converter) Convert(ctx context.Context, pdfPath string, quality int) ([]domain.PageImage, error) {
	validator := NewValidator(c.logger)
	if err := validator.ValidatePDFPath(pdfPath); err != nil {
		return nil, err
	}
	if err := validator.ValidateQuality(quality); err != nil {
		return nil, err
	}

	// Release the previous document's handle and rendered pages before
	// rendering the next one, so a multi-document batch holds at most one
	// document's pages on disk at a time.
	c.release()

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, domain.ConversionError("failed to open PDF", err)
	}
	c.doc = doc

	tempDir, err := os.MkdirTemp("", "docpipe-pages-*")
	if err != nil {
		return nil, domain.IOError("failed to create temp directory", err)
	}
	c.tempDir = tempDir

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, domain.ValidationError("PDF has no pages", nil)
	}

	c.logger.Debug().Str("pdf", pdfPath).Int("pages", pageCount).Int("dpi", c.dpi).Msg("Rendering pages")

	images := make([]domain.PageImage, 0, pageCount)

	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(pageNum, float64(c.dpi))
		if err != nil {
			return nil, domain.ConversionError(fmt.Sprintf("failed to render page %d", pageNum+1), err)
		}

		outputPath := filepath.Join(tempDir, fmt.Sprintf("page_%03d.jpg", pageNum+1))
		outputFile, err := os.Create(outputPath)
		if err != nil {
			return nil, domain.IOError(fmt.Sprintf("failed to create output file for page %d", pageNum+1), err)
		}

		err = jpeg.Encode(outputFile, img, &jpeg.Options{Quality: quality})
		outputFile.Close()
		if err != nil {
			return nil, domain.ConversionError(fmt.Sprintf("failed to encode page %d as JPG", pageNum+1), err)
		}

		bounds := img.Bounds()
		images = append(images, domain.PageImage{
			PageNumber: pageNum + 1,
			ImagePath:  outputPath,
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
		})
	}

	return images, nil
}

// release closes the current document and removes its temp directory.
func (c *Converter) release() error {
	if c.doc != nil {
		c.doc.Close()
		c.doc = nil
	}

	var err error
	if c.tempDir != "" {
		err = os.RemoveAll(c.tempDir)
		c.tempDir = ""
	}
	return err
}

// Cleanup removes temporary files and closes the PDF document
func (c *Converter) Cleanup() error {
	if err := c.release(); err != nil {
		return fmt.Errorf("cleanup errors: %v", err)
	}
	return nil
}
