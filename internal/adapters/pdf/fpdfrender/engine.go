package fpdfrender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"docsign/internal/domain/annotations"
	"docsign/internal/platform/logger"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ErrInvalidPDF = errors.New("invalid pdf")

const box = "/MediaBox"

var (
	rendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsign_pdf_renders_total",
			Help: "PDF renders by result.",
		},
		[]string{"result"},
	)
	annotationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsign_pdf_annotations_total",
			Help: "Annotations processed by outcome.",
		},
		[]string{"outcome"},
	)
)

// Engine carga un PDF existente con gofpdi, dibuja las anotaciones y serializa el resultado.
// Cada llamada parte de los bytes recibidos; nunca reutiliza un render anterior.
type Engine struct {
	log logger.Logger
}

func New(log logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{log: log.With(map[string]any{"component": "pdf_render"})}
}

// Pages devuelve la geometría de cada página (MediaBox, en puntos).
func (e *Engine) Pages(src []byte) (pages []annotations.Page, err error) {
	defer recoverInvalid(&err)

	if err := checkHeader(src); err != nil {
		return nil, err
	}
	pdf := fpdf.New("P", "pt", "", "")
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(src))
	importer.ImportPageFromStream(pdf, &rs, 1, box)
	return pageGeometry(importer)
}

func (e *Engine) Render(ctx context.Context, src []byte, items []annotations.Annotation, opts annotations.Options) (out []byte, rep annotations.Report, err error) {
	defer func() {
		if err != nil {
			rendersTotal.WithLabelValues("error").Inc()
			return
		}
		rendersTotal.WithLabelValues("ok").Inc()
		annotationsTotal.WithLabelValues("drawn").Add(float64(rep.Drawn))
		annotationsTotal.WithLabelValues("skipped").Add(float64(len(rep.Skipped)))
	}()
	defer recoverInvalid(&err)

	if err := ctx.Err(); err != nil {
		return nil, annotations.Report{}, err
	}
	if err := checkHeader(src); err != nil {
		return nil, annotations.Report{}, err
	}

	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)

	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(src))

	first := importer.ImportPageFromStream(pdf, &rs, 1, box)
	pages, err := pageGeometry(importer)
	if err != nil {
		return nil, annotations.Report{}, err
	}

	c := newCanvas(pdf)
	rep = annotations.Render(c, pages, items, opts)

	for _, p := range pages {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: p.Width, Ht: p.Height})

		tpl := first
		if p.Number > 1 {
			tpl = importer.ImportPageFromStream(pdf, &rs, p.Number, box)
		}
		importer.UseImportedTemplate(pdf, tpl, 0, 0, p.Width, p.Height)

		for _, ferr := range c.flush(p.Number) {
			rep.Drawn--
			rep.Skipped = append(rep.Skipped, annotations.Skip{Index: -1, Page: p.Number, Reason: ferr.Error()})
		}
	}

	for _, s := range rep.Skipped {
		e.log.Warn("annotation skipped", map[string]any{
			"index":  s.Index,
			"page":   s.Page,
			"reason": s.Reason,
		})
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, annotations.Report{}, fmt.Errorf("serialize pdf: %w", err)
	}
	return buf.Bytes(), rep, nil
}

func pageGeometry(importer *gofpdi.Importer) ([]annotations.Page, error) {
	sizes := importer.GetPageSizes()
	if len(sizes) == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrInvalidPDF)
	}

	pages := make([]annotations.Page, 0, len(sizes))
	for n := 1; n <= len(sizes); n++ {
		b, ok := sizes[n][box]
		if !ok || b["w"] <= 0 || b["h"] <= 0 {
			return nil, fmt.Errorf("%w: page %d has no %s", ErrInvalidPDF, n, box)
		}
		pages = append(pages, annotations.Page{Number: n, Width: b["w"], Height: b["h"]})
	}
	return pages, nil
}

func checkHeader(src []byte) error {
	if !bytes.HasPrefix(bytes.TrimLeft(src, "\x00\t\r\n "), []byte("%PDF-")) {
		return fmt.Errorf("%w: missing %%PDF header", ErrInvalidPDF)
	}
	return nil
}

// gofpdi reporta los errores de parseo con panic.
func recoverInvalid(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrInvalidPDF, r)
	}
}
