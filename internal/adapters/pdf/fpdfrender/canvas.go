package fpdfrender

import (
	"bytes"
	"fmt"

	"docsign/internal/domain/annotations"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const fontFamily = "Helvetica"

type drawOp struct {
	kind string
	run  func(pdf *fpdf.Fpdf)
}

// canvas implementa annotations.Canvas sobre fpdf.
// Las imágenes se registran al vuelo (no dependen de página); los trazos se
// encolan por página y se vuelcan cuando esa página ya tiene su plantilla importada,
// porque fpdf dibuja relativo a la altura de la página actual.
type canvas struct {
	pdf    *fpdf.Fpdf
	ops    map[int][]drawOp
	images int
	latin1 *encoding.Encoder
}

func newCanvas(pdf *fpdf.Fpdf) *canvas {
	return &canvas{
		pdf:    pdf,
		ops:    map[int][]drawOp{},
		latin1: encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder()),
	}
}

func (c *canvas) DrawText(page int, x, y, size float64, color annotations.Color, text string) error {
	// Las fuentes core de fpdf son latin-1; lo que no entra se reemplaza.
	enc, err := c.latin1.String(text)
	if err != nil {
		return fmt.Errorf("encode text: %w", err)
	}

	c.ops[page] = append(c.ops[page], drawOp{kind: "text", run: func(pdf *fpdf.Fpdf) {
		_, h := pdf.GetPageSize()
		pdf.SetFont(fontFamily, "", size)
		pdf.SetTextColor(color.R, color.G, color.B)
		pdf.Text(x, h-y, enc)
	}})
	return nil
}

func (c *canvas) EmbedImage(img annotations.Image, scale float64) (string, float64, float64, error) {
	c.images++
	name := fmt.Sprintf("annotation-%d", c.images)

	opts := fpdf.ImageOptions{ImageType: string(img.Format), ReadDpi: false}
	info := c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if c.pdf.Err() {
		err := c.pdf.Error()
		c.pdf.ClearError()
		return "", 0, 0, fmt.Errorf("embed %s: %w", img.Format, err)
	}
	if info == nil {
		return "", 0, 0, fmt.Errorf("embed %s: no image info", img.Format)
	}

	w, h := img.Scaled(scale)
	return name, w, h, nil
}

func (c *canvas) DrawImage(page int, ref string, x, y, w, h float64) error {
	c.ops[page] = append(c.ops[page], drawOp{kind: "image", run: func(pdf *fpdf.Fpdf) {
		_, ph := pdf.GetPageSize()
		// fpdf usa esquina superior izquierda; y llega como esquina inferior en espacio PDF.
		pdf.ImageOptions(ref, x, ph-y-h, w, h, false, fpdf.ImageOptions{AllowNegativePosition: true}, 0, "")
	}})
	return nil
}

// flush vuelca los trazos de page sobre la página actual y devuelve los que fallaron.
func (c *canvas) flush(page int) []error {
	var failed []error
	for _, op := range c.ops[page] {
		op.run(c.pdf)
		if c.pdf.Err() {
			failed = append(failed, fmt.Errorf("%s on page %d: %w", op.kind, page, c.pdf.Error()))
			c.pdf.ClearError()
		}
	}
	delete(c.ops, page)
	return failed
}
