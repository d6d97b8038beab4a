package annotations

import (
	"fmt"
	"strings"
	"time"
)

const (
	TextSize      = 20.0
	DateSize      = 10.0
	GuestDateSize = 12.0

	textOffset = 20.0
	dateOffset = 40.0
)

type Color struct {
	R, G, B int
}

var SignatureBlue = Color{R: 0, G: 0, B: 255}

// Page es la geometría de una página del PDF fuente (puntos).
type Page struct {
	Number int
	Width  float64
	Height float64
}

// Canvas dibuja en coordenadas PDF (origen abajo-izquierda).
type Canvas interface {
	DrawText(page int, x, y, size float64, color Color, text string) error
	EmbedImage(img Image, scale float64) (ref string, w, h float64, err error)
	DrawImage(page int, ref string, x, y, w, h float64) error
}

type Options struct {
	Now      func() time.Time
	DateSize float64
}

type Skip struct {
	Index  int
	Page   int
	Reason string
}

// Report resume el lote: fallos por ítem no abortan el render.
type Report struct {
	Drawn   int
	Skipped []Skip
}

// DateLine es el sello visible que acompaña a cada texto.
func DateLine(t time.Time) string {
	return "Date: " + t.Format("1/2/2006")
}

// Render dibuja items en orden; los posteriores quedan encima de los anteriores.
func Render(c Canvas, pages []Page, items []Annotation, opts Options) Report {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	dateSize := opts.DateSize
	if dateSize <= 0 {
		dateSize = DateSize
	}

	var rep Report
	for i, it := range items {
		if it.Page < 1 || it.Page > len(pages) {
			rep.Skipped = append(rep.Skipped, Skip{Index: i, Page: it.Page, Reason: "page not found"})
			continue
		}
		page := pages[it.Page-1]
		pdfY := ToDrawY(page.Height, it.Y)

		var err error
		switch it.Kind {
		case KindImage:
			err = drawImage(c, page.Number, it, pdfY)
		case KindText:
			err = drawText(c, page.Number, it, pdfY, now(), dateSize)
		default:
			err = fmt.Errorf("unknown annotation kind %q", it.Kind)
		}
		if err != nil {
			rep.Skipped = append(rep.Skipped, Skip{Index: i, Page: it.Page, Reason: err.Error()})
			continue
		}
		rep.Drawn++
	}
	return rep
}

func drawImage(c Canvas, page int, it Annotation, pdfY float64) error {
	img, err := DecodeDataURI(it.Content)
	if err != nil {
		return err
	}
	ref, w, h, err := c.EmbedImage(img, ImageScale)
	if err != nil {
		return err
	}
	return c.DrawImage(page, ref, it.X, pdfY-h, w, h)
}

func drawText(c Canvas, page int, it Annotation, pdfY float64, now time.Time, dateSize float64) error {
	if strings.TrimSpace(it.Content) == "" {
		return fmt.Errorf("empty text")
	}
	if err := c.DrawText(page, it.X, pdfY-textOffset, TextSize, SignatureBlue, it.Content); err != nil {
		return err
	}
	return c.DrawText(page, it.X, pdfY-dateOffset, dateSize, SignatureBlue, DateLine(now))
}
