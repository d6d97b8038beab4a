package annotations

import "strings"

type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Annotation es una marca colocada en la UI (origen arriba-izquierda, y crece hacia abajo).
type Annotation struct {
	Kind    Kind
	Content string // texto literal o data URI
	X       float64
	Y       float64
	Page    int // 1-based
}

// Position es el formato legacy de un solo ítem (clientes viejos).
type Position struct {
	X     float64
	Y     float64
	Page  int
	Text  string
	Image string
}

func (p Position) Annotation() Annotation {
	a := Annotation{Kind: KindText, Content: p.Text, X: p.X, Y: p.Y, Page: p.Page}
	if strings.TrimSpace(p.Image) != "" {
		a.Kind = KindImage
		a.Content = p.Image
	}
	return a
}

// Input acepta cualquiera de las dos formas que mandan los clientes.
type Input struct {
	Annotations []Annotation
	Position    *Position
}

// Normalize resuelve la entrada a una única secuencia ordenada.
// annotations[] tiene prioridad; si no viene, se usa position; si nada, lista vacía.
func (in Input) Normalize() []Annotation {
	var items []Annotation
	switch {
	case len(in.Annotations) > 0:
		items = make([]Annotation, 0, len(in.Annotations))
		items = append(items, in.Annotations...)
	case in.Position != nil:
		items = []Annotation{in.Position.Annotation()}
	default:
		return []Annotation{}
	}

	for i := range items {
		items[i] = withDefaults(items[i])
	}
	return items
}

// Config es la anotación que se guarda como configuración de firma:
// position si el cliente la mandó, si no la primera de items.
func (in Input) Config(items []Annotation) *Annotation {
	if in.Position != nil {
		a := withDefaults(in.Position.Annotation())
		return &a
	}
	return First(items)
}

func withDefaults(a Annotation) Annotation {
	if a.Page == 0 {
		a.Page = 1
	}
	if a.Kind == "" {
		a.Kind = KindText
	}
	return a
}

// First devuelve la configuración que se guarda en el documento (primer ítem).
func First(items []Annotation) *Annotation {
	if len(items) == 0 {
		return nil
	}
	a := items[0]
	return &a
}
