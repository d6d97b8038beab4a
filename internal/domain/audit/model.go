package audit

import "time"

// Acciones registradas. Texto libre: el feed las muestra tal cual.
const (
	ActionUploaded     = "Uploaded"
	ActionSigned       = "Signed"
	ActionSignedPublic = "Signed (Public)"
	ActionShared       = "Shared"
	ActionRejected     = "Rejected"
	ActionReset        = "Reset"
	ActionDeleted      = "Deleted"
)

// Event es inmutable una vez registrado.
type Event struct {
	ID         string
	DocumentID string
	Action     string
	ActorID    *string // nil para invitados
	Detail     string
	Origin     string
	CreatedAt  time.Time
}

// Entry es lo que piden registrar los otros módulos.
type Entry struct {
	DocumentID string
	Action     string
	ActorID    *string
	Detail     string
	Origin     string
}

// Actor devuelve un puntero listo para Entry.ActorID ("" => nil).
func Actor(userID string) *string {
	if userID == "" {
		return nil
	}
	return &userID
}
