package documents

import (
	"strings"
	"time"

	"docsign/internal/domain/annotations"
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusSigned   Status = "Signed"
	StatusRejected Status = "Rejected"
)

type Permission string

const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit" // puede firmar
)

func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

// Grant es una invitación por email; único por documento.
type Grant struct {
	Email      string
	Permission Permission
}

type Blob struct {
	ID  string
	URL string
}

type Document struct {
	ID       string
	FileName string

	Original Blob
	Signed   *Blob // != nil sii Status == Signed

	Status      Status
	OwnerUserID string // inmutable

	SharedWith      []Grant
	SignatureConfig *annotations.Annotation

	Pages   int
	Version int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail es la forma canónica con la que se comparan grants.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (d Document) IsOwner(userID string) bool {
	userID = strings.TrimSpace(userID)
	return userID != "" && d.OwnerUserID == userID
}

func (d Document) GrantFor(email string) (Grant, bool) {
	email = NormalizeEmail(email)
	if email == "" {
		return Grant{}, false
	}
	for _, g := range d.SharedWith {
		if g.Email == email {
			return g, true
		}
	}
	return Grant{}, false
}

func (d Document) CanView(userID, email string) bool {
	if d.IsOwner(userID) {
		return true
	}
	_, ok := d.GrantFor(email)
	return ok
}

// FileURL es lo que ve un destinatario: el firmado si existe, si no el original.
func (d Document) FileURL() string {
	if d.Signed != nil {
		return d.Signed.URL
	}
	return d.Original.URL
}
