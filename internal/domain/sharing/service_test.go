package sharing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"docsign/internal/domain/annotations"
	"docsign/internal/domain/audit"
	"docsign/internal/domain/documents"
	"docsign/internal/ports/mailer"
	"docsign/internal/ports/tokens"
)

// -------------------------
// Fakes
// -------------------------

type fakeDocs struct {
	byID      map[string]documents.Document
	finalized []finalizeCall
}

type finalizeCall struct {
	id    string
	actor documents.Actor
	in    annotations.Input
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{byID: map[string]documents.Document{
		"doc-1": {
			ID:          "doc-1",
			FileName:    "nda.pdf",
			Original:    documents.Blob{ID: "uploads/1", URL: "http://blobs/uploads/1"},
			Status:      documents.StatusPending,
			OwnerUserID: "owner-1",
			Version:     1,
		},
	}}
}

func (f *fakeDocs) Lookup(ctx context.Context, id string) (documents.Document, error) {
	d, ok := f.byID[id]
	if !ok {
		return documents.Document{}, documents.ErrNotFound
	}
	return d, nil
}

func (f *fakeDocs) UpsertGrant(ctx context.Context, id, ownerUserID, email string, perm documents.Permission) (documents.Document, documents.Grant, error) {
	d, err := f.Lookup(ctx, id)
	if err != nil {
		return documents.Document{}, documents.Grant{}, err
	}
	if !d.IsOwner(ownerUserID) {
		return documents.Document{}, documents.Grant{}, documents.ErrUnauthorized
	}
	email, err = documents.ParseEmail(email)
	if err != nil {
		return documents.Document{}, documents.Grant{}, err
	}
	if perm == "" {
		perm = documents.PermissionView
	}
	g := documents.Grant{Email: email, Permission: perm}
	out := []documents.Grant{}
	for _, cur := range d.SharedWith {
		if cur.Email != email {
			out = append(out, cur)
		}
	}
	d.SharedWith = append(out, g)
	d.Version++
	f.byID[id] = d
	return d, g, nil
}

func (f *fakeDocs) Finalize(ctx context.Context, id string, actor documents.Actor, in annotations.Input, origin string) (documents.Document, error) {
	d, err := f.Lookup(ctx, id)
	if err != nil {
		return documents.Document{}, err
	}
	if g, ok := d.GrantFor(actor.Email); !ok || g.Permission != documents.PermissionEdit {
		return documents.Document{}, documents.ErrUnauthorized
	}
	f.finalized = append(f.finalized, finalizeCall{id: id, actor: actor, in: in})
	d.Status = documents.StatusSigned
	d.Signed = &documents.Blob{ID: "signed/1", URL: "http://blobs/signed/1"}
	d.Version++
	f.byID[id] = d
	return d, nil
}

// fakeCodec: "tok|<doc>|<email>"; "expired|..." simula un token vencido.
type fakeCodec struct{}

func (fakeCodec) Sign(c tokens.ShareClaims, ttl time.Duration) (string, error) {
	return "tok|" + c.DocumentID + "|" + c.Email, nil
}

func (fakeCodec) Verify(token string) (tokens.ShareClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 3 || parts[0] != "tok" {
		return tokens.ShareClaims{}, tokens.ErrInvalidToken
	}
	return tokens.ShareClaims{DocumentID: parts[1], Email: parts[2]}, nil
}

type fakeMailer struct {
	sent []mailer.Message
	fail bool
}

func (m *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeAudit struct {
	entries []audit.Entry
}

func (a *fakeAudit) Record(ctx context.Context, e audit.Entry) {
	a.entries = append(a.entries, e)
}

type fixture struct {
	svc   *Service
	docs  *fakeDocs
	mail  *fakeMailer
	audit *fakeAudit
}

func newFixture() fixture {
	f := fixture{docs: newFakeDocs(), mail: &fakeMailer{}, audit: &fakeAudit{}}
	f.svc = NewService(f.docs, fakeCodec{}, f.mail, f.audit, nil, Options{FrontendURL: "https://app.test/"})
	return f
}

var owner = Sharer{UserID: "owner-1", Name: "Bob <Boss>", Email: "bob@x.com"}

// -------------------------
// Tests
// -------------------------

func TestShare(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Share(context.Background(), "doc-1", owner, ShareInput{
		Email:      "Ana@X.com",
		Permission: documents.PermissionEdit,
		Message:    "please <sign>",
		Origin:     "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("Share: %v", err)
	}
	if res.Link != "https://app.test/share/tok|doc-1|ana@x.com" || !res.EmailSent {
		t.Fatalf("unexpected result %#v", res)
	}

	if len(f.mail.sent) != 1 {
		t.Fatalf("expected one email")
	}
	msg := f.mail.sent[0]
	if msg.To != "ana@x.com" || msg.Subject != "Document Signature Request from Bob <Boss>" {
		t.Fatalf("unexpected message %#v", msg)
	}
	if !strings.Contains(msg.HTML, "please &lt;sign&gt;") || !strings.Contains(msg.HTML, "Bob &lt;Boss&gt;") {
		t.Fatalf("html body must escape user content: %s", msg.HTML)
	}
	if !strings.Contains(msg.Text, "please <sign>") || !strings.Contains(msg.Text, res.Link) {
		t.Fatalf("unexpected text body: %s", msg.Text)
	}

	if len(f.audit.entries) != 1 || f.audit.entries[0].Detail != "Shared with ana@x.com (edit)" {
		t.Fatalf("unexpected audit %#v", f.audit.entries)
	}
}

func TestShare_TwiceKeepsOneGrant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.Share(ctx, "doc-1", owner, ShareInput{Email: "ana@x.com"}); err != nil {
		t.Fatalf("Share: %v", err)
	}
	if _, err := f.svc.Share(ctx, "doc-1", owner, ShareInput{Email: " ANA@x.com", Permission: documents.PermissionEdit}); err != nil {
		t.Fatalf("Share: %v", err)
	}

	d := f.docs.byID["doc-1"]
	if len(d.SharedWith) != 1 || d.SharedWith[0].Permission != documents.PermissionEdit {
		t.Fatalf("expected one grant with latest permission, got %#v", d.SharedWith)
	}
	if len(f.audit.entries) != 2 {
		t.Fatalf("each share is audited, got %d", len(f.audit.entries))
	}
}

func TestShare_EmailFailureIsReported(t *testing.T) {
	f := newFixture()
	f.mail.fail = true

	res, err := f.svc.Share(context.Background(), "doc-1", owner, ShareInput{Email: "ana@x.com"})
	if err != nil {
		t.Fatalf("Share must not fail on email errors: %v", err)
	}
	if res.EmailSent || res.Link == "" {
		t.Fatalf("unexpected result %#v", res)
	}
}

func TestShare_Errors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.Share(ctx, "doc-1", Sharer{UserID: "intruder"}, ShareInput{Email: "ana@x.com"}); err != documents.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.svc.Share(ctx, "doc-1", owner, ShareInput{Email: "nope"}); err != documents.ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.Share(ctx, "missing", owner, ShareInput{Email: "ana@x.com"}); err != documents.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(f.audit.entries) != 0 || len(f.mail.sent) != 0 {
		t.Fatalf("failed shares must not audit or mail")
	}
}

func TestSenderName(t *testing.T) {
	if got := senderName(Sharer{Email: "bob@x.com"}); got != "bob@x.com" {
		t.Fatalf("got %q", got)
	}
	if got := senderName(Sharer{}); got != "a DocSign user" {
		t.Fatalf("got %q", got)
	}
}

func TestResolve(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	res, _ := f.svc.Share(ctx, "doc-1", owner, ShareInput{Email: "ana@x.com"})
	token := strings.TrimPrefix(res.Link, "https://app.test/share/")
	auditBefore := len(f.audit.entries)

	v, err := f.svc.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.ID != "doc-1" || v.Email != "ana@x.com" || v.Permission != documents.PermissionView || v.FileURL != "http://blobs/uploads/1" {
		t.Fatalf("unexpected view %#v", v)
	}
	if len(f.audit.entries) != auditBefore {
		t.Fatalf("resolve must not audit")
	}

	if _, err := f.svc.Resolve(ctx, "garbage"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := f.svc.Resolve(ctx, "tok|doc-1|stranger@x.com"); err != ErrInvalidToken {
		t.Fatalf("token without grant must be invalid, got %v", err)
	}
	if _, err := f.svc.Resolve(ctx, "tok|gone|ana@x.com"); err != documents.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSignAsGuest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _ = f.svc.Share(ctx, "doc-1", owner, ShareInput{Email: "ana@x.com", Permission: documents.PermissionEdit})

	v, err := f.svc.SignAsGuest(ctx, "tok|doc-1|ana@x.com", annotations.Annotation{X: 10, Y: 20}, "1.2.3.4")
	if err != nil {
		t.Fatalf("SignAsGuest: %v", err)
	}
	if v.Status != documents.StatusSigned || v.FileURL != "http://blobs/signed/1" {
		t.Fatalf("unexpected view %#v", v)
	}

	call := f.docs.finalized[0]
	if call.actor.Kind != documents.ActorGuest || call.actor.Email != "ana@x.com" {
		t.Fatalf("unexpected actor %#v", call.actor)
	}
	if len(call.in.Annotations) != 1 {
		t.Fatalf("guest signs exactly one annotation")
	}
	a := call.in.Annotations[0]
	if a.Kind != annotations.KindText || a.Content != "Signed by Guest (ana@x.com)" {
		t.Fatalf("unexpected default annotation %#v", a)
	}
}

func TestSignAsGuest_TextIsAlwaysTheGuestStamp(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _ = f.svc.Share(ctx, "doc-1", owner, ShareInput{Email: "ana@x.com", Permission: documents.PermissionEdit})

	_, err := f.svc.SignAsGuest(ctx, "tok|doc-1|ana@x.com",
		annotations.Annotation{Kind: annotations.KindText, Content: "Signed by The Owner", X: 1, Y: 1, Page: 1}, "ip")
	if err != nil {
		t.Fatalf("SignAsGuest: %v", err)
	}
	if got := f.docs.finalized[0].in.Annotations[0].Content; got != "Signed by Guest (ana@x.com)" {
		t.Fatalf("client text must be replaced, got %q", got)
	}

	img := "data:image/png;base64,AAAA"
	_, err = f.svc.SignAsGuest(ctx, "tok|doc-1|ana@x.com",
		annotations.Annotation{Kind: annotations.KindImage, Content: img, X: 1, Y: 1, Page: 1}, "ip")
	if err != nil {
		t.Fatalf("SignAsGuest image: %v", err)
	}
	if got := f.docs.finalized[1].in.Annotations[0].Content; got != img {
		t.Fatalf("image content must be kept, got %q", got)
	}
}

func TestSignAsGuest_InvalidTokenNoMutation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _ = f.svc.Share(ctx, "doc-1", owner, ShareInput{Email: "ana@x.com", Permission: documents.PermissionEdit})
	before := f.docs.byID["doc-1"]
	auditBefore := len(f.audit.entries)

	for _, tok := range []string{"", "expired|doc-1|ana@x.com", "tok|doc-1"} {
		if _, err := f.svc.SignAsGuest(ctx, tok, annotations.Annotation{Content: "x"}, "ip"); err != ErrInvalidToken {
			t.Fatalf("%q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
	if len(f.docs.finalized) != 0 || f.docs.byID["doc-1"].Version != before.Version {
		t.Fatalf("document must not change")
	}
	if len(f.audit.entries) != auditBefore {
		t.Fatalf("no audit on invalid token")
	}
}

func TestSignAsGuest_ViewOnlyIsForbidden(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _ = f.svc.Share(ctx, "doc-1", owner, ShareInput{Email: "ana@x.com"})

	if _, err := f.svc.SignAsGuest(ctx, "tok|doc-1|ana@x.com", annotations.Annotation{Content: "x"}, "ip"); !errors.Is(err, documents.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
