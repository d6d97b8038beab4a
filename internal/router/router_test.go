package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docsign/internal/adapters/blob/filesystem"
	"docsign/internal/adapters/tokens/jwtcodec"
	"docsign/internal/domain/documents"
	"docsign/internal/middleware"
	"docsign/internal/router"

	"codeberg.org/go-pdf/fpdf"
)

type user struct {
	id    string
	email string
	name  string
}

var (
	owner = user{id: "owner-1", email: "owner@example.com", name: "Olivia Owner"}
	guest = user{id: "guest-1", email: "guest@example.com"}
)

type documentResp struct {
	ID            string  `json:"id"`
	FileURL       string  `json:"file_url"`
	SignedFileURL *string `json:"signed_file_url"`
	Status        string  `json:"status"`
	Pages         int     `json:"pages"`
	Version       int     `json:"version"`
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	blobs, err := filesystem.New(t.TempDir(), "", nil)
	if err != nil {
		t.Fatalf("filesystem.New: %v", err)
	}
	codec, err := jwtcodec.New("test-secret")
	if err != nil {
		t.Fatalf("jwtcodec.New: %v", err)
	}

	h, err := router.NewRouter(router.Options{
		AuthVerifier: nil, // modo dev
		Blobs:        blobs,
		BlobHandler:  blobs,
		ShareTokens:  codec,
		FrontendURL:  "http://app.test",
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func TestNewRouter_RequiresCodec(t *testing.T) {
	if _, err := router.NewRouter(router.Options{}); err == nil {
		t.Fatalf("expected error without share token codec")
	}
}

func TestHTTP_EndToEnd_SignShareAndAudit(t *testing.T) {
	ts := newServer(t)

	// 1) Owner sube un PDF
	doc := upload(t, ts.URL, owner, samplePDF(t))
	if doc.Status != "Pending" || doc.Pages != 1 || !strings.HasPrefix(doc.FileURL, "/blobs/uploads/") {
		t.Fatalf("unexpected upload %#v", doc)
	}

	// 2) Owner firma con una anotación de texto
	{
		st, body := doReq(t, ts.URL, "POST", "/documents/"+doc.ID+"/sign", owner, map[string]any{
			"annotations": []map[string]any{
				{"type": "text", "content": "Approved", "x": 100, "y": 120, "page": 1},
			},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 sign, got %d body=%s", st, string(body))
		}
		var signed documentResp
		_ = json.Unmarshal(body, &signed)
		if signed.Status != "Signed" || signed.SignedFileURL == nil {
			t.Fatalf("unexpected sign result %s", string(body))
		}

		// el artefacto firmado se sirve por /blobs
		res, err := http.Get(ts.URL + *signed.SignedFileURL)
		if err != nil {
			t.Fatalf("get signed pdf: %v", err)
		}
		pdf, _ := io.ReadAll(res.Body)
		res.Body.Close()
		if res.StatusCode != http.StatusOK || res.Header.Get("Content-Type") != "application/pdf" || !bytes.HasPrefix(pdf, []byte("%PDF-")) {
			t.Fatalf("unexpected signed pdf response %d %q", res.StatusCode, res.Header.Get("Content-Type"))
		}
	}

	// 3) Owner borra firmas
	{
		st, body := doReq(t, ts.URL, "DELETE", "/documents/"+doc.ID+"/signatures", owner, nil)
		if st != http.StatusOK || !strings.Contains(string(body), `"status":"Pending"`) {
			t.Fatalf("expected 200 pending after reset, got %d body=%s", st, string(body))
		}
	}

	// 4) Owner comparte con permiso edit
	var token string
	{
		st, body := doReq(t, ts.URL, "POST", "/documents/"+doc.ID+"/share", owner, map[string]any{
			"email":      "Guest@Example.com",
			"permission": "edit",
			"message":    "please sign",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 share, got %d body=%s", st, string(body))
		}
		var resp struct {
			Link      string `json:"link"`
			EmailSent bool   `json:"email_sent"`
		}
		_ = json.Unmarshal(body, &resp)
		if !strings.HasPrefix(resp.Link, "http://app.test/share/") || !resp.EmailSent {
			t.Fatalf("unexpected share response %s", string(body))
		}
		token = strings.TrimPrefix(resp.Link, "http://app.test/share/")
	}

	// 5) El invitado lo ve en "compartidos conmigo"
	{
		st, body := doReq(t, ts.URL, "GET", "/documents/shared", guest, nil)
		if st != http.StatusOK || !strings.Contains(string(body), doc.ID) {
			t.Fatalf("expected shared doc, got %d body=%s", st, string(body))
		}
	}

	// 6) Link público: vista restringida
	{
		st, body := doReq(t, ts.URL, "GET", "/public/"+token, user{}, nil)
		if st != http.StatusOK || !strings.Contains(string(body), `"email":"guest@example.com"`) {
			t.Fatalf("expected public view, got %d body=%s", st, string(body))
		}
	}

	// 7) Firma de invitado sin cuenta
	{
		st, body := doReq(t, ts.URL, "POST", "/public/"+token+"/sign", user{}, map[string]any{
			"type": "text", "content": "", "x": 50, "y": 60, "page": 1,
		})
		if st != http.StatusOK || !strings.Contains(string(body), `"status":"Signed"`) {
			t.Fatalf("expected 200 guest sign, got %d body=%s", st, string(body))
		}
	}

	// 8) Token inválido
	{
		st, _ := doReq(t, ts.URL, "GET", "/public/not-a-token", user{}, nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 for invalid token, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "POST", "/public/not-a-token/sign", user{}, map[string]any{"content": "x"})
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 for invalid token sign, got %d", st)
		}
	}

	// 9) Auditoría: sólo el dueño, en orden
	{
		st, _ := doReq(t, ts.URL, "GET", "/documents/"+doc.ID+"/audit", guest, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 audit for non-owner, got %d", st)
		}

		st, body := doReq(t, ts.URL, "GET", "/documents/"+doc.ID+"/audit", owner, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 audit, got %d body=%s", st, string(body))
		}
		var events []struct {
			Action  string  `json:"action"`
			ActorID *string `json:"actor_id"`
			Detail  string  `json:"detail"`
		}
		_ = json.Unmarshal(body, &events)

		want := []string{"Uploaded", "Signed", "Reset", "Shared", "Signed (Public)"}
		if len(events) != len(want) {
			t.Fatalf("expected %d events, got %s", len(want), string(body))
		}
		for i, e := range events {
			if e.Action != want[i] {
				t.Fatalf("event %d: expected %q, got %q", i, want[i], e.Action)
			}
		}
		last := events[len(events)-1]
		if last.ActorID != nil || !strings.Contains(last.Detail, "guest@example.com") {
			t.Fatalf("unexpected guest event %#v", last)
		}
	}
}

func TestHTTP_AuthAndValidation(t *testing.T) {
	ts := newServer(t)

	if st, _ := doReq(t, ts.URL, "GET", "/documents", user{}, nil); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", st)
	}

	st, body := uploadRaw(t, ts.URL, owner, []byte("not a pdf"))
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-pdf, got %d body=%s", st, string(body))
	}

	doc := upload(t, ts.URL, owner, samplePDF(t))

	// sin invitación => 403
	if st, _ := doReq(t, ts.URL, "GET", "/documents/"+doc.ID, guest, nil); st != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "POST", "/documents/"+doc.ID+"/sign", guest, map[string]any{}); st != http.StatusForbidden {
		t.Fatalf("expected 403 sign by stranger, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/documents/missing", owner, nil); st != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/documents/missing/audit", owner, nil); st != http.StatusNotFound {
		t.Fatalf("expected 404 audit of missing document, got %d", st)
	}

	// cuerpo de firma por encima del límite => 413 sin tocar el documento
	huge := `{"annotations":[{"type":"image","x":1,"y":1,"page":1,"content":"data:image/png;base64,` +
		strings.Repeat("A", documents.MaxSignBody) + `"}]}`
	req := httptest.NewRequest(http.MethodPost, "/documents/"+doc.ID+"/sign", strings.NewReader(huge))
	setUser(req, owner)
	rec := httptest.NewRecorder()
	ts.Config.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversized sign body, got %d", rec.Code)
	}
	if st, body := doReq(t, ts.URL, "GET", "/documents/"+doc.ID, owner, nil); st != http.StatusOK || !strings.Contains(string(body), `"Pending"`) {
		t.Fatalf("document must stay pending after rejected body, got %d %s", st, string(body))
	}

	// rechazar y luego firmar => 409
	if st, body := doReq(t, ts.URL, "PUT", "/documents/"+doc.ID+"/reject", owner, map[string]any{"reason": "wrong file"}); st != http.StatusOK {
		t.Fatalf("expected 200 reject, got %d body=%s", st, string(body))
	}
	if st, _ := doReq(t, ts.URL, "POST", "/documents/"+doc.ID+"/sign", owner, map[string]any{}); st != http.StatusConflict {
		t.Fatalf("expected 409 sign after reject, got %d", st)
	}

	if st, _ := doReq(t, ts.URL, "GET", "/documents/"+doc.ID+"/audit?limit=0", owner, nil); st != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid limit, got %d", st)
	}
}

func TestHTTP_HealthMetricsSwagger(t *testing.T) {
	ts := newServer(t)

	for _, path := range []string{"/health", "/metrics", "/swagger/doc.json"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, res.StatusCode)
		}
	}
}

func samplePDF(t *testing.T) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: 600, Ht: 800})
	pdf.Text(40, 40, "Service agreement")
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	return buf.Bytes()
}

func upload(t *testing.T, baseURL string, u user, data []byte) documentResp {
	t.Helper()

	st, body := uploadRaw(t, baseURL, u, data)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 upload, got %d body=%s", st, string(body))
	}
	var doc documentResp
	_ = json.Unmarshal(body, &doc)
	if doc.ID == "" {
		t.Fatalf("upload: missing id body=%s", string(body))
	}
	return doc
}

func uploadRaw(t *testing.T, baseURL string, u user, data []byte) (int, []byte) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "contract.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()

	req, err := http.NewRequest("POST", baseURL+"/documents", &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	setUser(req, u)
	return send(t, req)
}

func doReq(t *testing.T, baseURL, method, path string, u user, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setUser(req, u)
	return send(t, req)
}

func setUser(req *http.Request, u user) {
	if u.id == "" {
		return
	}
	req.Header.Set(middleware.HeaderDebugUserID, u.id)
	req.Header.Set(middleware.HeaderDebugUserEmail, u.email)
	req.Header.Set(middleware.HeaderDebugUserName, u.name)
}

func send(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
