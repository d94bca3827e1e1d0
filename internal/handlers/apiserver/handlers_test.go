package apiserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voucher-go/internal/config"
	"voucher-go/internal/models"
	"voucher-go/internal/services"
	"voucher-go/internal/storage"

	"go.uber.org/zap"
)

type stubContactService struct {
	forms []services.ContactForm
}

func (s *stubContactService) Submit(ctx context.Context, form services.ContactForm) (string, error) {
	if form.Name == "" {
		return "", services.ErrInvalidContactForm
	}
	s.forms = append(s.forms, form)
	return "msg-1", nil
}

func (s *stubContactService) Wait() {}

type memoryCompletionRepo struct {
	records []models.CompletionRecord
}

func (r *memoryCompletionRepo) Create(ctx context.Context, record *models.CompletionRecord) error {
	record.ID = uint(len(r.records) + 1)
	r.records = append(r.records, *record)
	return nil
}

func (r *memoryCompletionRepo) GetByAddress(ctx context.Context, kind models.CompletionKind, address string) (*models.CompletionRecord, error) {
	for i := range r.records {
		if r.records[i].Kind == kind && r.records[i].Address == address {
			return &r.records[i], nil
		}
	}
	return nil, nil
}

func (r *memoryCompletionRepo) ListByKind(ctx context.Context, kind models.CompletionKind, limit int) ([]models.CompletionRecord, error) {
	var out []models.CompletionRecord
	for _, rec := range r.records {
		if rec.Kind == kind && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

func newTestRouter(t *testing.T) (http.Handler, string, *stubContactService) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "vouchers")
	storageCfg := config.StorageConfig{LocalPath: dir, PublicURLPrefix: "/images/vouchers"}
	log := zap.NewNop()
	contact := &stubContactService{}

	router := NewRouter(Routes{
		Upload: NewUploadHandler(storage.NewLocalVoucherImageStore(storageCfg), storageCfg, log),
		Auth: NewAuthHandler(services.NewMockAuthService(config.AuthConfig{Accounts: []config.MockAccount{
			{ID: "1", Email: "publisher@example.com", Password: "secret", Name: "Pub", IsPublisher: true},
		}})),
		Contact:         NewContactHandler(contact, log),
		Completion:      NewCompletionHandler(services.NewCompletionService(&memoryCompletionRepo{}), log),
		StaticDir:       dir,
		StaticURLPrefix: storageCfg.PublicURLPrefix,
	})
	return router, dir, contact
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterUploadAndServe(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body, ct := buildMultipart(t, uploadPart{field: "file", fileName: "a.png", content: "image-bytes"})
	req := httptest.NewRequest(http.MethodPost, "/api/upload-voucher-image", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = serve(router, http.MethodGet, "/images/vouchers/a.png", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "image-bytes" {
		t.Errorf("static GET = %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouterUploadMethodNotAllowed(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/api/upload-voucher-image", "")
	if rec.Code != http.StatusMethodNotAllowed || rec.Body.Len() != 0 {
		t.Errorf("GET upload = %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouterHidesStagingFiles(t *testing.T) {
	router, dir, _ := newTestRouter(t)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".upload-123.tmp"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rec := serve(router, http.MethodGet, "/images/vouchers/.upload-123.tmp", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRouterDirectoryListingHidesStagingFiles(t *testing.T) {
	router, dir, _ := newTestRouter(t)
	if err := os.MkdirAll(filepath.Join(dir, ".cache"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{".upload-456.tmp", "visible.png", filepath.Join(".cache", "x.png")} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	rec := serve(router, http.MethodGet, "/images/vouchers/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("listing status = %d", rec.Code)
	}
	listing := rec.Body.String()
	if !strings.Contains(listing, "visible.png") {
		t.Errorf("listing misses visible.png: %q", listing)
	}
	if strings.Contains(listing, ".upload-456.tmp") || strings.Contains(listing, ".cache") {
		t.Errorf("listing exposes dot entries: %q", listing)
	}

	rec = serve(router, http.MethodGet, "/images/vouchers/.cache/x.png", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("file under dot directory status = %d, want 404", rec.Code)
	}
}

func TestLoginHandler(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := serve(router, http.MethodPost, "/api/auth/login", `{"email":"publisher@example.com","password":"secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var ok services.AuthResult
	if err := json.Unmarshal(rec.Body.Bytes(), &ok); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ok.Success || ok.User == nil || !ok.User.IsPublisher {
		t.Errorf("unexpected result: %+v", ok)
	}

	rec = serve(router, http.MethodPost, "/api/auth/login", `{"email":"publisher@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var fail services.AuthResult
	if err := json.Unmarshal(rec.Body.Bytes(), &fail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fail.Success || fail.Error != services.AuthErrInvalidCredentials {
		t.Errorf("unexpected failure result: %+v", fail)
	}

	rec = serve(router, http.MethodPost, "/api/auth/login", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}
}

func TestContactHandler(t *testing.T) {
	router, _, contact := newTestRouter(t)

	rec := serve(router, http.MethodPost, "/api/contact", `{"name":"Ada","email":"ada@example.com","message":"hi"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp ContactResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "queued" || resp.ID != "msg-1" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(contact.forms) != 1 || contact.forms[0].Email != "ada@example.com" {
		t.Errorf("forms = %+v", contact.forms)
	}

	rec = serve(router, http.MethodPost, "/api/contact", `{"email":"ada@example.com","message":"hi"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid form status = %d, want 400", rec.Code)
	}
	rec = serve(router, http.MethodPost, "/api/contact", `[]`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}
}

func TestCompletionHandlers(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := serve(router, http.MethodPost, "/api/merkle-trees", `{"address":"tree-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create tree status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = serve(router, http.MethodPost, "/api/vouchers/mints", `{"address":"mint-1","merkleTree":"tree-1","metadataUrl":"/images/vouchers/a.png"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create mint status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = serve(router, http.MethodPost, "/api/vouchers/mints", `{"address":"mint-1"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}
	rec = serve(router, http.MethodPost, "/api/vouchers/mints", `{"address":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty address status = %d, want 400", rec.Code)
	}
	rec = serve(router, http.MethodPost, "/api/vouchers/mints", `{"address":"mint-2","metadataUrl":"`+strings.Repeat("u", 513)+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized metadataUrl status = %d, want 400", rec.Code)
	}

	rec = serve(router, http.MethodGet, "/api/vouchers/mints", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var mints []models.CompletionRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &mints); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(mints) != 1 || mints[0].MerkleTree != "tree-1" {
		t.Errorf("mints = %+v", mints)
	}

	rec = serve(router, http.MethodGet, "/api/merkle-trees?limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}

	rec = serve(router, http.MethodGet, "/api/merkle-trees?limit=0", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) == "null" {
		t.Errorf("list trees = %d %q", rec.Code, rec.Body.String())
	}
}
