package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	stdimage "image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"stickerline/internal/domain"
	"stickerline/internal/imaging"
	"stickerline/internal/middleware"
	"stickerline/internal/orchestrator"
	"stickerline/internal/providers/image"
	"stickerline/internal/storage"
)

type topUpCall struct {
	userID string
	coins  int
	thb    float64
	ref    string
}

type stubUsers struct {
	mu      sync.Mutex
	user    *domain.User
	syncErr error
	topUps  []topUpCall
}

func (s *stubUsers) Sync(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syncErr != nil {
		return nil, s.syncErr
	}
	if s.user == nil {
		s.user = &domain.User{
			ID:          user.ID,
			DisplayName: user.DisplayName,
			PictureURL:  user.PictureURL,
			CoinBalance: domain.FreeTrialCoins,
		}
	} else {
		s.user.DisplayName = user.DisplayName
		s.user.PictureURL = user.PictureURL
	}
	u := *s.user
	return &u, nil
}

func (s *stubUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.user.ID != id {
		return nil, domain.ErrNotFound
	}
	u := *s.user
	return &u, nil
}

func (s *stubUsers) ChargeCoins(ctx context.Context, userID string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.user.ID != userID {
		return 0, domain.ErrNotFound
	}
	if s.user.CoinBalance < amount {
		return 0, domain.ErrInsufficientCoins
	}
	s.user.CoinBalance -= amount
	return s.user.CoinBalance, nil
}

func (s *stubUsers) RefundCoins(ctx context.Context, userID string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.user.ID != userID {
		return 0, domain.ErrNotFound
	}
	s.user.CoinBalance += amount
	return s.user.CoinBalance, nil
}

func (s *stubUsers) TopUpCoins(ctx context.Context, userID string, coins int, thbAmount float64, referenceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.user.ID != userID {
		return 0, domain.ErrNotFound
	}
	s.user.CoinBalance += coins
	s.user.TotalSpentTHB += thbAmount
	s.topUps = append(s.topUps, topUpCall{userID: userID, coins: coins, thb: thbAmount, ref: referenceID})
	return s.user.CoinBalance, nil
}

type stubJobs struct {
	mu sync.Mutex
	m  map[string]*domain.Job
}

func (s *stubJobs) Create(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.m[job.ID] = &cp
	return nil
}

func (s *stubJobs) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, errMsg *string, slots []domain.StickerSlot, gridFallback bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.m[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = status
	if errMsg != nil {
		job.ErrorMessage = *errMsg
	}
	if slots != nil {
		job.ResultSlots = slots
	}
	job.GridFallback = gridFallback
	return nil
}

func (s *stubJobs) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.m[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

type stubSlots struct {
	mu      sync.Mutex
	current *domain.StickerSet
}

func (s *stubSlots) Load(ctx context.Context, userID string) (*domain.StickerSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return s.current, nil
}

func (s *stubSlots) Save(ctx context.Context, set *domain.StickerSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = set
	return nil
}

func (s *stubSlots) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	return nil
}

type stubGenerator struct {
	sheet *image.Sheet
}

func (s *stubGenerator) Generate(ctx context.Context, req image.GenerateRequest) (*image.Sheet, error) {
	return s.sheet, nil
}

type stubCleaner struct{}

func (stubCleaner) Process(ctx context.Context, img *imaging.Image, xEdges, yEdges imaging.GridEdges) ([][]byte, error) {
	blobs := make([][]byte, domain.SlotCount)
	for i := range blobs {
		blobs[i] = fmt.Appendf(nil, "sticker-%02d", i)
	}
	return blobs, nil
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{G: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type testEnv struct {
	app   *App
	users *stubUsers
	jobs  *stubJobs
	slots *stubSlots
	store *storage.FileStore
	mux   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	signer, err := storage.NewURLSigner("files-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewURLSigner: %v", err)
	}
	logger := zerolog.Nop()

	users := &stubUsers{user: &domain.User{ID: "user-1", DisplayName: "Nok", CoinBalance: 5}}
	jobs := &stubJobs{m: map[string]*domain.Job{}}
	slots := &stubSlots{}
	gen := &stubGenerator{sheet: &image.Sheet{Data: testPNG(t, 64, 64), Format: "png", Model: "test"}}
	orch := orchestrator.New(users, jobs, slots, gen, stubCleaner{}, store, &logger, orchestrator.Options{})

	app := &App{
		Users:          users,
		Jobs:           jobs,
		Slots:          slots,
		Orch:           orch,
		Store:          store,
		Signer:         signer,
		Logger:         &logger,
		JWTSecret:      "jwt-secret",
		OmiseSecretKey: "omise-secret",
	}

	r := chi.NewRouter()
	r.Post("/auth/sync", app.AuthSync)
	r.Post("/upload", app.Upload)
	r.Get("/users/{user_id}/permissions", app.UserPermissions)
	r.Post("/jobs/generate", app.GenerateJob)
	r.Get("/jobs/current", app.CurrentSet)
	r.Get("/jobs/current/download", app.DownloadSet)
	r.Post("/jobs/reset", app.ResetSet)
	r.Get("/jobs/{job_id}", app.JobStatus)
	r.Get("/files/*", app.ServeFile)
	r.Post("/webhooks/omise", app.OmiseWebhook)

	return &testEnv{app: app, users: users, jobs: jobs, slots: slots, store: store, mux: r}
}

func (e *testEnv) do(t *testing.T, method, target, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID != "" {
		req = req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestAuthSync(t *testing.T) {
	env := newTestEnv(t)
	env.users.user = nil

	rec := env.do(t, http.MethodPost, "/auth/sync", "", syncRequest{LineID: "U100", DisplayName: "Mali", PictureURL: "https://cdn/p.jpg"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[syncResponse](t, rec)
	if resp.User.ID != "U100" || resp.User.CoinBalance != domain.FreeTrialCoins || resp.User.CanDownload {
		t.Fatalf("user = %+v", resp.User)
	}
	claims, err := middleware.VerifyJWT(env.app.JWTSecret, resp.Token)
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.Sub != "U100" || claims.Issuer != "stickerline" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestAuthSyncRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodPost, "/auth/sync", "", []byte("{not json")); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid json status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/auth/sync", "", syncRequest{LineID: "   "}); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank line_id status = %d", rec.Code)
	}
}

func TestUserPermissions(t *testing.T) {
	env := newTestEnv(t)
	env.users.user.TotalSpentTHB = 170

	rec := env.do(t, http.MethodGet, "/users/user-1/permissions", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeJSON[permissionsResponse](t, rec)
	if !resp.CanDownload || resp.CurrentSpent != 170 || resp.Required != domain.DownloadSpendThresholdTHB {
		t.Fatalf("resp = %+v", resp)
	}

	if rec := env.do(t, http.MethodGet, "/users/nobody/permissions", "user-1", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user status = %d", rec.Code)
	}
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)
	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testPNG(t, 8, 8))

	rec := env.do(t, http.MethodPost, "/upload", "user-1", uploadRequest{ImageBase64: encoded, Filename: "../secret/me.png"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[uploadResponse](t, rec)
	if !strings.HasPrefix(resp.StorageKey, "uploads/") || !strings.HasSuffix(resp.StorageKey, "/me.png") {
		t.Fatalf("storage key = %q", resp.StorageKey)
	}
	if strings.Contains(resp.StorageKey, "..") {
		t.Fatalf("traversal survived: %q", resp.StorageKey)
	}
	if !strings.HasPrefix(resp.URL, "/files/uploads/") {
		t.Fatalf("url = %q", resp.URL)
	}
	if _, err := env.store.Read(context.Background(), resp.StorageKey); err != nil {
		t.Fatalf("stored blob unreadable: %v", err)
	}
}

func TestUploadRejectsBadData(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/upload", "user-1", uploadRequest{ImageBase64: "!!not-base64!!"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad base64 status = %d", rec.Code)
	}

	text := base64.StdEncoding.EncodeToString([]byte("plain text, no magic bytes"))
	rec = env.do(t, http.MethodPost, "/upload", "user-1", uploadRequest{ImageBase64: text})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-image status = %d", rec.Code)
	}
}

func TestGenerateJobLifecycle(t *testing.T) {
	env := newTestEnv(t)
	key, err := env.store.Write(context.Background(), "uploads/ref/face.png", testPNG(t, 8, 8))
	if err != nil {
		t.Fatalf("seed upload: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/jobs/generate", "user-1", generateRequest{Style: "chibi_2d", Prompt: "corgi", ImageKey: key})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	accepted := decodeJSON[jobResponse](t, rec)
	if accepted.JobID == "" || accepted.Status != string(domain.JobStatusQueued) {
		t.Fatalf("accepted = %+v", accepted)
	}

	env.app.Orch.Wait()

	rec = env.do(t, http.MethodGet, "/jobs/"+accepted.JobID, "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("poll status = %d", rec.Code)
	}
	final := decodeJSON[jobResponse](t, rec)
	if final.Status != string(domain.JobStatusCompleted) {
		t.Fatalf("final = %+v", final)
	}
	if len(final.Slots) != domain.SlotCount {
		t.Fatalf("slots = %d", len(final.Slots))
	}
	for _, slot := range final.Slots {
		if !strings.HasPrefix(slot.URL, "/files/stickers/") {
			t.Fatalf("slot url = %q", slot.URL)
		}
	}
}

func TestGenerateJobErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	key, err := env.store.Write(context.Background(), "uploads/ref/face.png", testPNG(t, 8, 8))
	if err != nil {
		t.Fatalf("seed upload: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/jobs/generate", "user-1", generateRequest{Style: "chibi_2d", ImageKey: "uploads/missing.png"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing upload status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/jobs/generate", "user-1", generateRequest{Style: "watercolor", ImageKey: key})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad style status = %d", rec.Code)
	}

	env.users.user.CoinBalance = 0
	rec = env.do(t, http.MethodPost, "/jobs/generate", "user-1", generateRequest{Style: "chibi_2d", ImageKey: key})
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("broke user status = %d", rec.Code)
	}
}

func TestJobStatusOwnership(t *testing.T) {
	env := newTestEnv(t)
	env.jobs.m["job-1"] = &domain.Job{ID: "job-1", UserID: "user-1", Status: domain.JobStatusProcessing}

	rec := env.do(t, http.MethodGet, "/jobs/job-1", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner status = %d", rec.Code)
	}
	resp := decodeJSON[jobResponse](t, rec)
	if resp.Status != string(domain.JobStatusProcessing) || len(resp.Slots) != 0 {
		t.Fatalf("resp = %+v", resp)
	}

	if rec := env.do(t, http.MethodGet, "/jobs/job-1", "intruder", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("intruder status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/jobs/ghost", "user-1", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing job status = %d", rec.Code)
	}
}

func TestCurrentAndResetSet(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/jobs/current", "user-1", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("empty set status = %d", rec.Code)
	}

	env.slots.current = &domain.StickerSet{
		UserID: "user-1",
		JobID:  "job-9",
		Slots:  []domain.StickerSlot{{Index: 0, StorageKey: "stickers/user-1/job-9/00.png", Locked: true}},
	}
	rec := env.do(t, http.MethodGet, "/jobs/current", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeJSON[currentSetResponse](t, rec)
	if resp.JobID != "job-9" || len(resp.Slots) != 1 || !resp.Slots[0].Locked || resp.Slots[0].URL == "" {
		t.Fatalf("resp = %+v", resp)
	}

	if rec := env.do(t, http.MethodPost, "/jobs/reset", "user-1", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("reset status = %d", rec.Code)
	}
	if env.slots.current != nil {
		t.Fatal("set not cleared")
	}
}

func TestDownloadSet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	slots := make([]domain.StickerSlot, 3)
	for i := range slots {
		key, err := env.store.Write(ctx, fmt.Sprintf("stickers/user-1/job/%02d.png", i), testPNG(t, 4, 4))
		if err != nil {
			t.Fatalf("seed blob: %v", err)
		}
		slots[i] = domain.StickerSlot{Index: i, StorageKey: key}
	}
	env.slots.current = &domain.StickerSet{UserID: "user-1", JobID: "job", Slots: slots}

	rec := env.do(t, http.MethodGet, "/jobs/current/download", "user-1", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("gated status = %d", rec.Code)
	}

	env.users.user.TotalSpentTHB = domain.DownloadSpendThresholdTHB
	rec = env.do(t, http.MethodGet, "/jobs/current/download", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("content type = %q", ct)
	}

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 3 {
		t.Fatalf("archive entries = %d", len(zr.File))
	}
	for i, f := range zr.File {
		if want := fmt.Sprintf("sticker_%02d.png", i); f.Name != want {
			t.Fatalf("entry %d = %q, want %q", i, f.Name, want)
		}
	}
}

func omiseSign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func omiseBody(key, status string, amount int64, userID, chargeID string) []byte {
	payload := map[string]any{
		"key": key,
		"data": map[string]any{
			"id":     chargeID,
			"status": status,
			"amount": amount,
			"metadata": map[string]any{
				"user_id": userID,
			},
		},
	}
	body, _ := json.Marshal(payload)
	return body
}

func TestOmiseWebhookCreditsPackage(t *testing.T) {
	env := newTestEnv(t)
	body := omiseBody("charge.complete", "successful", 10000, "user-1", "chrg_1")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/omise", bytes.NewReader(body))
	req.Header.Set("X-Omise-Signature", omiseSign(env.app.OmiseSecretKey, body))
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	env.users.mu.Lock()
	defer env.users.mu.Unlock()
	if len(env.users.topUps) != 1 {
		t.Fatalf("top ups = %d", len(env.users.topUps))
	}
	got := env.users.topUps[0]
	if got.userID != "user-1" || got.coins != 12 || got.thb != 100 || got.ref != "chrg_1" {
		t.Fatalf("top up = %+v", got)
	}
}

func TestOmiseWebhookRejectsAndIgnores(t *testing.T) {
	env := newTestEnv(t)

	body := omiseBody("charge.complete", "successful", 7000, "user-1", "chrg_2")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/omise", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("no signature status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhooks/omise", bytes.NewReader(body))
	req.Header.Set("X-Omise-Signature", "deadbeef")
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("bad signature status = %d", rec.Code)
	}

	ignored := omiseBody("charge.create", "pending", 7000, "user-1", "chrg_3")
	req = httptest.NewRequest(http.MethodPost, "/webhooks/omise", bytes.NewReader(ignored))
	req.Header.Set("X-Omise-Signature", omiseSign(env.app.OmiseSecretKey, ignored))
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ignored event status = %d", rec.Code)
	}

	unknown := omiseBody("charge.complete", "successful", 7000, "stranger", "chrg_4")
	req = httptest.NewRequest(http.MethodPost, "/webhooks/omise", bytes.NewReader(unknown))
	req.Header.Set("X-Omise-Signature", omiseSign(env.app.OmiseSecretKey, unknown))
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unknown user status = %d", rec.Code)
	}

	env.users.mu.Lock()
	defer env.users.mu.Unlock()
	if len(env.users.topUps) != 0 {
		t.Fatalf("top ups = %d, want 0", len(env.users.topUps))
	}
}

func TestCoinsForAmount(t *testing.T) {
	tests := []struct {
		thb  float64
		want int
	}{
		{100, 12},
		{100.005, 12},
		{70, 7},
		{50, 5},
		{35, 3},
		{5, 0},
	}
	for _, tt := range tests {
		if got := coinsForAmount(tt.thb); got != tt.want {
			t.Errorf("coinsForAmount(%v) = %d, want %d", tt.thb, got, tt.want)
		}
	}
}

func TestServeFile(t *testing.T) {
	env := newTestEnv(t)
	key, err := env.store.Write(context.Background(), "stickers/user-1/job/00.png", testPNG(t, 4, 4))
	if err != nil {
		t.Fatalf("seed blob: %v", err)
	}

	signed := env.app.Signer.Sign(key)
	rec := env.do(t, http.MethodGet, signed, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}

	if rec := env.do(t, http.MethodGet, signed+"tampered", "", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("tampered status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/files/"+key+"?exp=123&sig=abc", "", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expired status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/files/"+key+"?exp=notanumber&sig=abc", "", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("bad exp status = %d", rec.Code)
	}
}
