package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/internal/service"
	"soulfamily/sounds-api/internal/testdb"
	"soulfamily/sounds-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	mp3Bytes = append([]byte("ID3\x03\x00\x00\x00\x00\x00\x0f"), bytes.Repeat([]byte{0}, 64)...)
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)
)

func init() {
	gin.SetMode(gin.TestMode)
}

type bucket struct {
	mu      sync.Mutex
	objects map[string]int
}

func (b *bucket) Put(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	n, err := io.Copy(io.Discard, body)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = int(n)
	return nil
}

func (b *bucket) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, k := range keys {
		delete(b.objects, k)
	}
	return nil
}

func (b *bucket) PresignGet(_ context.Context, key, _ string) (string, error) {
	return "https://cdn.test/" + key, nil
}

type server struct {
	t      *testing.T
	d      *internal.Deps
	router *gin.Engine
	tokens map[string]string
}

func newServer(t *testing.T) *server {
	t.Helper()

	conn := testdb.New(t)
	argon := security.NewArgon()
	issuer := security.NewTokenIssuer("test-secret", time.Hour)
	uploader := service.NewUploader(&bucket{objects: map[string]int{}}, 10<<20)
	notifier := service.NopNotifier{}

	tax := service.SeedTaxonomy{
		Genres:      []service.SeedNamed{{Name: "Hip Hop", Children: []string{"Trap"}}},
		Instruments: []service.SeedNamed{{Name: "Keys", Children: []string{"Piano"}}},
		Moods:       []string{"Dark", "Chill", "Energetic"},
	}
	require.NoError(t, service.Seed(context.Background(), conn, argon, &service.SeedFile{
		Taxonomy: map[model.Kind]service.SeedTaxonomy{model.KindBeat: tax, model.KindPack: tax},
	}))

	d := &internal.Deps{
		DB:     conn,
		Argon:  argon,
		Issuer: issuer,

		Uploader:    uploader,
		Accounts:    service.NewAccountService(conn, argon, issuer, notifier, "http://localhost"),
		Onboarding:  service.NewOnboardingService(conn, argon, uploader, notifier),
		Submissions: service.NewSubmissionService(conn, uploader, 0),
		Review:      service.NewReviewService(conn, notifier),
		Library:     service.NewLibraryService(conn, uploader),
		Taxonomy:    service.NewTaxonomyService(conn),
		Plans:       service.NewPlanService(conn),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := &server{
		t:      t,
		d:      d,
		router: NewRouter(ctx, d, RouterConfig{CacheTTL: time.Millisecond}),
		tokens: map[string]string{},
	}

	for id, role := range map[string]model.Role{
		"admin":    model.RoleAdmin,
		"staff":    model.RoleStaff,
		"supplier": model.RoleSupplier,
		"member":   model.RoleMember,
	} {
		require.NoError(t, conn.Create(&model.User{
			ID:       id,
			Email:    id + "@example.com",
			Username: id,
			Name:     id,
			Role:     role,
			Verified: true,
		}).Error)

		token, _, err := issuer.Issue(security.Principal{UserID: id, Role: role})
		require.NoError(t, err)
		s.tokens[id] = token
	}

	return s
}

func (s *server) do(as, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	s.t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[as])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) json(as, method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(b)
	}

	return s.do(as, method, path, r, "application/json")
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var meta = map[string]any{
	"file_name":            "take",
	"genre":                "Hip Hop",
	"sub_genre":            "Trap",
	"instrument":           "Keys",
	"sub_instrument":       "Piano",
	"mood":                 "Dark",
	"file_bpm_type":        "Range",
	"file_bpm_start_value": 80,
	"file_bpm_end_value":   90,
	"file_key":             "Eb",
	"file_key_scale":       "Minor",
	"file_key_type":        "Flat",
	"file_type":            "mp3",
	"file_source":          "Electronic",
}

// beatForm builds a beat submission with files audio parts but metas
// entries in audio_files_meta
func beatForm(t *testing.T, title string, files, metas int) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	fields := [][2]string{
		{"beat_title", title},
		{"beat_type", "Beat"},
		{"beat_description", "late night keys"},
		{"genre", "Hip Hop"},
		{"sub_genre", "Trap"},
		{"moods", "Dark"},
		{"moods", "Chill"},
		{"moods", "Energetic"},
		{"beat_exclusive_price", "249.99"},
	}
	for _, f := range fields {
		require.NoError(t, mw.WriteField(f[0], f[1]))
	}

	demo, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("demo_meta", string(demo)))

	list := make([]map[string]any, metas)
	for i := range list {
		list[i] = meta
	}
	all, err := json.Marshal(list)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("audio_files_meta", string(all)))

	part := func(field, name string, data []byte) {
		w, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}

	part("beat_artwork_file", "cover.png", pngBytes)
	part("beat_demo", "demo.mp3", mp3Bytes)
	for range files {
		part("audio_files", "take.mp3", mp3Bytes)
	}

	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestHeartbeatAndHealth(t *testing.T) {
	s := newServer(t)

	w := s.do("", http.MethodHead, "/api/heartbeat", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do("", http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = s.do("", http.MethodGet, "/api/nothing-here", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouteGuards(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name   string
		as     string
		method string
		path   string
		code   int
	}{
		{"no token", "", http.MethodGet, "/api/beats/submissions", http.StatusUnauthorized},
		{"member cannot upload", "member", http.MethodPost, "/api/beats/submissions", http.StatusForbidden},
		{"staff cannot decide", "staff", http.MethodPost, "/api/packs/submissions/1/approve", http.StatusForbidden},
		{"admin is not staff", "admin", http.MethodPost, "/api/beats/submissions/1/submit", http.StatusForbidden},
		{"supplier has no library", "supplier", http.MethodGet, "/api/beats/likes", http.StatusForbidden},
		{"member cannot edit taxonomy", "member", http.MethodPost, "/api/beats/moods", http.StatusForbidden},
		{"plans are admin only", "staff", http.MethodGet, "/api/plans/custom", http.StatusForbidden},
		{"requests are admin only", "supplier", http.MethodGet, "/api/suppliers/requests", http.StatusForbidden},
		{"bad id", "admin", http.MethodGet, "/api/beats/submissions/abc", http.StatusBadRequest},
		{"members are admin only", "staff", http.MethodGet, "/api/members", http.StatusForbidden},
		{"staff cannot remove staff", "staff", http.MethodDelete, "/api/staff/staff", http.StatusForbidden},
		{"supplier details are admin only", "member", http.MethodGet, "/api/suppliers/details", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.json(tt.as, tt.method, tt.path, nil)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestCreateRejectsMismatchedMeta(t *testing.T) {
	s := newServer(t)

	body, ct := beatForm(t, "Broken", 2, 1)
	w := s.do("supplier", http.MethodPost, "/api/beats/submissions", body, ct)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "expected 2 audio_files_meta entries, got 1", decode[map[string]string](t, w)["detail"])
}

func TestBeatLifecycleOverHTTP(t *testing.T) {
	s := newServer(t)

	body, ct := beatForm(t, "Midnight", 1, 1)
	w := s.do("supplier", http.MethodPost, "/api/beats/submissions", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}](t, w)
	assert.Equal(t, "Uploaded", created.Status)

	var sub model.Submission
	require.NoError(t, s.d.DB.First(&sub, created.ID).Error)
	assert.Equal(t, "staff", *sub.ApprovalPersonID)

	var item model.ContentItem
	require.NoError(t, s.d.DB.First(&item, sub.ContentID).Error)
	assert.InDelta(t, 249.99, item.ExclusivePrice, 0.001)

	var fileIDs []uint
	require.NoError(t, s.d.DB.
		Table("content_audio_files").
		Where("content_item_id = ?", sub.ContentID).
		Order("audio_file_id ASC").
		Pluck("audio_file_id", &fileIDs).
		Error)
	require.Len(t, fileIDs, 1)
	fileID := fileIDs[0]

	// the same submission is not reachable through the pack routes
	w = s.json("admin", http.MethodGet, "/api/packs/submissions/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	base := "/api/beats/submissions/" + itoa(created.ID)

	w = s.json("staff", http.MethodPost, base+"/files/"+itoa(fileID)+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// a finished file cannot be approved again
	w = s.json("staff", http.MethodPost, base+"/files/"+itoa(fileID)+"/approve", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.json("staff", http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.json("admin", http.MethodGet, "/api/beats/submissions/submitted", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]any](t, w)["results"], 1)

	w = s.json("admin", http.MethodPost, base+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.json("member", http.MethodGet, "/api/beats/discover", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]any](t, w)["results"], 1)

	w = s.json("member", http.MethodGet, "/api/beats/approved?page=1&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[service.Page[service.SubmissionView]](t, w)
	assert.EqualValues(t, 1, page.Count)

	ref := map[string]any{"beat_id": sub.ContentID, "audio_file_id": fileID}

	w = s.json("member", http.MethodPost, "/api/beats/likes", ref)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.json("member", http.MethodGet, "/api/beats/likes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]any](t, w)["results"], 1)

	w = s.json("member", http.MethodDelete, "/api/beats/likes", ref)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// leaving out audio_file_id downloads the whole beat
	w = s.json("member", http.MethodPost, "/api/beats/downloads", map[string]any{"beat_id": sub.ContentID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	dl := decode[service.DownloadResult](t, w)
	require.NotEmpty(t, dl.Files)
	assert.True(t, strings.HasPrefix(dl.Files[0].URL, "https://cdn.test/"))

	w = s.json("member", http.MethodPost, "/api/beats/collections", map[string]string{"name": "Late", "description": "night"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	col := decode[model.Collection](t, w)

	add := map[string]any{"collection_name": "Late", "beat_id": sub.ContentID, "audio_file_id": fileID}
	w = s.json("member", http.MethodPost, "/api/beats/collections/"+itoa(col.ID)+"/files", add)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.json("member", http.MethodGet, "/api/beats/collections/files", nil)
	require.Equal(t, http.StatusOK, w.Code)
	groups := decode[map[string][]service.CollectionGroup](t, w)["results"]
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Files, 1)

	w = s.json("member", http.MethodDelete, "/api/beats/collections/"+itoa(col.ID)+"/files", add)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTaxonomyOverHTTP(t *testing.T) {
	s := newServer(t)

	w := s.json("admin", http.MethodPost, "/api/packs/moods", map[string]any{"name": "Dreamy"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.json("admin", http.MethodPost, "/api/packs/moods", map[string]any{"name": "Dreamy"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.json("admin", http.MethodPost, "/api/packs/moods", map[string]any{"name": "Hidden", "is_active": false})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.json("supplier", http.MethodGet, "/api/packs/dropdowns", nil)
	require.Equal(t, http.StatusOK, w.Code)

	drop := decode[service.Dropdowns](t, w)
	names := make([]string, 0, len(drop.Moods))
	for _, m := range drop.Moods {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"Chill", "Dark", "Dreamy", "Energetic"}, names)

	// beats keep their own moods
	w = s.json("member", http.MethodGet, "/api/beats/moods", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Mood](t, w), 3)
}

func TestPlansOverHTTP(t *testing.T) {
	s := newServer(t)

	in := map[string]any{
		"name":      "Starter",
		"plan_type": "Custom",
		"details": []map[string]any{
			{"pricing": 10, "points": 100, "timeline": "Monthly", "duration": 30},
		},
	}

	w := s.json("admin", http.MethodPost, "/api/plans/custom", in)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[model.Plan](t, w)

	w = s.json("admin", http.MethodGet, "/api/plans/custom", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Plan](t, w), 1)

	w = s.json("admin", http.MethodDelete, "/api/plans/custom", map[string]any{"id": p.ID, "name": "Wrong"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.json("admin", http.MethodDelete, "/api/plans/custom", map[string]any{"id": p.ID, "name": "Starter"})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLoginCookieAuthenticates(t *testing.T) {
	s := newServer(t)

	hash, err := s.d.Argon.Hash("correct horse")
	require.NoError(t, err)
	require.NoError(t, s.d.DB.Model(&model.User{}).Where("id = ?", "member").Update("password_hash", hash).Error)

	w := s.json("", http.MethodPost, "/api/auth/login", map[string]string{"email": "member@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.json("", http.MethodPost, "/api/auth/login", map[string]string{"email": "Member@Example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var auth *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "auth_token" {
			auth = c
		}
	}
	require.NotNil(t, auth)
	assert.True(t, auth.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.AddCookie(auth)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "member", decode[model.User](t, w).ID)
}

func TestUserAdminOverHTTP(t *testing.T) {
	s := newServer(t)

	in := map[string]string{
		"username":         "listener",
		"email":            "listener@example.com",
		"confirm_email":    "listener@example.com",
		"country":          "NL",
		"city_or_state":    "Utrecht",
		"password":         "correct horse",
		"confirm_password": "correct horse",
	}

	w := s.json("admin", http.MethodPost, "/api/members", in)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.User](t, w)
	assert.True(t, created.Verified)

	w = s.json("admin", http.MethodPost, "/api/members", in)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.json("admin", http.MethodGet, "/api/members", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct {
		Results []model.User `json:"results"`
	}](t, w).Results, 2)

	w = s.json("admin", http.MethodGet, "/api/members/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	fetched := decode[model.User](t, w)
	require.NotNil(t, fetched.Member)
	assert.Equal(t, "Utrecht", fetched.Member.City)

	// staff ids are not members
	w = s.json("admin", http.MethodGet, "/api/members/staff", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.json("admin", http.MethodDelete, "/api/members/member", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// the deleted account's token stops working
	w = s.json("member", http.MethodGet, "/api/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.json("admin", http.MethodDelete, "/api/members/member", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.json("admin", http.MethodGet, "/api/staff/staff", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff", decode[model.User](t, w).Username)

	w = s.json("admin", http.MethodDelete, "/api/staff/staff", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.json("admin", http.MethodGet, "/api/staff/staff", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.json("admin", http.MethodGet, "/api/suppliers/details?email=ghost@example.com&username=ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
