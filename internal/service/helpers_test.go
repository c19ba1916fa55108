package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"

	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/internal/testdb"
	"soulfamily/sounds-api/pkg/security"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	mp3Bytes = append([]byte("ID3\x03\x00\x00\x00\x00\x00\x0f"), bytes.Repeat([]byte{0}, 64)...)
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)
	pdfBytes = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failPut bool
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	if m.failPut {
		return errors.New("bucket unavailable")
	}

	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	return nil
}

func (m *memStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.objects, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

func (m *memStore) PresignGet(_ context.Context, key, _ string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (m *memStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type sentMail struct {
	To      string
	Subject string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (r *recordingNotifier) Send(to, subject, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMail{To: to, Subject: subject})
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }

func upload(name string, data []byte) Upload {
	return Upload{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadSeekCloser, error) {
			return readSeekNopCloser{bytes.NewReader(data)}, nil
		},
	}
}

// env wires every service against one in-memory database and bucket
type env struct {
	db       *gorm.DB
	store    *memStore
	mail     *recordingNotifier
	uploader *Uploader

	submissions *SubmissionService
	review      *ReviewService
	library     *LibraryService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := testdb.New(t)
	store := newMemStore()
	mail := &recordingNotifier{}
	uploader := NewUploader(store, 10<<20)

	seedTestTaxonomy(t, db)

	return &env{
		db:          db,
		store:       store,
		mail:        mail,
		uploader:    uploader,
		submissions: NewSubmissionService(db, uploader, 1000),
		review:      NewReviewService(db, mail),
		library:     NewLibraryService(db, uploader),
	}
}

func seedTestTaxonomy(t *testing.T, db *gorm.DB) {
	t.Helper()

	tax := SeedTaxonomy{
		Genres: []SeedNamed{
			{Name: "Hip Hop", Children: []string{"Trap", "Boom Bap"}},
			{Name: "House", Children: []string{"Deep House"}},
		},
		Instruments: []SeedNamed{
			{Name: "Keys", Children: []string{"Piano", "Rhodes"}},
			{Name: "Drums", Children: []string{"Kick"}},
		},
		Moods:   []string{"Dark", "Chill", "Energetic", "Happy"},
		Plugins: []SeedPlugin{{Name: "Serum", Extension: ".fxp"}},
	}

	f := &SeedFile{Taxonomy: map[model.Kind]SeedTaxonomy{
		model.KindBeat: tax,
		model.KindPack: tax,
	}}

	require.NoError(t, Seed(context.Background(), db, security.NewArgon(), f))
}

func createUser(t *testing.T, db *gorm.DB, id string, role model.Role) security.Principal {
	t.Helper()

	u := model.User{
		ID:       id,
		Email:    id + "@example.com",
		Username: id,
		Name:     id,
		Role:     role,
		Verified: true,
	}
	require.NoError(t, db.Create(&u).Error)

	return security.Principal{UserID: id, Role: role}
}

func fileInput(name string) FileInput {
	return FileInput{
		Upload:        upload(name+".mp3", mp3Bytes),
		Name:          name,
		Genre:         "Hip Hop",
		SubGenre:      "Trap",
		Instrument:    "Keys",
		SubInstrument: "Piano",
		Mood:          "Dark",
		BPMType:       "Range",
		BPMStart:      "80",
		BPMEnd:        "90",
		Key:           "Eb",
		KeyScale:      "Minor",
		KeyType:       "Flat",
		Type:          "mp3",
		Source:        "Electronic",
	}
}

func beatInput(title string) CreateSubmission {
	return CreateSubmission{
		Type:        "Beat",
		Title:       title,
		Description: "late night keys",
		Genre:       "Hip Hop",
		SubGenre:    "Trap",
		Moods:       []string{"Dark", "Chill", "Energetic"},
		Artwork:     upload("cover.png", pngBytes),
		Demo:        fileInput("demo"),
		Files:       []FileInput{fileInput("full")},
	}
}

// submitBeat creates a beat and returns it with the id of its first
// non-demo audio file
func submitBeat(t *testing.T, e *env, supplier security.Principal, title string) (*model.Submission, uint) {
	t.Helper()

	sub, err := e.submissions.Create(context.Background(), supplier, model.KindBeat, beatInput(title))
	require.NoError(t, err)

	var ids []uint
	require.NoError(t, e.db.
		Table("content_audio_files").
		Where("content_item_id = ?", sub.ContentID).
		Pluck("audio_file_id", &ids).
		Error)
	require.NotEmpty(t, ids)

	return sub, ids[0]
}

// approveBeat runs a submission through the whole workflow
func approveBeat(t *testing.T, e *env, staff, admin security.Principal, sub *model.Submission, fileID uint) {
	t.Helper()
	ctx := context.Background()

	_, err := e.review.ApproveFile(ctx, staff, model.KindBeat, sub.ID, fileID)
	require.NoError(t, err)

	_, err = e.review.SubmitForReview(ctx, staff, model.KindBeat, sub.ID)
	require.NoError(t, err)

	_, err = e.review.Approve(ctx, admin, model.KindBeat, sub.ID)
	require.NoError(t, err)
}

func requireCode(t *testing.T, err error, code int, msg ...string) {
	t.Helper()

	require.Error(t, err)
	require.Equal(t, code, Code(err), fmt.Sprintf("unexpected error: %v", err))
	if len(msg) > 0 {
		require.Equal(t, msg[0], err.Error())
	}
}
