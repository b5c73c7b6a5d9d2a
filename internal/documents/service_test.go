package documents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/apperrors"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/logging"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/pathbuilder"
)

type fakeStore struct {
	docs       map[string]*models.Document
	saved      []*models.Document
	updated    []*models.Document
	rules      []models.ClassificationRule
	subfolders map[string]string
	failSave   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]*models.Document)}
}

func (f *fakeStore) SaveDocument(ctx context.Context, doc *models.Document) error {
	if f.failSave {
		return assert.AnError
	}
	f.saved = append(f.saved, doc)
	return nil
}

func (f *fakeStore) GetDocument(ctx context.Context, ownerID, id string) (*models.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Entity: "document", ID: id}
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeStore) UpdateDocument(ctx context.Context, doc *models.Document) error {
	f.updated = append(f.updated, doc)
	return nil
}

func (f *fakeStore) DeleteDocument(ctx context.Context, ownerID, id string) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeStore) ListDocuments(ctx context.Context, ownerID string) ([]models.Document, error) {
	var out []models.Document
	for _, doc := range f.docs {
		out = append(out, *doc)
	}
	return out, nil
}

func (f *fakeStore) ListRules(ctx context.Context, ownerID string) ([]models.ClassificationRule, error) {
	return f.rules, nil
}

func (f *fakeStore) TypeNames(ctx context.Context, ownerID string) ([]string, error) {
	return models.DefaultTypeNames, nil
}

func (f *fakeStore) SubfolderOverrides(ctx context.Context, ownerID string) (map[string]string, error) {
	return f.subfolders, nil
}

type fakeStorage struct {
	failMove   bool
	failUpload bool
	moves      map[string]string
	uploads    map[string][]byte
	folders    []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{moves: make(map[string]string), uploads: make(map[string][]byte)}
}

func (f *fakeStorage) CreateFolderIfMissing(ctx context.Context, path string) error {
	f.folders = append(f.folders, path)
	return nil
}

func (f *fakeStorage) Upload(ctx context.Context, path string, data []byte) (string, error) {
	if f.failUpload {
		return "", &apperrors.StorageError{Op: "upload", Path: path}
	}
	f.uploads[path] = data
	return path, nil
}

func (f *fakeStorage) Copy(ctx context.Context, from, to string) (string, error) { return to, nil }

func (f *fakeStorage) Move(ctx context.Context, from, to string) (string, error) {
	if f.failMove {
		return "", &apperrors.StorageError{Op: "move", Path: from}
	}
	f.moves[from] = to
	return to, nil
}

func (f *fakeStorage) Exists(ctx context.Context, path string) (bool, error) { return false, nil }

type fakeOCR struct {
	response string
	err      error
}

func (f *fakeOCR) Infer(ctx context.Context, data []byte, mimeType string, candidateTypes []string) (string, error) {
	return f.response, f.err
}

func strPtr(s string) *string { return &s }

func newTestService(st *fakeStore, stor *fakeStorage, ocrClient *fakeOCR) *Service {
	var svc *Service
	if ocrClient != nil {
		svc = NewService(st, stor, ocrClient, pathbuilder.Builder{Root: "documents"}, logging.NopLogger{})
	} else {
		svc = NewService(st, stor, nil, pathbuilder.Builder{Root: "documents"}, logging.NopLogger{})
	}
	svc.SetClock(func() time.Time {
		return time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
	})
	return svc
}

func TestRegisterFullPipeline(t *testing.T) {
	st := newFakeStore()
	stor := newFakeStorage()
	ocrClient := &fakeOCR{response: "```json\n" +
		`{"vendor_name":"山田商事","amount":12800,"issue_date":"2024-03-01","type":"請求書","confidence":0.9}` +
		"\n```"}
	svc := newTestService(st, stor, ocrClient)

	doc, err := svc.Register(context.Background(), "owner-1", RegisterInput{
		FileName:    "invoice.pdf",
		Data:        []byte("pdf"),
		MIMEType:    "application/pdf",
		InputMethod: models.InputMethodUpload,
	})
	require.NoError(t, err)

	assert.Equal(t, models.TypeInvoice, doc.Type)
	assert.Equal(t, "山田商事", doc.VendorName)
	require.NotNil(t, doc.Amount)
	require.NotNil(t, doc.IssueDate)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), *doc.IssueDate)
	assert.Equal(t, models.StatusUnprocessed, doc.Status)
	require.NotNil(t, doc.StoragePath)
	assert.Equal(t, "documents/請求書/2024年/03月/未処理/invoice.pdf", *doc.StoragePath)
	require.NotNil(t, doc.OCRRaw)
	require.Len(t, st.saved, 1)
}

func TestRegisterRuleOverridesAIType(t *testing.T) {
	st := newFakeStore()
	st.rules = []models.ClassificationRule{
		{Keyword: "薬品", TargetType: models.TypeReceipt, Priority: 5, Active: true},
	}
	ocrClient := &fakeOCR{response: `{"vendor_name":"山田薬品","type":"請求書"}`}
	svc := newTestService(st, newFakeStorage(), ocrClient)

	doc, err := svc.Register(context.Background(), "owner-1", RegisterInput{
		FileName:    "a.pdf",
		Data:        []byte("pdf"),
		InputMethod: models.InputMethodCamera,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TypeReceipt, doc.Type)
}

func TestRegisterOCRFailureDegradesToFallback(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, newFakeStorage(), &fakeOCR{err: assert.AnError})

	doc, err := svc.Register(context.Background(), "owner-1", RegisterInput{
		FileName:    "a.pdf",
		Data:        []byte("pdf"),
		InputMethod: models.InputMethodUpload,
	})
	require.NoError(t, err)

	assert.Equal(t, models.TypeOther, doc.Type)
	assert.Equal(t, "", doc.VendorName)
	assert.Nil(t, doc.OCRRaw)
}

func TestRegisterUploadFailureSavesWithoutPath(t *testing.T) {
	st := newFakeStore()
	stor := newFakeStorage()
	stor.failUpload = true
	svc := newTestService(st, stor, nil)

	doc, err := svc.Register(context.Background(), "owner-1", RegisterInput{
		FileName:    "a.pdf",
		Data:        []byte("pdf"),
		InputMethod: models.InputMethodUpload,
	})
	require.NoError(t, err)
	assert.Nil(t, doc.StoragePath)
	require.Len(t, st.saved, 1)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeStorage(), nil)

	_, err := svc.Register(context.Background(), "owner-1", RegisterInput{
		InputMethod: models.InputMethodUpload,
	})
	var validationErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.Register(context.Background(), "owner-1", RegisterInput{
		FileName:    "a.pdf",
		InputMethod: "fax",
	})
	assert.ErrorAs(t, err, &validationErr)
}

func TestRegisterSubfolderOverride(t *testing.T) {
	st := newFakeStore()
	st.subfolders = map[string]string{models.TypeOther: "雑書類"}
	svc := newTestService(st, newFakeStorage(), nil)

	doc, err := svc.Register(context.Background(), "owner-1", RegisterInput{
		FileName:    "a.pdf",
		Data:        []byte("pdf"),
		InputMethod: models.InputMethodUpload,
	})
	require.NoError(t, err)
	require.NotNil(t, doc.StoragePath)
	assert.Equal(t, "documents/雑書類/2024年/03月/未処理/a.pdf", *doc.StoragePath)
}

func existingDoc() *models.Document {
	issue := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	return &models.Document{
		ID:          "d1",
		OwnerID:     "owner-1",
		Type:        models.TypeInvoice,
		VendorName:  "山田商事",
		IssueDate:   &issue,
		InputMethod: models.InputMethodUpload,
		Status:      models.StatusUnprocessed,
		StoragePath: strPtr("documents/請求書/2024年/03月/未処理/invoice.pdf"),
		CreatedAt:   time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestUpdateStatusChangeRelocates(t *testing.T) {
	st := newFakeStore()
	st.docs["d1"] = existingDoc()
	stor := newFakeStorage()
	svc := newTestService(st, stor, nil)

	doc, err := svc.Update(context.Background(), "owner-1", "d1", UpdateChanges{
		Status: strPtr(models.StatusProcessed),
	})
	require.NoError(t, err)

	want := "documents/請求書/2024年/03月/処理済み/invoice.pdf"
	assert.Equal(t, models.StatusProcessed, doc.Status)
	require.NotNil(t, doc.StoragePath)
	assert.Equal(t, want, *doc.StoragePath)
	assert.Equal(t, want, stor.moves["documents/請求書/2024年/03月/未処理/invoice.pdf"])
	require.Len(t, st.updated, 1)
}

func TestUpdateMoveFailureKeepsOldPathButUpdatesStatus(t *testing.T) {
	st := newFakeStore()
	st.docs["d1"] = existingDoc()
	stor := newFakeStorage()
	stor.failMove = true
	svc := newTestService(st, stor, nil)

	doc, err := svc.Update(context.Background(), "owner-1", "d1", UpdateChanges{
		Status: strPtr(models.StatusProcessed),
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusProcessed, doc.Status)
	require.NotNil(t, doc.StoragePath)
	assert.Equal(t, "documents/請求書/2024年/03月/未処理/invoice.pdf", *doc.StoragePath)
	require.Len(t, st.updated, 1)
	assert.Equal(t, models.StatusProcessed, st.updated[0].Status)
}

// A type-only edit does not relocate the stored file; the path keeps the
// old type prefix. Known quirk, kept on purpose.
func TestUpdateTypeOnlyChangeDoesNotRelocate(t *testing.T) {
	st := newFakeStore()
	st.docs["d1"] = existingDoc()
	stor := newFakeStorage()
	svc := newTestService(st, stor, nil)

	doc, err := svc.Update(context.Background(), "owner-1", "d1", UpdateChanges{
		Type: strPtr(models.TypeReceipt),
	})
	require.NoError(t, err)

	assert.Equal(t, models.TypeReceipt, doc.Type)
	require.NotNil(t, doc.StoragePath)
	assert.Equal(t, "documents/請求書/2024年/03月/未処理/invoice.pdf", *doc.StoragePath)
	assert.Empty(t, stor.moves)
}

func TestUpdateStatusAndTypeTogetherRelocatesUnderNewType(t *testing.T) {
	st := newFakeStore()
	st.docs["d1"] = existingDoc()
	stor := newFakeStorage()
	svc := newTestService(st, stor, nil)

	doc, err := svc.Update(context.Background(), "owner-1", "d1", UpdateChanges{
		Status: strPtr(models.StatusProcessed),
		Type:   strPtr(models.TypeReceipt),
	})
	require.NoError(t, err)

	require.NotNil(t, doc.StoragePath)
	assert.Equal(t, "documents/領収書/2024年/03月/処理済み/invoice.pdf", *doc.StoragePath)
}

func TestUpdateUnstoredDocumentSkipsRelocation(t *testing.T) {
	doc := existingDoc()
	doc.StoragePath = nil
	st := newFakeStore()
	st.docs["d1"] = doc
	stor := newFakeStorage()
	svc := newTestService(st, stor, nil)

	updated, err := svc.Update(context.Background(), "owner-1", "d1", UpdateChanges{
		Status: strPtr(models.StatusProcessed),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.StoragePath)
	assert.Empty(t, stor.moves)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	st := newFakeStore()
	st.docs["d1"] = existingDoc()
	svc := newTestService(st, newFakeStorage(), nil)

	_, err := svc.Update(context.Background(), "owner-1", "d1", UpdateChanges{
		Status: strPtr("完了"),
	})
	var validationErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestUpdateMissingDocument(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeStorage(), nil)

	_, err := svc.Update(context.Background(), "owner-1", "nope", UpdateChanges{})
	var notFoundErr *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestUpdateReferenceDateFallsBackToCreatedAt(t *testing.T) {
	doc := existingDoc()
	doc.IssueDate = nil
	doc.StoragePath = strPtr("documents/請求書/2024年/03月/未処理/invoice.pdf")
	st := newFakeStore()
	st.docs["d1"] = doc
	stor := newFakeStorage()
	svc := newTestService(st, stor, nil)

	updated, err := svc.Update(context.Background(), "owner-1", "d1", UpdateChanges{
		Status: strPtr(models.StatusProcessed),
	})
	require.NoError(t, err)

	// CreatedAt is 2024-03-02, so the recomputed path keeps 03月.
	require.NotNil(t, updated.StoragePath)
	assert.Equal(t, "documents/請求書/2024年/03月/処理済み/invoice.pdf", *updated.StoragePath)
}

func TestDeleteRemovesRowOnly(t *testing.T) {
	st := newFakeStore()
	st.docs["d1"] = existingDoc()
	stor := newFakeStorage()
	svc := newTestService(st, stor, nil)

	require.NoError(t, svc.Delete(context.Background(), "owner-1", "d1"))
	_, ok := st.docs["d1"]
	assert.False(t, ok)
	assert.Empty(t, stor.moves)
}
