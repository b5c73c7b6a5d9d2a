package mailintake

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
	pending      []models.PendingMailItem
	saved        []*models.Document
	failSaveFor  map[string]bool
	marked       map[string]string
	inserted     []models.PendingMailItem
	rules        []models.ClassificationRule
	listedStatus string
}

func newFakeStore(items ...models.PendingMailItem) *fakeStore {
	return &fakeStore{
		pending:     items,
		failSaveFor: make(map[string]bool),
		marked:      make(map[string]string),
	}
}

func (f *fakeStore) InsertMailItems(ctx context.Context, items []models.PendingMailItem) error {
	f.inserted = append(f.inserted, items...)
	return nil
}

func (f *fakeStore) ListMailItems(ctx context.Context, ownerID, status string) ([]models.PendingMailItem, error) {
	f.listedStatus = status
	return f.pending, nil
}

func (f *fakeStore) ListPendingByIDs(ctx context.Context, ownerID string, ids []string) ([]models.PendingMailItem, error) {
	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}
	var out []models.PendingMailItem
	for _, item := range f.pending {
		if requested[item.ID] && item.IsPending() {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkMailItems(ctx context.Context, ownerID string, ids []string, status string) (int, error) {
	for _, id := range ids {
		f.marked[id] = status
	}
	return len(ids), nil
}

func (f *fakeStore) SaveDocument(ctx context.Context, doc *models.Document) error {
	if f.failSaveFor[doc.VendorName] {
		return assert.AnError
	}
	f.saved = append(f.saved, doc)
	return nil
}

func (f *fakeStore) ListRules(ctx context.Context, ownerID string) ([]models.ClassificationRule, error) {
	return f.rules, nil
}

func (f *fakeStore) TypeNames(ctx context.Context, ownerID string) ([]string, error) {
	return models.DefaultTypeNames, nil
}

func (f *fakeStore) SubfolderOverrides(ctx context.Context, ownerID string) (map[string]string, error) {
	return nil, nil
}

type fakeStorage struct {
	failMove bool
	moves    map[string]string
	uploads  map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{moves: make(map[string]string), uploads: make(map[string][]byte)}
}

func (f *fakeStorage) CreateFolderIfMissing(ctx context.Context, path string) error { return nil }

func (f *fakeStorage) Upload(ctx context.Context, path string, data []byte) (string, error) {
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
	calls    int
}

func (f *fakeOCR) Infer(ctx context.Context, data []byte, mimeType string, candidateTypes []string) (string, error) {
	f.calls++
	return f.response, f.err
}

func strPtr(s string) *string { return &s }

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
	}
}

func newTestService(st *fakeStore, stor *fakeStorage, ocrClient *fakeOCR) *Service {
	var svc *Service
	if ocrClient != nil {
		svc = NewService(st, stor, ocrClient, pathbuilder.Builder{Root: "documents"}, logging.NopLogger{})
	} else {
		svc = NewService(st, stor, nil, pathbuilder.Builder{Root: "documents"}, logging.NopLogger{})
	}
	svc.SetClock(fixedClock())
	return svc
}

func pendingItem(id string) models.PendingMailItem {
	return models.PendingMailItem{
		ID:       id,
		OwnerID:  "owner-1",
		Filename: id + ".pdf",
		Sender:   "vendor@example.com",
		TempPath: "mail-intake/" + id + ".pdf",
		Status:   models.MailStatusPending,
	}
}

func TestApproveUsesStoredAIType(t *testing.T) {
	item := pendingItem("m1")
	item.AIType = strPtr(models.TypeReceipt)
	st := newFakeStore(item)
	stor := newFakeStorage()
	svc := newTestService(st, stor, nil)

	result, err := svc.Approve(context.Background(), "owner-1", []string{"m1"}, ApproveOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Approved)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, st.saved, 1)
	assert.Equal(t, models.TypeReceipt, st.saved[0].Type)
	assert.Equal(t, models.MailStatusApproved, st.marked["m1"])
}

func TestApproveDefaultsToInvoice(t *testing.T) {
	st := newFakeStore(pendingItem("m1"))
	svc := newTestService(st, newFakeStorage(), nil)

	_, err := svc.Approve(context.Background(), "owner-1", []string{"m1"}, ApproveOptions{})
	require.NoError(t, err)

	require.Len(t, st.saved, 1)
	assert.Equal(t, models.TypeInvoice, st.saved[0].Type)
}

func TestApproveOverrideBeatsEverything(t *testing.T) {
	item := pendingItem("m1")
	item.AIType = strPtr(models.TypeReceipt)
	st := newFakeStore(item)
	ocrClient := &fakeOCR{response: `{"type":"見積書"}`}
	svc := newTestService(st, newFakeStorage(), ocrClient)

	_, err := svc.Approve(context.Background(), "owner-1", []string{"m1"}, ApproveOptions{
		OverrideType: models.TypeContract,
		Reanalysis:   &Reanalysis{Data: []byte("pdf"), MIMEType: "application/pdf"},
	})
	require.NoError(t, err)

	require.Len(t, st.saved, 1)
	assert.Equal(t, models.TypeContract, st.saved[0].Type)
}

func TestApproveReanalysisBeatsStoredGuess(t *testing.T) {
	item := pendingItem("m1")
	item.AIType = strPtr(models.TypeReceipt)
	st := newFakeStore(item)
	ocrClient := &fakeOCR{response: `{"vendor_name":"新取引先","type":"見積書","amount":900}`}
	svc := newTestService(st, newFakeStorage(), ocrClient)

	_, err := svc.Approve(context.Background(), "owner-1", []string{"m1"}, ApproveOptions{
		Reanalysis: &Reanalysis{Data: []byte("pdf"), MIMEType: "application/pdf"},
	})
	require.NoError(t, err)

	require.Len(t, st.saved, 1)
	assert.Equal(t, models.TypeQuote, st.saved[0].Type)
	assert.Equal(t, "新取引先", st.saved[0].VendorName)
	require.NotNil(t, st.saved[0].Amount)
	assert.Equal(t, 1, ocrClient.calls)
}

func TestApproveReanalysisFailureFallsBack(t *testing.T) {
	item := pendingItem("m1")
	item.AIType = strPtr(models.TypeReceipt)
	st := newFakeStore(item)
	ocrClient := &fakeOCR{err: assert.AnError}
	svc := newTestService(st, newFakeStorage(), ocrClient)

	_, err := svc.Approve(context.Background(), "owner-1", []string{"m1"}, ApproveOptions{
		Reanalysis: &Reanalysis{Data: []byte("pdf"), MIMEType: "application/pdf"},
	})
	require.NoError(t, err)

	require.Len(t, st.saved, 1)
	assert.Equal(t, models.TypeReceipt, st.saved[0].Type)
}

func TestApproveMovesFileToUnprocessedPath(t *testing.T) {
	item := pendingItem("m1")
	item.AIType = strPtr(models.TypeReceipt)
	st := newFakeStore(item)
	stor := newFakeStorage()
	svc := newTestService(st, stor, nil)

	_, err := svc.Approve(context.Background(), "owner-1", []string{"m1"}, ApproveOptions{})
	require.NoError(t, err)

	want := "documents/領収書/2024年/03月/未処理/m1.pdf"
	assert.Equal(t, want, stor.moves["mail-intake/m1.pdf"])
	require.Len(t, st.saved, 1)
	require.NotNil(t, st.saved[0].StoragePath)
	assert.Equal(t, want, *st.saved[0].StoragePath)
}

func TestApproveMoveFailureKeepsTempPath(t *testing.T) {
	st := newFakeStore(pendingItem("m1"))
	stor := newFakeStorage()
	stor.failMove = true
	svc := newTestService(st, stor, nil)

	result, err := svc.Approve(context.Background(), "owner-1", []string{"m1"}, ApproveOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Approved)
	require.Len(t, st.saved, 1)
	require.NotNil(t, st.saved[0].StoragePath)
	assert.Equal(t, "mail-intake/m1.pdf", *st.saved[0].StoragePath)
}

func TestApproveInsertFailureLeavesItemPending(t *testing.T) {
	good := pendingItem("m1")
	bad := pendingItem("m2")
	bad.Sender = "broken@example.com"
	st := newFakeStore(good, bad)
	st.failSaveFor["broken@example.com"] = true
	svc := newTestService(st, newFakeStorage(), nil)

	result, err := svc.Approve(context.Background(), "owner-1", []string{"m1", "m2"}, ApproveOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Requested)
	assert.Equal(t, 1, result.Approved)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, models.MailStatusApproved, st.marked["m1"])
	_, decided := st.marked["m2"]
	assert.False(t, decided, "failed item must stay pending")
}

func TestApproveSkipsAlreadyDecidedItems(t *testing.T) {
	decided := pendingItem("m1")
	decided.Status = models.MailStatusRejected
	st := newFakeStore(decided)
	svc := newTestService(st, newFakeStorage(), nil)

	result, err := svc.Approve(context.Background(), "owner-1", []string{"m1"}, ApproveOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Requested)
	assert.Equal(t, 0, result.Approved)
	assert.Empty(t, st.saved)
}

func TestApproveFallbackVendorAndDescription(t *testing.T) {
	st := newFakeStore(pendingItem("m1"))
	svc := newTestService(st, newFakeStorage(), nil)

	_, err := svc.Approve(context.Background(), "owner-1", []string{"m1"}, ApproveOptions{})
	require.NoError(t, err)

	require.Len(t, st.saved, 1)
	doc := st.saved[0]
	assert.Equal(t, "vendor@example.com", doc.VendorName)
	assert.Equal(t, "メール添付ファイル: m1.pdf", doc.Description)
	assert.Equal(t, models.InputMethodEmail, doc.InputMethod)
	assert.Equal(t, models.StatusUnprocessed, doc.Status)
}

func TestReject(t *testing.T) {
	st := newFakeStore(pendingItem("m1"), pendingItem("m2"))
	svc := newTestService(st, newFakeStorage(), nil)

	result, err := svc.Reject(context.Background(), "owner-1", []string{"m1", "m2"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Rejected)
	assert.Equal(t, models.MailStatusRejected, st.marked["m1"])
	assert.Equal(t, models.MailStatusRejected, st.marked["m2"])
	assert.Empty(t, st.saved)
}

func TestStage(t *testing.T) {
	st := newFakeStore()
	st.rules = []models.ClassificationRule{
		{Keyword: "薬品", TargetType: models.TypeReceipt, Priority: 5, Active: true},
	}
	stor := newFakeStorage()
	ocrClient := &fakeOCR{response: `{"vendor_name":"山田薬品","type":"請求書","confidence":0.8}`}
	svc := newTestService(st, stor, ocrClient)

	items, err := svc.Stage(context.Background(), "owner-1", []StagedFile{
		{Filename: "march.pdf", Sender: "yamada@example.com", Data: []byte("pdf"), MIMEType: "application/pdf"},
	})
	require.NoError(t, err)

	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, "march.pdf", item.Filename)
	assert.Equal(t, "yamada@example.com", item.Sender)
	assert.Equal(t, models.MailStatusPending, item.Status)
	assert.Contains(t, item.TempPath, TempPrefix+"/")
	assert.Contains(t, item.TempPath, "_march.pdf")
	// The keyword rule overrode the model's suggestion.
	require.NotNil(t, item.AIType)
	assert.Equal(t, models.TypeReceipt, *item.AIType)
	require.NotNil(t, item.AIConfidence)
	assert.InDelta(t, 0.8, *item.AIConfidence, 1e-9)

	require.Len(t, st.inserted, 1)
	_, uploaded := stor.uploads[item.TempPath]
	assert.True(t, uploaded)
}

func TestStagePreAnalysisFailureStillStages(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, newFakeStorage(), &fakeOCR{err: assert.AnError})

	items, err := svc.Stage(context.Background(), "owner-1", []StagedFile{
		{Filename: "a.pdf", Sender: "s@example.com", Data: []byte("pdf"), MIMEType: "application/pdf"},
	})
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Nil(t, items[0].AIType)
	require.Len(t, st.inserted, 1)
}

func TestSplitSenderPrefix(t *testing.T) {
	sender, name := splitSenderPrefix("yamada@example.com__invoice.pdf")
	assert.Equal(t, "yamada@example.com", sender)
	assert.Equal(t, "invoice.pdf", name)

	sender, name = splitSenderPrefix("invoice.pdf")
	assert.Equal(t, "", sender)
	assert.Equal(t, "invoice.pdf", name)
}
