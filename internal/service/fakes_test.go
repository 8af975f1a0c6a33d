// fakes_test.go — in-memory фейки репозиториев и клиентов для unit-тестов.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"caseflow/internal/domain/model"
	"caseflow/internal/repository"
)

// testLogger — slog без вывода, чтобы не засорять прогон тестов.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errDB = errors.New("ошибка БД")

// --- fakeCaseRepo ---

type fakeCaseRepo struct {
	cases       map[int64]*model.Case
	clients     map[int64]*model.Client
	withoutPkg  []int64
	listErr     error
	statuses    map[int64]string
	statusCalls int
}

func newFakeCaseRepo() *fakeCaseRepo {
	return &fakeCaseRepo{
		cases:    map[int64]*model.Case{},
		clients:  map[int64]*model.Client{},
		statuses: map[int64]string{},
	}
}

func (f *fakeCaseRepo) GetByID(_ context.Context, caseID int64) (*model.Case, error) {
	c, ok := f.cases[caseID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeCaseRepo) GetWithClient(_ context.Context, caseID int64) (*model.CaseWithClient, error) {
	c, ok := f.cases[caseID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cl := f.clients[c.ClientID]
	if cl == nil {
		cl = &model.Client{ID: c.ClientID}
	}
	return &model.CaseWithClient{Case: *c, Client: *cl}, nil
}

func (f *fakeCaseRepo) ListWithoutDemandPackage(_ context.Context) ([]int64, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.withoutPkg, nil
}

func (f *fakeCaseRepo) SetDisbursementStatus(_ context.Context, caseID int64, status string) error {
	if _, ok := f.cases[caseID]; !ok {
		return repository.ErrNotFound
	}
	f.statuses[caseID] = status
	f.statusCalls++
	return nil
}

// --- fakeDocRepo ---

type fakeDocRepo struct {
	inputs       map[int64]*repository.DemandInputs
	inputsErr    error
	billed       map[int64]bool
	billedErr    error
	sources      map[int64][]*model.Document
	sourcesErr   error
	created      []*model.Document
	createErr    error
	deleted      []string
	deleteErr    error
	conflictOnce bool
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{
		inputs:  map[int64]*repository.DemandInputs{},
		billed:  map[int64]bool{},
		sources: map[int64][]*model.Document{},
	}
}

func (f *fakeDocRepo) Create(_ context.Context, d *model.Document) error {
	if f.conflictOnce {
		f.conflictOnce = false
		return repository.ErrConflict
	}
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, d)
	return nil
}

func (f *fakeDocRepo) Delete(_ context.Context, docID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, docID)
	return nil
}

func (f *fakeDocRepo) GetByID(_ context.Context, docID string) (*model.Document, error) {
	for _, d := range f.created {
		if d.ID == docID {
			return d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeDocRepo) DemandInputs(_ context.Context, caseID int64) (*repository.DemandInputs, error) {
	if f.inputsErr != nil {
		return nil, f.inputsErr
	}
	in, ok := f.inputs[caseID]
	if !ok {
		return &repository.DemandInputs{}, nil
	}
	return in, nil
}

func (f *fakeDocRepo) AllProvidersBilled(_ context.Context, caseID int64) (bool, error) {
	if f.billedErr != nil {
		return false, f.billedErr
	}
	billed, ok := f.billed[caseID]
	if !ok {
		// Дело без провайдерских документов считается покрытым
		return true, nil
	}
	return billed, nil
}

func (f *fakeDocRepo) ListDemandSources(_ context.Context, caseID int64) ([]*model.Document, error) {
	if f.sourcesErr != nil {
		return nil, f.sourcesErr
	}
	return f.sources[caseID], nil
}

// --- fakeAdjRepo ---

type fakeAdjRepo struct {
	totals   map[int64]decimal.Decimal
	totalErr error
}

func newFakeAdjRepo() *fakeAdjRepo {
	return &fakeAdjRepo{totals: map[int64]decimal.Decimal{}}
}

func (f *fakeAdjRepo) Create(_ context.Context, _ *model.FeeAdjustment) error { return nil }

func (f *fakeAdjRepo) ListByCase(_ context.Context, _ int64) ([]*model.FeeAdjustment, error) {
	return nil, nil
}

func (f *fakeAdjRepo) TotalByCase(_ context.Context, caseID int64) (decimal.Decimal, error) {
	if f.totalErr != nil {
		return decimal.Zero, f.totalErr
	}
	total, ok := f.totals[caseID]
	if !ok {
		return decimal.Zero, nil
	}
	return total, nil
}

// --- fakeStorage ---

type fakeStorage struct {
	files      map[string][]byte
	getErr     error
	uploadErr  error
	uploaded   map[string][]byte
	getCalls   int
	uploadCall int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		files:    map[string][]byte{},
		uploaded: map[string][]byte{},
	}
}

func (f *fakeStorage) GetFileContent(_ context.Context, docID string) ([]byte, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	content, ok := f.files[docID]
	if !ok {
		return nil, errors.New("документ не найден в хранилище")
	}
	return content, nil
}

func (f *fakeStorage) UploadFile(_ context.Context, docID string, content []byte, _ string) error {
	f.uploadCall++
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploaded[docID] = content
	return nil
}

// --- fakeDisbursementStore ---

type fakeDisbursementStore struct {
	markSentErr error
	sentCases   []int64
	sentDocs    []*model.Document
}

func (f *fakeDisbursementStore) MarkSent(_ context.Context, caseID int64, doc *model.Document) error {
	if f.markSentErr != nil {
		return f.markSentErr
	}
	f.sentCases = append(f.sentCases, caseID)
	f.sentDocs = append(f.sentDocs, doc)
	return nil
}

// --- fakeLetters / fakeSigner / fakeEvents ---

type fakeLetters struct {
	pdf      []byte
	err      error
	errTimes int
	calls    int
	payloads []any
}

func (f *fakeLetters) GenerateLetter(_ context.Context, _ string, payload any) ([]byte, error) {
	f.calls++
	f.payloads = append(f.payloads, payload)
	if f.err != nil && (f.errTimes == 0 || f.calls <= f.errTimes) {
		return nil, f.err
	}
	return f.pdf, nil
}

type fakeSigner struct {
	envelopeID string
	err        error
	calls      int
	sentPDFs   [][]byte
	recipients []string
}

func (f *fakeSigner) SendEnvelope(_ context.Context, pdf []byte, recipientEmail, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	f.sentPDFs = append(f.sentPDFs, pdf)
	f.recipients = append(f.recipients, recipientEmail)
	return f.envelopeID, nil
}

type fakeEvents struct {
	events []any
}

func (f *fakeEvents) RecordBestEffort(_ context.Context, event any) {
	f.events = append(f.events, event)
}
