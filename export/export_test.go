package export

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/ncobase/taskrunner/archive"
	"github.com/ncobase/taskrunner/data/source"
	"github.com/ncobase/taskrunner/messaging/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2023, 1, 1, 12, 34, 56, 0, time.UTC)

type fakeTables struct {
	mu     sync.Mutex
	tables []string
	calls  []string
	err    error
}

func (f *fakeTables) Tables(context.Context) ([]string, error) {
	return f.tables, nil
}

func (f *fakeTables) ExportTable(_ context.Context, table string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, table)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "data for " + table, nil
}

type fakeArchiver struct {
	files []archive.File
	err   error
}

func (f *fakeArchiver) build(_ context.Context, files []archive.File) ([]byte, error) {
	f.files = files
	if f.err != nil {
		return nil, f.err
	}
	return []byte("archive-bytes"), nil
}

type fakeUploader struct {
	name string
	data []byte
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, name string, data []byte) (string, error) {
	f.name, f.data = name, data
	if f.err != nil {
		return "", f.err
	}
	return "https://exports.s3.us-east-1.amazonaws.com/" + name, nil
}

type fakeMailer struct {
	msgs []email.Message
	err  error
}

func (f *fakeMailer) SendTemplatedEmail(_ context.Context, msg email.Message) (string, error) {
	f.msgs = append(f.msgs, msg)
	return "id", f.err
}

type fixture struct {
	tables   *fakeTables
	archiver *fakeArchiver
	uploader *fakeUploader
	mailer   *fakeMailer
	exporter *Exporter
}

func newFixture() *fixture {
	f := &fixture{
		tables:   &fakeTables{tables: []string{"tableA", "tableB"}},
		archiver: &fakeArchiver{},
		uploader: &fakeUploader{},
		mailer:   &fakeMailer{},
	}
	f.exporter = &Exporter{
		Tables:   f.tables,
		Archive:  f.archiver.build,
		Uploader: f.uploader,
		Mailer:   f.mailer,
		Clock:    testclock.NewClock(fixedTime),
		Timeouts: Timeouts{Archive: time.Minute, Upload: time.Minute, Email: time.Minute},
	}
	return f
}

func TestExportDatabase(t *testing.T) {
	f := newFixture()

	res, err := f.exporter.ExportDatabase(context.Background(), json.RawMessage(`{"email":"user@example.com"}`))
	require.NoError(t, err)
	assert.False(t, res.Failed())

	assert.Equal(t, []archive.File{
		{Name: "tableA.csv", Data: []byte("data for tableA"), Modified: fixedTime},
		{Name: "tableB.csv", Data: []byte("data for tableB"), Modified: fixedTime},
	}, f.archiver.files)

	assert.Equal(t, "DB_20230101_123456_export.zip", f.uploader.name)
	assert.Equal(t, []byte("archive-bytes"), f.uploader.data)

	link := "https://exports.s3.us-east-1.amazonaws.com/DB_20230101_123456_export.zip"
	encoded, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":null,"result":{"downloadLink":"`+link+`"}}`, string(encoded))

	require.Len(t, f.mailer.msgs, 1)
	msg := f.mailer.msgs[0]
	assert.Equal(t, TemplateExportReady, msg.TemplateID)
	assert.Equal(t, "user@example.com", msg.To)
	assert.Equal(t, link, msg.Props["downloadLink"])
	assert.Equal(t, "DB_20230101_123456_export.zip", msg.Props["fileName"])
}

func TestExportDatabaseInvalidEmail(t *testing.T) {
	f := newFixture()

	res, err := f.exporter.ExportDatabase(context.Background(), json.RawMessage(`{"email":"not-an-email"}`))
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Error, "email")

	assert.Empty(t, f.tables.calls)
	assert.Nil(t, f.archiver.files)
	assert.Empty(t, f.uploader.name)
	assert.Empty(t, f.mailer.msgs)
}

func TestExportDatabaseMalformedPayload(t *testing.T) {
	f := newFixture()

	res, err := f.exporter.ExportDatabase(context.Background(), json.RawMessage(`[1,2]`))
	require.NoError(t, err)
	assert.Equal(t, "Invalid task data", res.Error)
	assert.Empty(t, f.tables.calls)
}

func TestExportDatabaseUploadFailureIsFatal(t *testing.T) {
	f := newFixture()
	boom := errors.New("bucket unavailable")
	f.uploader.err = boom

	_, err := f.exporter.ExportDatabase(context.Background(), json.RawMessage(`{"email":"user@example.com"}`))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.mailer.msgs)
}

func TestExportDatabaseTableFailureSkipsUpload(t *testing.T) {
	f := newFixture()
	f.tables.err = errors.New("connection reset")

	_, err := f.exporter.ExportDatabase(context.Background(), json.RawMessage(`{"email":"user@example.com"}`))
	assert.Error(t, err)
	assert.Nil(t, f.archiver.files)
	assert.Empty(t, f.uploader.name)
}

func TestExportDatabaseArchiveFailureSkipsUpload(t *testing.T) {
	f := newFixture()
	f.archiver.err = errors.New("zip: write error")

	_, err := f.exporter.ExportDatabase(context.Background(), json.RawMessage(`{"email":"user@example.com"}`))
	assert.Error(t, err)
	assert.Empty(t, f.uploader.name)
}

func TestExportDatabaseEmailFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.mailer.err = errors.New("smtp down")

	_, err := f.exporter.ExportDatabase(context.Background(), json.RawMessage(`{"email":"user@example.com"}`))
	assert.Error(t, err)
}

func TestExportModel(t *testing.T) {
	f := newFixture()

	res, err := f.exporter.ExportModel(context.Background(), json.RawMessage(`{"email":"user@example.com","model":"tableB"}`))
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Equal(t, []string{"tableB"}, f.tables.calls)
	assert.Equal(t, "tableB_20230101_123456_export.zip", f.uploader.name)
	assert.Equal(t, []archive.File{{Name: "tableB.csv", Data: []byte("data for tableB"), Modified: fixedTime}}, f.archiver.files)
}

func TestExportModelUnknown(t *testing.T) {
	f := newFixture()

	res, err := f.exporter.ExportModel(context.Background(), json.RawMessage(`{"email":"user@example.com","model":"tableZ"}`))
	require.NoError(t, err)
	assert.Equal(t, "Unknown model tableZ", res.Error)
	assert.Empty(t, f.tables.calls)
}

func TestExportModelRequiresModel(t *testing.T) {
	f := newFixture()

	res, err := f.exporter.ExportModel(context.Background(), json.RawMessage(`{"email":"user@example.com"}`))
	require.NoError(t, err)
	assert.True(t, res.Failed())
}

func TestExportWithRealArchiveAndSource(t *testing.T) {
	uploader := &fakeUploader{}
	e := &Exporter{
		Tables: CSVExporter{Source: source.NewStaticSource(map[string][]source.Row{
			"users": {{"id": int64(1), "email": "a@example.com"}},
		})},
		Uploader: uploader,
		Mailer:   &fakeMailer{},
		Clock:    testclock.NewClock(fixedTime),
	}

	res, err := e.ExportDatabase(context.Background(), json.RawMessage(`{"email":"user@example.com"}`))
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.NotEmpty(t, uploader.data)
}
