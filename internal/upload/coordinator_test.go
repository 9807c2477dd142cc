package upload

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medassist/internal/transport"
)

type countingUploader struct {
	calls    int
	payloads []transport.Payload
	result   transport.Result
}

func (u *countingUploader) Upload(_ context.Context, p transport.Payload) transport.Result {
	u.calls++
	u.payloads = append(u.payloads, p)
	return u.result
}

type formPart struct {
	name, filename, contentType, body string
}

func readParts(t *testing.T, p transport.Payload) []formPart {
	t.Helper()
	_, params, err := mime.ParseMediaType(p.ContentType)
	require.NoError(t, err)

	r := multipart.NewReader(bytes.NewReader(p.Body), params["boundary"])
	var parts []formPart
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(part)
		require.NoError(t, err)
		parts = append(parts, formPart{
			name:        part.FormName(),
			filename:    part.FileName(),
			contentType: part.Header.Get("Content-Type"),
			body:        string(body),
		})
	}
	return parts
}

func textFile(name, body string) File {
	return File{Name: name, Content: strings.NewReader(body)}
}

func TestSubmit_RejectsMissingRecordID(t *testing.T) {
	u := &countingUploader{}
	result := NewCoordinator(u).Submit(context.Background(), Request{
		RecordID: "",
		Files:    []File{textFile("f1.txt", "notes")},
	})

	require.Equal(t, transport.KindValidation, result.Kind())
	require.Zero(t, u.calls)
	require.Equal(t, "Upload failed: Validation error: patient ID is required", Status(result))
}

func TestSubmit_RejectsEmptyFiles(t *testing.T) {
	u := &countingUploader{}
	result := NewCoordinator(u).Submit(context.Background(), Request{RecordID: "42"})

	require.Equal(t, transport.KindValidation, result.Kind())
	require.Zero(t, u.calls)
}

func TestSubmit_RejectsFileWithoutContent(t *testing.T) {
	u := &countingUploader{}
	result := NewCoordinator(u).Submit(context.Background(), Request{
		RecordID: "42",
		Files:    []File{{Name: "ghost.pdf"}},
	})

	require.Equal(t, transport.KindValidation, result.Kind())
	require.Zero(t, u.calls)
}

func TestSubmit_OmitsEmptyDemographics(t *testing.T) {
	u := &countingUploader{result: transport.Success("Uploaded")}
	result := NewCoordinator(u).Submit(context.Background(), Request{
		RecordID:     "42",
		Demographics: Demographics{Name: ""},
		Files:        []File{textFile("f1.txt", "one"), textFile("f2.txt", "two")},
	})

	require.True(t, result.OK())
	require.Equal(t, 1, u.calls)

	parts := readParts(t, u.payloads[0])
	var names []string
	for _, p := range parts {
		names = append(names, p.name)
	}
	require.Equal(t, []string{"patient_id", "files", "files"}, names)
	require.Equal(t, "42", parts[0].body)
	require.Equal(t, "f1.txt", parts[1].filename)
	require.Equal(t, "one", parts[1].body)
	require.Equal(t, "f2.txt", parts[2].filename)
	require.Equal(t, "two", parts[2].body)
}

func TestBuildPayload_IncludesDemographicsInOrder(t *testing.T) {
	payload, err := BuildPayload(Request{
		RecordID:     "7",
		Demographics: Demographics{Name: "Jane Roe", Age: "54", Gender: "Female"},
		Files:        []File{textFile("/tmp/labs/report.csv", "a,b\n1,2\n")},
	})
	require.NoError(t, err)

	parts := readParts(t, payload)
	require.Len(t, parts, 5)
	assert.Equal(t, formPart{name: "patient_id", body: "7"}, parts[0])
	assert.Equal(t, formPart{name: "name", body: "Jane Roe"}, parts[1])
	assert.Equal(t, formPart{name: "age", body: "54"}, parts[2])
	assert.Equal(t, formPart{name: "gender", body: "Female"}, parts[3])
	assert.Equal(t, "files", parts[4].name)
	assert.Equal(t, "report.csv", parts[4].filename, "directories are not sent")
}

func TestBuildPayload_SniffsContentType(t *testing.T) {
	pdf := "%PDF-1.7\n1 0 obj\n<<>>\nendobj\n"
	payload, err := BuildPayload(Request{
		RecordID: "7",
		Files:    []File{textFile("scan.pdf", pdf), textFile("notes.txt", "plain words")},
	})
	require.NoError(t, err)

	parts := readParts(t, payload)
	require.Len(t, parts, 3)
	assert.Equal(t, "application/pdf", parts[1].contentType)
	assert.Equal(t, pdf, parts[1].body, "sniffed bytes must be sent too")
	assert.Equal(t, "application/octet-stream", parts[2].contentType)
}

func TestSubmit_ThroughTransportClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		if _, ok := r.MultipartForm.Value["name"]; ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": "unexpected name"}`))
			return
		}
		if r.FormValue("patient_id") != "42" || len(r.MultipartForm.File["files"]) != 2 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": "bad form"}`))
			return
		}
		_, _ = w.Write([]byte(`{"message": "Stored 2 files for patient 42"}`))
	}))
	defer srv.Close()

	client := transport.NewClient(transport.Options{BaseURL: srv.URL})
	result := NewCoordinator(client).Submit(context.Background(), Request{
		RecordID: "42",
		Files:    []File{textFile("a.txt", "a"), textFile("b.txt", "b")},
	})

	require.True(t, result.OK(), Status(result))
	require.Equal(t, "Stored 2 files for patient 42", Status(result))
}

func TestStatus_ServerFailure(t *testing.T) {
	r := transport.Fail(transport.KindServer, "disk full", nil)
	require.Equal(t, "Upload failed: Server error: disk full", Status(r))
}
