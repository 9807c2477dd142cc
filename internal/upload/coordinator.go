// Package upload validates and submits batches of patient record files.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/rs/zerolog/log"

	"github.com/medassist/internal/transport"
)

const (
	fieldRecordID = "patient_id"
	fieldName     = "name"
	fieldAge      = "age"
	fieldGender   = "gender"
	fieldFiles    = "files"

	// filetype only needs the file header to recognise a type.
	sniffLen = 262
)

// File is one document to upload. Content is read once.
type File struct {
	Name    string
	Content io.Reader
}

// Demographics are optional patient details sent alongside the files.
type Demographics struct {
	Name   string
	Age    string
	Gender string
}

// fields returns the non-empty demographics in wire order.
func (d Demographics) fields() [][2]string {
	var out [][2]string
	for _, kv := range [][2]string{{fieldName, d.Name}, {fieldAge, d.Age}, {fieldGender, d.Gender}} {
		if strings.TrimSpace(kv[1]) != "" {
			out = append(out, kv)
		}
	}
	return out
}

// Request is a batch submission for one patient.
type Request struct {
	RecordID     string
	Demographics Demographics
	Files        []File
}

// Uploader is the transport operation the coordinator delegates to.
type Uploader interface {
	Upload(ctx context.Context, payload transport.Payload) transport.Result
}

// Coordinator validates requests locally and hands well-formed payloads to the
// transport.
type Coordinator struct {
	uploader Uploader
}

// NewCoordinator returns a coordinator that submits through uploader.
func NewCoordinator(uploader Uploader) *Coordinator {
	return &Coordinator{uploader: uploader}
}

// Validate checks the required fields. It never touches the network.
func Validate(req Request) error {
	if strings.TrimSpace(req.RecordID) == "" {
		return fmt.Errorf("patient ID is required")
	}
	if len(req.Files) == 0 {
		return fmt.Errorf("at least one file is required")
	}
	for i, f := range req.Files {
		if f.Content == nil {
			return fmt.Errorf("file %d (%s) has no content", i+1, f.Name)
		}
	}
	return nil
}

// Submit validates req, encodes it and uploads it in one call.
func (c *Coordinator) Submit(ctx context.Context, req Request) transport.Result {
	if err := Validate(req); err != nil {
		log.Debug().Err(err).Msg("Upload rejected before submission")
		return transport.Fail(transport.KindValidation, err.Error(), err)
	}

	payload, err := BuildPayload(req)
	if err != nil {
		return transport.Fail(transport.KindValidation, err.Error(), err)
	}

	log.Info().
		Str("patient_id", req.RecordID).
		Int("files", len(req.Files)).
		Int("bytes", len(payload.Body)).
		Msg("Submitting patient record upload")

	return c.uploader.Upload(ctx, payload)
}

// Status renders a result as the line shown to the user.
func Status(r transport.Result) string {
	if r.OK() {
		return r.Text
	}
	return "Upload failed: " + r.Failure.Message()
}

// BuildPayload encodes req as multipart form data: patient_id first, then the
// non-empty demographics, then every file in order under "files".
func BuildPayload(req Request) (transport.Payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField(fieldRecordID, req.RecordID); err != nil {
		return transport.Payload{}, fmt.Errorf("failed to write %s: %w", fieldRecordID, err)
	}
	for _, kv := range req.Demographics.fields() {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return transport.Payload{}, fmt.Errorf("failed to write %s: %w", kv[0], err)
		}
	}

	for i, f := range req.Files {
		if err := writeFile(w, i, f); err != nil {
			return transport.Payload{}, err
		}
	}

	if err := w.Close(); err != nil {
		return transport.Payload{}, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return transport.Payload{Body: buf.Bytes(), ContentType: w.FormDataContentType()}, nil
}

func writeFile(w *multipart.Writer, index int, f File) error {
	name := filepath.Base(f.Name)
	if f.Name == "" {
		name = fmt.Sprintf("file-%d", index+1)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f.Content, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	head = head[:n]

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldFiles, escapeQuotes(name)))
	header.Set("Content-Type", contentType(head))

	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create part for %s: %w", name, err)
	}
	if _, err := io.Copy(part, io.MultiReader(bytes.NewReader(head), f.Content)); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func contentType(head []byte) string {
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream"
	}
	return kind.MIME.Value
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
