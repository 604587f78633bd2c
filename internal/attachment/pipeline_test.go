package attachment

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/azmilabs/tutor-agent/internal/config"
	"github.com/azmilabs/tutor-agent/internal/entity"
	"go.uber.org/zap"
)

func testPipeline(maxSize int64) *Pipeline {
	return NewPipeline(config.AttachmentConfig{
		MaxFileSize:  maxSize,
		MaxFileCount: 8,
	}, zap.NewNop())
}

func TestPrepareEncodesAndClassifies(t *testing.T) {
	p := testPipeline(1 << 20)

	data := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3}
	ref, err := p.Prepare(File{Name: "diagram.png", MimeType: "image/png", Data: data})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	if ref.Kind != entity.AttachmentKindImage {
		t.Fatalf("expected IMAGE kind, got %s", ref.Kind)
	}
	if ref.EncodedPayload != base64.StdEncoding.EncodeToString(data) {
		t.Fatal("payload is not standard base64 of the source bytes")
	}
	if !strings.HasPrefix(ref.PreviewHandle, "data:image/png;base64,") {
		t.Fatalf("unexpected preview handle: %q", ref.PreviewHandle)
	}
	if ref.Size != int64(len(data)) {
		t.Fatalf("expected size %d, got %d", len(data), ref.Size)
	}

	// Round trip: the transport payload must decode back to the input.
	decoded, err := base64.StdEncoding.DecodeString(ref.EncodedPayload)
	if err != nil || !bytes.Equal(decoded, data) {
		t.Fatalf("payload does not round-trip: %v", err)
	}
}

func TestPrepareNonImage(t *testing.T) {
	p := testPipeline(1 << 20)

	ref, err := p.Prepare(File{Name: "notes.pdf", MimeType: "application/pdf", Data: []byte("%PDF-1.4")})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if ref.Kind != entity.AttachmentKindFile {
		t.Fatalf("expected FILE kind, got %s", ref.Kind)
	}
}

func TestPrepareRejectsOversized(t *testing.T) {
	p := testPipeline(16)

	_, err := p.Prepare(File{Name: "big.bin", Data: make([]byte, 17)})
	if !errors.Is(err, entity.ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if !strings.Contains(err.Error(), "big.bin") {
		t.Fatalf("rejection does not name the file: %v", err)
	}
}

func TestPrepareRejectsEmpty(t *testing.T) {
	p := testPipeline(16)

	if _, err := p.Prepare(File{Name: "empty.txt"}); !errors.Is(err, entity.ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestPrepareBatchPartialSuccess(t *testing.T) {
	p := testPipeline(32)

	files := []File{
		{Name: "a.txt", MimeType: "text/plain", Data: []byte("first")},
		{Name: "huge.bin", Data: make([]byte, 64)},
		{Name: "b.txt", MimeType: "text/plain", Data: []byte("third")},
	}

	refs, notices := p.PrepareBatch(files)

	if len(refs) != 2 {
		t.Fatalf("expected 2 prepared refs, got %d", len(refs))
	}
	if refs[0].Name != "a.txt" || refs[1].Name != "b.txt" {
		t.Fatalf("batch lost input order: %q, %q", refs[0].Name, refs[1].Name)
	}
	if len(notices) != 1 {
		t.Fatalf("expected 1 notice, got %d", len(notices))
	}
	if notices[0].Name != "huge.bin" || !errors.Is(notices[0].Err, entity.ErrFileTooLarge) {
		t.Fatalf("unexpected notice: %+v", notices[0])
	}
}

func TestPrepareBatchFileCountCap(t *testing.T) {
	p := NewPipeline(config.AttachmentConfig{MaxFileSize: 1 << 20, MaxFileCount: 2}, zap.NewNop())

	files := []File{
		{Name: "1.txt", MimeType: "text/plain", Data: []byte("x")},
		{Name: "2.txt", MimeType: "text/plain", Data: []byte("y")},
		{Name: "3.txt", MimeType: "text/plain", Data: []byte("z")},
	}

	refs, notices := p.PrepareBatch(files)
	if len(refs) != 2 || len(notices) != 1 {
		t.Fatalf("expected 2 refs and 1 notice, got %d and %d", len(refs), len(notices))
	}
	if !errors.Is(notices[0].Err, entity.ErrTooManyFiles) {
		t.Fatalf("expected ErrTooManyFiles, got %v", notices[0].Err)
	}
}

func TestDetectMimeTypeFallsBackToSniffing(t *testing.T) {
	// No extension: content sniffing should still spot a PNG.
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	if got := detectMimeType("snapshot", png); got != "image/png" {
		t.Fatalf("expected image/png from sniffing, got %q", got)
	}
}
