package attachment

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/azmilabs/tutor-agent/internal/config"
	"github.com/azmilabs/tutor-agent/internal/entity"
	"go.uber.org/zap"
)

// File is a raw user upload before validation and encoding.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// Notice reports a file that was rejected while the rest of its batch
// went through.
type Notice struct {
	Name string
	Err  error
}

// Pipeline turns raw uploads into attachment refs ready for a model
// turn: size-capped, base64-encoded, classified as image or plain file.
type Pipeline struct {
	maxFileSize  int64
	maxFileCount int
	logger       *zap.Logger
}

func NewPipeline(cfg config.AttachmentConfig, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		maxFileSize:  cfg.MaxFileSize,
		maxFileCount: cfg.MaxFileCount,
		logger:       logger,
	}
}

// Prepare validates and encodes a single file.
func (p *Pipeline) Prepare(file File) (entity.AttachmentRef, error) {
	if len(file.Data) == 0 {
		return entity.AttachmentRef{}, fmt.Errorf("%w: %q", entity.ErrEmptyFile, file.Name)
	}

	size := int64(len(file.Data))
	if size > p.maxFileSize {
		return entity.AttachmentRef{}, fmt.Errorf("%w: %q is %d bytes (max %d)",
			entity.ErrFileTooLarge, file.Name, size, p.maxFileSize)
	}

	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = detectMimeType(file.Name, file.Data)
	}

	kind := entity.AttachmentKindFile
	if strings.HasPrefix(mimeType, "image/") {
		kind = entity.AttachmentKindImage
	}

	encoded := base64.StdEncoding.EncodeToString(file.Data)

	return entity.AttachmentRef{
		Kind:           kind,
		Name:           file.Name,
		MimeType:       mimeType,
		Size:           size,
		PreviewHandle:  "data:" + mimeType + ";base64," + encoded,
		EncodedPayload: encoded,
	}, nil
}

// PrepareBatch processes every file concurrently and lets each one
// settle on its own: a rejected file becomes a notice, it never sinks
// its siblings. Results keep the input order.
func (p *Pipeline) PrepareBatch(files []File) ([]entity.AttachmentRef, []Notice) {
	if len(files) == 0 {
		return nil, nil
	}

	type slot struct {
		ref entity.AttachmentRef
		err error
	}

	slots := make([]slot, len(files))
	var wg sync.WaitGroup

	for i, file := range files {
		if i >= p.maxFileCount {
			slots[i].err = fmt.Errorf("%w: %q (max %d files per message)",
				entity.ErrTooManyFiles, file.Name, p.maxFileCount)
			continue
		}

		wg.Add(1)
		go func(i int, file File) {
			defer wg.Done()
			slots[i].ref, slots[i].err = p.Prepare(file)
		}(i, file)
	}
	wg.Wait()

	var refs []entity.AttachmentRef
	var notices []Notice
	for i, s := range slots {
		if s.err != nil {
			p.logger.Warn("attachment rejected",
				zap.String("name", files[i].Name),
				zap.Error(s.err),
			)
			notices = append(notices, Notice{Name: files[i].Name, Err: s.err})
			continue
		}
		refs = append(refs, s.ref)
	}

	return refs, notices
}

// ReadLocal loads a file from disk for the terminal client.
func (p *Pipeline) ReadLocal(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read file: %w", err)
	}

	name := filepath.Base(path)
	return File{
		Name:     name,
		MimeType: detectMimeType(name, data),
		Data:     data,
	}, nil
}

// detectMimeType resolves the type from the extension and falls back
// to content sniffing.
func detectMimeType(name string, data []byte) string {
	if mimeType := mime.TypeByExtension(filepath.Ext(name)); mimeType != "" {
		return mimeType
	}
	return http.DetectContentType(data)
}
