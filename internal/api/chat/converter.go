package chat

import (
	"encoding/base64"
	"fmt"

	"github.com/azmilabs/tutor-agent/internal/attachment"
	"github.com/azmilabs/tutor-agent/internal/entity"
)

// toFiles decodes the uploaded attachments into pipeline inputs.
func toFiles(uploads []entity.AttachmentUpload) ([]attachment.File, error) {
	if len(uploads) == 0 {
		return nil, nil
	}

	files := make([]attachment.File, 0, len(uploads))
	for _, upload := range uploads {
		data, err := base64.StdEncoding.DecodeString(upload.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: attachment %q is not valid base64", entity.ErrInvalidFormat, upload.Name)
		}
		files = append(files, attachment.File{
			Name:     upload.Name,
			MimeType: upload.MimeType,
			Data:     data,
		})
	}
	return files, nil
}

func toDroppedDTO(notices []attachment.Notice) []entity.DroppedAttachment {
	if len(notices) == 0 {
		return nil
	}

	dropped := make([]entity.DroppedAttachment, 0, len(notices))
	for _, notice := range notices {
		dropped = append(dropped, entity.DroppedAttachment{
			Name:   notice.Name,
			Reason: notice.Err.Error(),
		})
	}
	return dropped
}
