package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// MaxAttachmentSize caps uploaded meeting attachments at 10 MB.
const MaxAttachmentSize = 10 << 20

type AttachmentService struct {
	cld *cloudinary.Cloudinary
}

func NewAttachmentService() (*AttachmentService, error) {
	// Get Cloudinary configuration from environment
	cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
	apiKey := os.Getenv("CLOUDINARY_API_KEY")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("missing Cloudinary configuration")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &AttachmentService{cld: cld}, nil
}

// AttachmentKind maps a file extension to the attachment_type stored on
// the model, or returns an error for unsupported types.
func AttachmentKind(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return "photo", nil
	case ".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt":
		return "document", nil
	default:
		return "", fmt.Errorf("unsupported attachment type for %s", filename)
	}
}

// UploadMeetingAttachment uploads a meeting file to Cloudinary and
// returns the public ID and secure URL for the stored copy.
func (s *AttachmentService) UploadMeetingAttachment(ctx context.Context, file multipart.File, filename string, meetingID uint) (publicID string, url string, err error) {
	if _, err := AttachmentKind(filename); err != nil {
		return "", "", err
	}

	publicID = fmt.Sprintf("meetings/%d/%s", meetingID, uuid.NewString())

	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       "meetman/attachments",
		ResourceType: "auto",
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload attachment: %w", err)
	}

	return result.PublicID, result.SecureURL, nil
}

// DeleteMeetingAttachment removes the stored file from Cloudinary.
func (s *AttachmentService) DeleteMeetingAttachment(ctx context.Context, publicID string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: publicID,
	})
	return err
}
