package models

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"github.com/disintegration/imaging"
	"gorm.io/gorm"
)

// Attachment content lives in-row and travels as base64 on the wire
// ([]byte marshals to a base64 string).
type Attachment struct {
	ID               int         `gorm:"primary_key" json:"AttachmentID"`
	CompanyId        int         `gorm:"index;not null" json:"CompanyID"`
	DocTypeId        int         `gorm:"index;not null" json:"DocTypeID"`
	DocTypeName      string      `gorm:"size:100" json:"DocTypeName"`
	FileName         string      `gorm:"size:255;not null" json:"FileName"`
	ContentType      string      `gorm:"size:100" json:"ContentType"`
	FileSizeKB       int         `json:"FileSizeKB"`
	FileContent      []byte      `gorm:"type:mediumblob" json:"FileContent,omitempty"`
	ThumbnailContent []byte      `gorm:"type:mediumblob" json:"ThumbnailContent,omitempty"`
	IsMainImage      *bool       `gorm:"not null;default:false" json:"IsMainImage"`
	IssueDate        *DateString `gorm:"type:date" json:"IssueDate,omitempty"`
	ExpiryDate       *DateString `gorm:"type:date" json:"ExpiryDate,omitempty"`
	ReferenceType    string      `gorm:"size:50;index:idx_attachments_reference" json:"ReferenceType"`
	ReferenceID      int         `gorm:"index:idx_attachments_reference" json:"ReferenceID"`
	UploadedBy       string      `gorm:"size:100" json:"UploadedBy"`
	CreatedAt        time.Time   `gorm:"autoCreateTime" json:"CreatedAt"`
	UpdatedAt        time.Time   `gorm:"autoUpdateTime" json:"UpdatedAt"`
}

// NewAttachment is a staged upload. Items staged client-side carry a
// negative temporary id until the owning entity's save persists them.
type NewAttachment struct {
	HasId
	HasIsDeleted
	DocTypeId   int         `json:"DocTypeID"`
	FileName    string      `json:"FileName"`
	FileContent []byte      `json:"FileContent"`
	ContentType string      `json:"ContentType"`
	IsMainImage *bool       `json:"IsMainImage"`
	IssueDate   *DateString `json:"IssueDate"`
	ExpiryDate  *DateString `json:"ExpiryDate"`

	// resolved by validateNewAttachments before the upsert
	docTypeName string
	thumbnail   []byte
	companyId   int
	uploadedBy  string
}

func (obj Attachment) GetId() int {
	return obj.ID
}

func (obj Attachment) GetCompanyId() int {
	return obj.CompanyId
}

// map for updating, metadata only
// db.Model(m).Updates(...)
func (input *NewAttachment) Fillable() (map[string]interface{}, error) {
	fillable := map[string]interface{}{}
	// zero doc type on an existing attachment means leave unchanged
	if input.DocTypeId > 0 {
		fillable["DocTypeId"] = input.DocTypeId
		fillable["DocTypeName"] = input.docTypeName
	}
	if input.IsMainImage != nil {
		fillable["IsMainImage"] = *input.IsMainImage
	}
	if input.IssueDate != nil {
		fillable["IssueDate"] = *input.IssueDate
	}
	if input.ExpiryDate != nil {
		fillable["ExpiryDate"] = *input.ExpiryDate
	}
	return fillable, nil
}

// for create
func (input *NewAttachment) MapInput(referenceType string, referenceId int) (*Attachment, error) {
	if len(input.FileContent) == 0 {
		return nil, fmt.Errorf("attachment %s has no file content", input.FileName)
	}
	isMainImage := false
	if input.IsMainImage != nil {
		isMainImage = *input.IsMainImage
	}
	return &Attachment{
		CompanyId:        input.companyId,
		DocTypeId:        input.DocTypeId,
		DocTypeName:      input.docTypeName,
		FileName:         input.FileName,
		ContentType:      input.ContentType,
		FileSizeKB:       (len(input.FileContent) + 1023) / 1024,
		FileContent:      input.FileContent,
		ThumbnailContent: input.thumbnail,
		IsMainImage:      &isMainImage,
		IssueDate:        input.IssueDate,
		ExpiryDate:       input.ExpiryDate,
		ReferenceType:    referenceType,
		ReferenceID:      referenceId,
		UploadedBy:       input.uploadedBy,
	}, nil
}

func (d *Attachment) Store(tx *gorm.DB, ctx context.Context) error {
	return tx.WithContext(ctx).Create(&d).Error
}

// expected d is loaded from db
func (d *Attachment) Delete(tx *gorm.DB, ctx context.Context) error {
	return tx.WithContext(ctx).Delete(&d).Error
}

func (d *Attachment) Update(tx *gorm.DB, ctx context.Context, fillable map[string]interface{}) error {
	return tx.WithContext(ctx).Model(&d).Updates(fillable).Error
}

func isExtensionAllowed(fileName string, allowedExtensions string) bool {
	allowedExtensions = strings.TrimSpace(allowedExtensions)
	if allowedExtensions == "" {
		return true
	}
	index := strings.LastIndex(fileName, ".")
	if index < 0 {
		return false
	}
	ext := strings.ToLower(strings.TrimPrefix(fileName[index:], "."))
	for _, allowed := range strings.Split(allowedExtensions, ",") {
		allowed = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(allowed), ".")))
		if allowed != "" && allowed == ext {
			return true
		}
	}
	return false
}

func generateThumbnail(originalData []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(originalData))
	if err != nil {
		return nil, err
	}

	thumbnail := imaging.Resize(img, 200, 0, imaging.Lanczos)

	var thumbnailBuffer bytes.Buffer
	if err := imaging.Encode(&thumbnailBuffer, thumbnail, imaging.JPEG); err != nil {
		return nil, err
	}
	return thumbnailBuffer.Bytes(), nil
}

// validateNewAttachments checks the staged uploads against their doc types
// and resolves the fields MapInput needs.
func validateNewAttachments(ctx context.Context, companyId int, input []*NewAttachment) error {

	if len(input) == 0 {
		return nil
	}

	db := config.GetDB()
	var docTypeRows []*DocType
	if err := db.WithContext(ctx).Where("company_id = ?", companyId).Find(&docTypeRows).Error; err != nil {
		return err
	}
	docTypes := make(map[int]*DocType, len(docTypeRows))
	for _, docType := range docTypeRows {
		docTypes[docType.ID] = docType
	}

	userName, _ := utils.GetUserNameFromContext(ctx)

	for _, item := range input {
		if item.IsDeleted() {
			continue
		}
		item.companyId = companyId
		item.uploadedBy = userName

		if item.DocTypeId > 0 {
			docType, ok := docTypes[item.DocTypeId]
			if !ok {
				return fmt.Errorf("document type %d not found for attachment %s", item.DocTypeId, item.FileName)
			}
			item.docTypeName = docType.DocTypeName
		}

		isNew := item.GetId() <= 0
		if !isNew {
			continue
		}

		if strings.TrimSpace(item.FileName) == "" {
			return errors.New("attachment file name is required")
		}
		if item.DocTypeId <= 0 {
			return fmt.Errorf("document type is required for attachment %s", item.FileName)
		}
		docType := docTypes[item.DocTypeId]
		if docType.IsActive != nil && !*docType.IsActive {
			return fmt.Errorf("document type %s is inactive", docType.DocTypeName)
		}
		if !isExtensionAllowed(item.FileName, docType.AllowedExtensions) {
			return fmt.Errorf("attachment %s is not an allowed file type for %s (%s)",
				item.FileName, docType.DocTypeName, docType.AllowedExtensions)
		}
		if len(item.FileContent) == 0 {
			return fmt.Errorf("attachment %s has no file content", item.FileName)
		}
		maxSizeMB := docType.MaxSizeMB
		if maxSizeMB <= 0 {
			maxSizeMB = 10
		}
		if int64(len(item.FileContent)) > int64(maxSizeMB)*1024*1024 {
			return fmt.Errorf("attachment %s exceeds the maximum size of %d MB", item.FileName, maxSizeMB)
		}

		if strings.HasPrefix(strings.ToLower(item.ContentType), "image/") {
			// non-decodable content just skips the thumbnail
			if thumbnail, err := generateThumbnail(item.FileContent); err == nil {
				item.thumbnail = thumbnail
			}
		}
	}
	return nil
}

// normalizeMainImage keeps the main image flag exclusive within the owning
// entity's attachment set, most recently flagged wins.
func normalizeMainImage(ctx context.Context, tx *gorm.DB, referenceType string, referenceId int) error {

	var mainIds []int
	if err := tx.WithContext(ctx).
		Model(&Attachment{}).
		Where("reference_type = ? AND reference_id = ? AND is_main_image = ?", referenceType, referenceId, true).
		Order("updated_at DESC, id DESC").
		Pluck("id", &mainIds).Error; err != nil {
		return err
	}
	if len(mainIds) <= 1 {
		return nil
	}
	return tx.WithContext(ctx).
		Model(&Attachment{}).
		Where("reference_type = ? AND reference_id = ? AND id != ?", referenceType, referenceId, mainIds[0]).
		Update("is_main_image", false).Error
}

func upsertAttachments(ctx context.Context, tx *gorm.DB, input []*NewAttachment, referenceType string, referenceId int) ([]*Attachment, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateNewAttachments(ctx, companyId, input); err != nil {
		return nil, err
	}
	attachments, err := UpsertPolymorphicAssociation[*Attachment](ctx, tx, input, referenceType, referenceId)
	if err != nil {
		return nil, err
	}
	if err := normalizeMainImage(ctx, tx, referenceType, referenceId); err != nil {
		return nil, err
	}
	return attachments, nil
}

func deleteAttachments(ctx context.Context, tx *gorm.DB, attachments []*Attachment) error {
	for _, attachment := range attachments {
		if err := attachment.Delete(tx, ctx); err != nil {
			return err
		}
	}
	return nil
}
