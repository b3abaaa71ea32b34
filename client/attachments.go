package client

import (
	"fmt"

	"bitbucket.org/terrafocus/lease_backend/models"
)

// AttachmentSet stages attachment edits client-side before the owning
// entity's save. New rows carry negative temporary ids so the UI can
// reference them; the server assigns real ids on persist.
type AttachmentSet struct {
	items  []*models.NewAttachment
	nextId int
}

func NewAttachmentSet() *AttachmentSet {
	return &AttachmentSet{nextId: -1}
}

// Load seeds the set with rows already persisted on the entity.
func (s *AttachmentSet) Load(existing []*models.Attachment) {
	for _, attachment := range existing {
		item := &models.NewAttachment{
			DocTypeId:   attachment.DocTypeId,
			FileName:    attachment.FileName,
			ContentType: attachment.ContentType,
			IsMainImage: attachment.IsMainImage,
			IssueDate:   attachment.IssueDate,
			ExpiryDate:  attachment.ExpiryDate,
		}
		item.ID = attachment.ID
		s.items = append(s.items, item)
	}
}

// Stage adds a new upload under a negative temporary id and returns that id.
func (s *AttachmentSet) Stage(fileName string, contentType string, content []byte, docTypeId int) int {
	item := &models.NewAttachment{
		DocTypeId:   docTypeId,
		FileName:    fileName,
		FileContent: content,
		ContentType: contentType,
	}
	item.ID = s.nextId
	s.nextId--
	s.items = append(s.items, item)
	return item.ID
}

// Remove flags a persisted row for deletion, or drops a staged row outright.
func (s *AttachmentSet) Remove(id int) {
	for i, item := range s.items {
		if item.ID != id {
			continue
		}
		if item.ID < 0 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		} else {
			item.IsDeletedItem = true
		}
		return
	}
}

// SetMainImage flips the flag on one row and clears it on the rest, the
// same exclusivity the server enforces on persist.
func (s *AttachmentSet) SetMainImage(id int) {
	for _, item := range s.items {
		isMain := item.ID == id
		item.IsMainImage = &isMain
	}
}

func (s *AttachmentSet) SetDocType(id int, docTypeId int) {
	for _, item := range s.items {
		if item.ID == id {
			item.DocTypeId = docTypeId
			return
		}
	}
}

// IsNew reports whether the id belongs to a staged, not yet persisted row.
func (s *AttachmentSet) IsNew(id int) bool {
	return id < 0
}

func (s *AttachmentSet) Len() int {
	return len(s.items)
}

// Validate runs the pre-flight checks that would otherwise bounce at the
// server: every staged row needs a document type and content.
func (s *AttachmentSet) Validate() error {
	var messages []string
	for _, item := range s.items {
		if item.IsDeletedItem || item.ID > 0 {
			continue
		}
		if item.DocTypeId <= 0 {
			messages = append(messages, fmt.Sprintf("document type is required for attachment %s", item.FileName))
		}
		if len(item.FileContent) == 0 {
			messages = append(messages, fmt.Sprintf("attachment %s has no file content", item.FileName))
		}
	}
	if len(messages) > 0 {
		return &ValidationError{Messages: messages}
	}
	return nil
}

// Inputs validates and returns the staged rows ready to ride on a save
// call. The invalid set never reaches the wire.
func (s *AttachmentSet) Inputs() ([]*models.NewAttachment, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s.items, nil
}
