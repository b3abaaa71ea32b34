package client

import (
	"testing"

	"bitbucket.org/terrafocus/lease_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentSetStagesWithNegativeTempIds(t *testing.T) {
	set := NewAttachmentSet()

	first := set.Stage("contract.pdf", "application/pdf", []byte("pdf-bytes"), 1)
	second := set.Stage("id-card.jpg", "image/jpeg", []byte("jpg-bytes"), 2)

	assert.Equal(t, -1, first)
	assert.Equal(t, -2, second)
	assert.True(t, set.IsNew(first))
	assert.Equal(t, 2, set.Len())
}

func TestAttachmentSetRemoveDropsStagedKeepsPersisted(t *testing.T) {
	set := NewAttachmentSet()
	set.Load([]*models.Attachment{
		{ID: 10, DocTypeId: 1, FileName: "existing.pdf"},
	})
	staged := set.Stage("new.pdf", "application/pdf", []byte("x"), 1)
	require.Equal(t, 2, set.Len())

	// staged rows vanish outright
	set.Remove(staged)
	assert.Equal(t, 1, set.Len())

	// persisted rows stay in the set flagged for server-side deletion
	set.Remove(10)
	require.Equal(t, 1, set.Len())
	inputs, err := set.Inputs()
	require.NoError(t, err)
	assert.True(t, inputs[0].IsDeletedItem)
}

func TestAttachmentSetMainImageIsExclusive(t *testing.T) {
	set := NewAttachmentSet()
	a := set.Stage("front.jpg", "image/jpeg", []byte("a"), 1)
	b := set.Stage("back.jpg", "image/jpeg", []byte("b"), 1)

	set.SetMainImage(a)
	set.SetMainImage(b)

	inputs, err := set.Inputs()
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	for _, item := range inputs {
		require.NotNil(t, item.IsMainImage)
		assert.Equal(t, item.ID == b, *item.IsMainImage)
	}
}

func TestAttachmentSetValidateNamesOffendingFiles(t *testing.T) {
	set := NewAttachmentSet()
	set.Stage("orphan.pdf", "application/pdf", []byte("x"), 0)
	set.Stage("empty.pdf", "application/pdf", nil, 3)

	err := set.Validate()
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Messages, 2)
	assert.Contains(t, validationErr.Messages[0], "orphan.pdf")
	assert.Contains(t, validationErr.Messages[1], "empty.pdf")

	_, err = set.Inputs()
	assert.Error(t, err)

	// assigning the missing document type clears the failure
	set.SetDocType(-1, 3)
	set.Remove(-2)
	assert.NoError(t, set.Validate())
}

func TestAttachmentSetValidateSkipsPersistedAndDeletedRows(t *testing.T) {
	set := NewAttachmentSet()
	set.Load([]*models.Attachment{
		{ID: 5, DocTypeId: 0, FileName: "legacy-no-doctype.pdf"},
	})
	staged := set.Stage("bad.pdf", "application/pdf", nil, 0)
	set.Remove(staged)

	assert.NoError(t, set.Validate())
}
