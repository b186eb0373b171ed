package ingest

import (
	"testing"

	"apptrack-engine/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadValidateOK(t *testing.T) {
	assert.NoError(t, validPayload().Validate())
}

func TestPayloadValidateRequiredFields(t *testing.T) {
	err := Payload{}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Issues)
}

func TestPayloadValidateRejectsBadEnums(t *testing.T) {
	p := validPayload()
	p.Provider = "carrier-pigeon"
	assert.ErrorIs(t, p.Validate(), apperr.ErrValidation)

	p = validPayload()
	p.EventCategory = "SPAM"
	assert.ErrorIs(t, p.Validate(), apperr.ErrValidation)

	p = validPayload()
	p.Status = "GHOSTED"
	assert.ErrorIs(t, p.Validate(), apperr.ErrValidation)
}

func TestPayloadValidateRejectsBadTimestamps(t *testing.T) {
	p := validPayload()
	p.ReceivedAt = "March 1st, 2026"
	assert.ErrorIs(t, p.Validate(), apperr.ErrValidation)

	p = validPayload()
	p.ScheduledItems = []PayloadItem{{
		Type: "OA", Title: "HackerRank", StartAt: "tomorrow",
	}}
	assert.ErrorIs(t, p.Validate(), apperr.ErrValidation)
}

func TestPayloadValidateAcceptsFractionalSeconds(t *testing.T) {
	p := validPayload()
	p.ReceivedAt = "2026-03-01T10:00:00.123Z"
	assert.NoError(t, p.Validate())
}

func TestPayloadValidateRejectsBadLinks(t *testing.T) {
	p := validPayload()
	p.ScheduledItems = []PayloadItem{{
		Type: "OA", Title: "HackerRank", StartAt: "2026-03-10T15:00:00Z",
		Links: []PayloadLink{{Label: "Portal", URL: "not a url"}},
	}}
	assert.ErrorIs(t, p.Validate(), apperr.ErrValidation)
}
