package pagination_test

import (
	"testing"
	"time"

	"github.com/finledger/finledger_backend/internal/utils/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	entryDate := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2025, 3, 14, 9, 26, 53, 589793238, time.UTC)

	token := pagination.EncodeToken(entryDate, createdAt)
	gotDate, gotCreated, err := pagination.DecodeToken(token)

	require.NoError(t, err)
	assert.True(t, entryDate.Equal(gotDate))
	assert.True(t, createdAt.Equal(gotCreated))
}

func TestDecodeToken_Invalid(t *testing.T) {
	_, _, err := pagination.DecodeToken("not-base64!!!")
	assert.Error(t, err)

	_, _, err = pagination.DecodeToken("aGVsbG8=") // decodes but has no separator
	assert.Error(t, err)
}
