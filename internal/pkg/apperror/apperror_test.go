package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindAuthenticationRequired, http.StatusUnauthorized},
		{KindAuthorizationDenied, http.StatusForbidden},
		{KindValidationFailed, http.StatusBadRequest},
		{KindWebhookSignatureInvalid, http.StatusBadRequest},
		{KindWebhookPayloadMalformed, http.StatusBadRequest},
		{KindUpstreamBillingError, http.StatusBadGateway},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(New(tc.kind, "", "")), string(tc.kind))
	}
	assert.Equal(t, http.StatusInternalServerError, Status(errors.New("boom")))
}

func TestAsThroughWrapping(t *testing.T) {
	base := New(KindAuthorizationDenied, "WrongRole", "Only company accounts may post jobs.")
	wrapped := fmt.Errorf("create job: %w", base)

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "WrongRole", e.Reason)
	assert.True(t, IsKind(wrapped, KindAuthorizationDenied))
	assert.False(t, IsKind(wrapped, KindNotFound))
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("card declined")
	err := Wrap(KindUpstreamBillingError, cause, "card declined")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "upstream_billing_error")
}

func TestToBody(t *testing.T) {
	body := ToBody(Validation(map[string]string{"work_mode": "Remote-friendly jobs should be Remote or Hybrid."}))
	assert.Equal(t, "validation_failed", body.Error)
	assert.Equal(t, "Remote-friendly jobs should be Remote or Hybrid.", body.Fields["work_mode"])

	body = ToBody(errors.New("sql: connection refused"))
	assert.Equal(t, "internal_error", body.Error)
	assert.NotContains(t, body.Message, "sql")
}
