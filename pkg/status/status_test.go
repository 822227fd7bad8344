package status_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geekforce/central.go/pkg/status"
)

func TestAuthKindCollapsesCredentialCodes(t *testing.T) {
	for _, code := range []string{
		status.CodeInvalidCredential,
		status.CodeUserNotFound,
		status.CodeWrongPassword,
	} {
		assert.Equal(t, status.KindInvalidCredential, status.AuthKind(code), code)
	}
}

func TestAuthKindUnknown(t *testing.T) {
	assert.Equal(t, status.KindUnknown, status.AuthKind("quota_exceeded"))
	assert.Equal(t, status.KindUnknown, status.AuthKind(""))
}

func TestErrorString(t *testing.T) {
	err := &status.Error{Kind: status.KindRemoteWrite, Message: "rejected"}
	assert.Equal(t, "remote-write-failure: rejected", err.Error())
}
