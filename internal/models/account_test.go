package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStudentAccountIsPending(t *testing.T) {
	acc := NewStudentAccount("id-1", "  Ada ", " ADA@X.com ", "hash")
	assert.Equal(t, "Ada", acc.DisplayName)
	assert.Equal(t, "ada@x.com", acc.Email)
	assert.Equal(t, RoleStudent, acc.Role)
	assert.Equal(t, StatusPending, acc.ApprovalStatus)
	assert.Nil(t, acc.RejectionReason)
	assert.Nil(t, acc.ApprovedAt)
	require.NoError(t, acc.Validate())
}

func TestNewAdminAccountIsApproved(t *testing.T) {
	now := time.Now()
	acc := NewAdminAccount("id-1", "Root", "root@x.com", "hash", now)
	assert.Equal(t, StatusApproved, acc.ApprovalStatus)
	require.NotNil(t, acc.ApprovedAt)
	assert.True(t, acc.ApprovedAt.Equal(now))
	require.NoError(t, acc.Validate())

	_, isStudent := acc.Student()
	assert.False(t, isStudent)
	admin, isAdmin := acc.Admin()
	require.True(t, isAdmin)
	assert.Equal(t, "id-1", admin.ID())
}

func TestStudentTransitionsKeepInvariants(t *testing.T) {
	acc := NewStudentAccount("id-1", "Ada", "ada@x.com", "hash")
	student, ok := acc.Student()
	require.True(t, ok)
	_, isAdmin := acc.Admin()
	assert.False(t, isAdmin)

	student.Reject("  missing documents  ")
	require.NoError(t, acc.Validate())
	require.NotNil(t, acc.RejectionReason)
	assert.Equal(t, "missing documents", *acc.RejectionReason)
	assert.Nil(t, acc.ApprovedAt)

	first := time.Now().Add(-time.Minute)
	student.Approve(first)
	require.NoError(t, acc.Validate())
	assert.Nil(t, acc.RejectionReason)
	require.NotNil(t, acc.ApprovedAt)

	second := time.Now()
	student.Approve(second)
	assert.True(t, acc.ApprovedAt.Equal(second))

	student.Reject("")
	require.NoError(t, acc.Validate())
	require.NotNil(t, acc.RejectionReason)
	assert.Equal(t, "", *acc.RejectionReason)
	assert.Nil(t, acc.ApprovedAt)
}

func TestValidateDetectsBrokenInvariants(t *testing.T) {
	reason := "x"
	now := time.Now()
	cases := map[string]*Account{
		"reason while pending":   {ID: "1", Role: RoleStudent, ApprovalStatus: StatusPending, RejectionReason: &reason},
		"approved without stamp": {ID: "1", Role: RoleStudent, ApprovalStatus: StatusApproved},
		"stamp while rejected":   {ID: "1", Role: RoleStudent, ApprovalStatus: StatusRejected, RejectionReason: &reason, ApprovedAt: &now},
		"pending admin":          {ID: "1", Role: RoleAdmin, ApprovalStatus: StatusPending},
		"unknown role":           {ID: "1", Role: "guest", ApprovalStatus: StatusPending},
	}
	for name, acc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, acc.Validate())
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	acc := NewStudentAccount("id-1", "Ada", "ada@x.com", "hash")
	student, _ := acc.Student()
	student.Reject("late")

	c := acc.Clone()
	*c.RejectionReason = "changed"
	assert.Equal(t, "late", *acc.RejectionReason)
}

func TestViewsOmitSecrets(t *testing.T) {
	acc := NewStudentAccount("id-1", "Ada", "ada@x.com", "hash")
	view := acc.View()
	assert.Equal(t, "id-1", view.ID)
	assert.Equal(t, "Ada", view.Name)
	pending := acc.PendingView()
	assert.Equal(t, "ada@x.com", pending.Email)
}
