package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoanLimit(t *testing.T) {
	tests := []struct {
		tier string
		want int
	}{
		{MembershipBasic, 3},
		{MembershipPremium, 10},
		{MembershipStudent, 5},
		{MembershipFaculty, 8},
		{"", DefaultLoanLimit},
		{"platinum", DefaultLoanLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LoanLimit(tt.tier), "tier %q", tt.tier)
	}
}

func TestValidMembershipType(t *testing.T) {
	assert.True(t, ValidMembershipType(MembershipBasic))
	assert.True(t, ValidMembershipType(MembershipFaculty))
	assert.False(t, ValidMembershipType(""))
	assert.False(t, ValidMembershipType("gold"))
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleLibrarian))
	assert.True(t, ValidRole(RoleMember))
	assert.False(t, ValidRole("root"))
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	assert.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse battery"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
