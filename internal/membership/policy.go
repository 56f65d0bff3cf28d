package membership

const (
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
	RoleMember    = "member"
	RoleStudent   = "student"
)

const (
	MembershipBasic   = "basic"
	MembershipPremium = "premium"
	MembershipStudent = "student"
	MembershipFaculty = "faculty"
)

// DefaultLoanLimit applies to unknown tiers (legacy rows).
const DefaultLoanLimit = 3

var loanLimits = map[string]int{
	MembershipBasic:   3,
	MembershipPremium: 10,
	MembershipStudent: 5,
	MembershipFaculty: 8,
}

// LoanLimit returns the maximum number of simultaneously open loans
// for a membership tier.
func LoanLimit(membershipType string) int {
	if n, ok := loanLimits[membershipType]; ok {
		return n
	}
	return DefaultLoanLimit
}

func ValidMembershipType(t string) bool {
	_, ok := loanLimits[t]
	return ok
}

func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleLibrarian, RoleMember, RoleStudent:
		return true
	}
	return false
}
