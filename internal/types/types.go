// Package types implements special types for the allocation backend.
package types

// AllocationBasis is the method used to split a source amount across targets.
//
// The set of values is closed. Every switch over an AllocationBasis must
// handle all values of the respective subset (rule or pool) explicitly so
// that a new basis cannot be silently mishandled.
type AllocationBasis string

const (
	BasisDirect        AllocationBasis = "direct"
	BasisPercentage    AllocationBasis = "percentage"
	BasisEqual         AllocationBasis = "equal"
	BasisSquareFootage AllocationBasis = "square_footage"
	BasisHeadcount     AllocationBasis = "headcount"
	BasisPatientDays   AllocationBasis = "patient_days"
	BasisServiceVolume AllocationBasis = "service_volume"
	BasisRevenue       AllocationBasis = "revenue"
	BasisFormula       AllocationBasis = "formula"
)

// RuleBases lists the bases an AllocationRule may use.
func RuleBases() []AllocationBasis {
	return []AllocationBasis{
		BasisDirect,
		BasisPercentage,
		BasisSquareFootage,
		BasisHeadcount,
		BasisPatientDays,
		BasisServiceVolume,
		BasisRevenue,
		BasisFormula,
	}
}

// PoolBases lists the bases a CostPool may use.
func PoolBases() []AllocationBasis {
	return []AllocationBasis{
		BasisEqual,
		BasisSquareFootage,
		BasisHeadcount,
		BasisServiceVolume,
		BasisRevenue,
	}
}

// ValidForRule reports whether the basis may be used on an allocation rule.
func (b AllocationBasis) ValidForRule() bool {
	for _, basis := range RuleBases() {
		if b == basis {
			return true
		}
	}
	return false
}

// ValidForPool reports whether the basis may be used on a cost pool.
func (b AllocationBasis) ValidForPool() bool {
	for _, basis := range PoolBases() {
		if b == basis {
			return true
		}
	}
	return false
}

// Weighted reports whether the basis distributes by external weights looked
// up per target cost center. The formula basis is weighted, too: formula text
// is validated but never evaluated, the split uses the target weights.
func (b AllocationBasis) Weighted() bool {
	switch b {
	case BasisSquareFootage, BasisHeadcount, BasisPatientDays, BasisServiceVolume, BasisRevenue, BasisFormula:
		return true
	case BasisDirect, BasisPercentage, BasisEqual:
		return false
	}

	return false
}

func (b AllocationBasis) String() string {
	return string(b)
}

// ApprovalStatus is the workflow state of an allocation rule.
type ApprovalStatus string

const (
	ApprovalDraft    ApprovalStatus = "draft"
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether the value is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalDraft, ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

func (s ApprovalStatus) String() string {
	return string(s)
}

// BatchStatus is the lifecycle state of all journal rows of one batch.
type BatchStatus string

const (
	BatchDraft    BatchStatus = "draft"
	BatchPosted   BatchStatus = "posted"
	BatchReversed BatchStatus = "reversed"
)

// Valid reports whether the value is a known batch status.
func (s BatchStatus) Valid() bool {
	switch s {
	case BatchDraft, BatchPosted, BatchReversed:
		return true
	}
	return false
}

func (s BatchStatus) String() string {
	return string(s)
}

// MemberRole is the role of a cost center within a cost pool. The two roles
// are disjoint in use: a cost center contributes to the pool or receives from
// it, never both through the same membership.
type MemberRole string

const (
	RoleContributor MemberRole = "contributor"
	RoleTarget      MemberRole = "target"
)

// Valid reports whether the value is a known member role.
func (r MemberRole) Valid() bool {
	return r == RoleContributor || r == RoleTarget
}

func (r MemberRole) String() string {
	return string(r)
}
