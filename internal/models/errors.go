package models

import (
	"errors"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")
)

// Errors for specific resources. The database callbacks in database.go
// translate constraint violations into these so that API consumers get a
// message they can act on.
var (
	ErrCostCenterCodeNotUnique  = errors.New("the cost center code is already in use")
	ErrRuleCodeNotUnique        = errors.New("the allocation rule code is already in use")
	ErrPoolCodeNotUnique        = errors.New("the cost pool code is already in use")
	ErrBasisWeightNotUnique     = errors.New("a weight for this cost center and basis already exists")
	ErrCostCenterIsOwnParent    = errors.New("a cost center cannot be its own parent")
	ErrCostCenterCycle          = errors.New("a cost center cannot be moved below one of its own descendants")
	ErrCostCenterHasChildren    = errors.New("a cost center with children cannot be deleted")
	ErrCostCenterHasJournals    = errors.New("a cost center with allocation history cannot be deleted")
	ErrSourceEqualsTarget       = errors.New("the source cost center cannot also be an allocation target")
	ErrInvalidBasis             = errors.New("the allocation basis is not valid for this resource")
	ErrInvalidApprovalState     = errors.New("this approval transition is not allowed")
	ErrInvalidMemberRole        = errors.New("the cost pool member role must be contributor or target")
	ErrEffectiveWindowBackwards = errors.New("the effective end date cannot be before the effective start date")
)
