// Package validation checks handler parameters before anything reaches the store.
package validation

import (
	"strings"

	"github.com/google/uuid"

	"github.com/emergent-company/omviews/internal/faults"
)

// GUID checks that guid is present and well formed.
func GUID(guid, parameterName, methodName string) error {
	if strings.TrimSpace(guid) == "" {
		return faults.Invalidf("%s: %s must not be empty", methodName, parameterName)
	}
	if _, err := uuid.Parse(guid); err != nil {
		return faults.New(faults.InvalidParameter, methodName+": "+parameterName+" is not a valid GUID", err)
	}
	return nil
}

// Name checks that a name or qualified name is present.
func Name(name, parameterName, methodName string) error {
	if strings.TrimSpace(name) == "" {
		return faults.Invalidf("%s: %s must not be empty", methodName, parameterName)
	}
	return nil
}

// SearchString checks that a search string is present.
func SearchString(searchString, parameterName, methodName string) error {
	if searchString == "" {
		return faults.Invalidf("%s: %s must not be empty", methodName, parameterName)
	}
	return nil
}

// Object checks that a required properties object was supplied.
func Object(present bool, parameterName, methodName string) error {
	if !present {
		return faults.Invalidf("%s: %s must be supplied", methodName, parameterName)
	}
	return nil
}

// Paging checks the paging window and returns the effective page size.
// A page size of zero means "as many as allowed" and resolves to maxPageSize.
func Paging(startFrom, pageSize, maxPageSize int, methodName string) (int, error) {
	if startFrom < 0 {
		return 0, faults.Invalidf("%s: startFrom must not be negative, got %d", methodName, startFrom)
	}
	if pageSize < 0 {
		return 0, faults.Invalidf("%s: pageSize must not be negative, got %d", methodName, pageSize)
	}
	if maxPageSize > 0 && pageSize > maxPageSize {
		return 0, faults.Invalidf("%s: pageSize %d exceeds the maximum of %d", methodName, pageSize, maxPageSize)
	}
	if pageSize == 0 {
		return maxPageSize, nil
	}
	return pageSize, nil
}
