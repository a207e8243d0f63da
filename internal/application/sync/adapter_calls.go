package sync

import (
	"errors"
	"fmt"

	"github.com/adsync/backend/internal/domain/campaign"
)

// safeCall invokes a create/update adapter operation, converting panics
// into ordinary errors so one misbehaving adapter cannot abort the walk
// over sibling entities. Panic values that are not errors are normalized
// to the unknown-error message.
func safeCall(fn func() (*campaign.AdapterResult, error)) (res *campaign.AdapterResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = errors.New(campaign.UnknownErrorMessage)
		}
	}()
	return fn()
}

// safeDelete invokes a delete adapter operation with the same panic
// conversion as safeCall.
func safeDelete(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = errors.New(campaign.UnknownErrorMessage)
		}
	}()
	return fn()
}

// joinErrorLog renders aggregated entity errors into a sync record's
// error log field.
func joinErrorLog(errs []SyncError) string {
	if len(errs) == 0 {
		return ""
	}
	log := ""
	for i, e := range errs {
		if i > 0 {
			log += "; "
		}
		log += fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return log
}
