// Package services orchestrates every mutation of the hierarchy through one
// pipeline: authorize the actor, validate references and payloads, apply the
// change, reindex sibling orders, record the audit entry and fan out
// notifications. Handlers stay thin; nothing writes to the stores without
// passing through here.
package services

import (
	"errors"

	"trello-project/tracking-service/errs"
)

// refError converts a missing-document lookup into an invalid reference.
// Used where the caller STATED the id as a parent or destination: a create
// under a nonexistent parent is a bad reference in the request, not a missing
// target.
func refError(err error) error {
	var e *errs.Error
	if errors.As(err, &e) && e.Kind == errs.KindNotFound {
		return errs.InvalidReference("%s", e.Message)
	}
	return err
}
