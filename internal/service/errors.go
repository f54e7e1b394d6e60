package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"
)

// --- Error Definitions ---
var (
	ErrAccessInactive      = errors.New("training area is not active for this account")
	ErrForbidden           = errors.New("resource belongs to another user")
	ErrDuplicateAssignment = errors.New("client already has a plan with identical content")
	ErrDuplicateRequest    = errors.New("an access request is already pending")
)

// persistFailure logs a storage failure with its context and wraps it in a
// PersistenceError. Validation, not-found and cancellation errors pass
// through unchanged.
func persistFailure(component, action string, err error, ids map[string]string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	ev := log.Error().Err(err).Str("component", component).Str("action", action)
	for k, v := range ids {
		ev = ev.Str(k, v)
	}
	ev.Msg("persistence failure")
	return &domain.PersistenceError{Component: component, Action: action, IDs: ids, Err: err}
}

// fromRepo maps repository.ErrNotFound to a NotFoundError for resource and
// everything else through persistFailure.
func fromRepo(component, action, resource string, id primitive.ObjectID, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.NotFoundError{Resource: resource, ID: id.Hex()}
	}
	return persistFailure(component, action, err, map[string]string{resource + "Id": id.Hex()})
}
