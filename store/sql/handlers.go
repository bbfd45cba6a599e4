package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// keyedRecord is a bun model addressed by a string "id" primary key.
type keyedRecord[R any] interface {
	*R
	primaryKey() *string
}

func (r *leadRecord) primaryKey() *string     { return &r.ID }
func (r *companyRecord) primaryKey() *string  { return &r.ID }
func (r *activityRecord) primaryKey() *string { return &r.ID }

func leadHandlers() repository.ModelHandlers[*leadRecord] {
	return keyedHandlers[leadRecord]()
}

func companyHandlers() repository.ModelHandlers[*companyRecord] {
	return keyedHandlers[companyRecord]()
}

func activityHandlers() repository.ModelHandlers[*activityRecord] {
	return keyedHandlers[activityRecord]()
}

func keyedHandlers[R any, P keyedRecord[R]]() repository.ModelHandlers[P] {
	key := func(record P) string {
		if record == nil {
			return ""
		}
		return strings.TrimSpace(*record.primaryKey())
	}
	return repository.ModelHandlers[P]{
		NewRecord: func() P {
			return P(new(R))
		},
		GetID: func(record P) uuid.UUID {
			return parseUUID(key(record))
		},
		SetID: func(record P, id uuid.UUID) {
			if record == nil {
				return
			}
			*record.primaryKey() = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: key,
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
