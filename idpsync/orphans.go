package idpsync

import (
	"context"

	"github.com/gravitl/usersync/schema"
	"github.com/samber/lo"
)

// FindOrphans returns the linked local users whose external id is not in
// remoteIDs. An incomplete remote set never yields orphans.
func FindOrphans(ctx context.Context, store Store, remoteIDs map[string]struct{}, complete bool) ([]schema.User, error) {
	if !complete {
		return nil, ErrIncompleteFetch
	}
	linked, err := store.ListLinked(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(linked, func(user schema.User, _ int) bool {
		externalID := user.GetExternalID()
		if externalID == "" {
			return false
		}
		_, present := remoteIDs[externalID]
		return !present
	}), nil
}
