package engine

import "github.com/lmazure/GitLabInjector/pkg/registry"

// resolveOptional resolves an optional symbolic reference. An absent
// reference resolves to absent without a warning. A present but unregistered
// id records one unresolved-reference warning and resolves to absent; the
// referencing entity is still created without it.
func (in *injector) resolveOptional(kind registry.Kind, id string) string {
	if id == "" {
		return ""
	}
	remoteID, err := in.reg.Resolve(kind, id)
	if err != nil {
		in.report.warn(err.Error())
		in.log.Warn(err.Error())
		return ""
	}
	return remoteID
}

// resolveEach resolves a set-valued reference element by element, dropping
// unresolvable ids individually (one warning per miss) and preserving the
// order of the rest.
func (in *injector) resolveEach(kind registry.Kind, ids []string) []string {
	var remoteIDs []string
	for _, id := range ids {
		if remoteID := in.resolveOptional(kind, id); remoteID != "" {
			remoteIDs = append(remoteIDs, remoteID)
		}
	}
	return remoteIDs
}
