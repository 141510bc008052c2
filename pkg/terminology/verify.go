package terminology

import (
	"context"
	"errors"

	"github.com/gofhir/valuesets/pkg/emitter"
	"github.com/gofhir/valuesets/pkg/issue"
	"github.com/gofhir/valuesets/pkg/referential"
)

// Verify checks that every code aggregated in acc is a member of the ValueSet
// emitted for its group, with the same display. Findings are added to res as
// warnings. Only a cancelled ctx or an unexpected lookup failure is returned.
func Verify(ctx context.Context, svc *Service, acc *referential.Accumulator, infos []emitter.Info, res *issue.Result) error {
	for _, info := range infos {
		group, ok := acc.Group(referential.Key{System: info.System, Path: info.Path})
		if !ok {
			continue
		}

		includes, err := svc.Includes(info.URL)
		if errors.Is(err, ErrValueSetNotFound) {
			res.AddWithID(issue.DiagValueSetNotFound, map[string]any{
				"valueSet": info.URL,
				"path":     info.Path,
			}, info.Filename)
			continue
		}
		if err != nil {
			return err
		}
		if len(includes) != 1 || includes[0] != info.CodeSystemURL {
			res.AddWithID(issue.DiagCodeSystemURLMismatch, map[string]any{
				"valueSet":   info.URL,
				"included":   includes,
				"codeSystem": info.CodeSystemURL,
			}, info.Filename)
		}

		for _, concept := range group.Concepts() {
			result, err := svc.ValidateCode(ctx, info.CodeSystemURL, concept.Code, info.URL)
			if err != nil {
				return err
			}
			if !result.Valid {
				res.AddWithID(issue.DiagCodeNotInValueSet, map[string]any{
					"code":     concept.Code,
					"valueSet": info.URL,
				}, info.Path)
				continue
			}
			if concept.Display != nil && result.Display != *concept.Display {
				res.AddWithID(issue.DiagDisplayMismatch, map[string]any{
					"code":     concept.Code,
					"provided": *concept.Display,
					"expected": result.Display,
				}, info.Path)
			}
		}
	}
	return nil
}
