package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/petadm/internal/batch"
	clierrors "github.com/salmonumbrella/petadm/internal/errors"
	"github.com/salmonumbrella/petadm/internal/petapi"
	"github.com/salmonumbrella/petadm/internal/ui"
)

// newImportCmd builds an import command for records of type T. check
// normalizes and validates one decoded item; create sends it.
func newImportCmd[T any](entity, plural string, check func(*T) error, create func(context.Context, *petapi.Client, T) (int64, error)) *cobra.Command {
	var (
		concurrency int
		resultsPath string
		dryRun      bool
	)

	decode := func(item json.RawMessage) (T, error) {
		var in T
		if err := json.Unmarshal(item, &in); err != nil {
			return in, fmt.Errorf("invalid %s: %w", entity, err)
		}
		return in, check(&in)
	}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: fmt.Sprintf("Create %s from a JSON array or NDJSON file", plural),
		Long: fmt.Sprintf(`Create %[1]s from a JSON array or NDJSON file (one object per line).
Use - to read from stdin. Items are created concurrently; a failed item does
not stop the others. Any failure makes the command exit non-zero.

Example:
  petadm %[1]s import %[1]s.json --results results.json
  cat %[1]s.ndjson | petadm %[1]s import - --dry-run`, plural),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if concurrency < 1 {
				return &clierrors.ValidationError{Field: "concurrency", Message: "must be at least 1"}
			}

			items, err := batch.ReadItems(args[0], stdinFromContext(ctx))
			if err != nil {
				return clierrors.WrapUserError(err, "cannot read import file", "Pass a JSON array of objects or one JSON object per line")
			}

			var (
				svc *services
				fn  batch.Func
			)
			if dryRun {
				fn = func(ctx context.Context, item json.RawMessage) (int64, error) {
					_, err := decode(item)
					return 0, err
				}
			} else {
				if svc, err = servicesFromContext(ctx); err != nil {
					return err
				}
				fn = func(ctx context.Context, item json.RawMessage) (int64, error) {
					in, err := decode(item)
					if err != nil {
						return 0, err
					}
					id, err := create(ctx, svc.api, in)
					if err != nil {
						return 0, wrapAPIError(svc, err, "create "+entity, "", 0)
					}
					return id, nil
				}
			}

			results := batch.Run(ctx, items, concurrency, fn)
			summary := batch.Summarize(results)

			if resultsPath != "" {
				if err := batch.WriteResults(resultsPath, results); err != nil {
					return err
				}
			}
			if err := printerForContext(ctx).Print(ctx, results); err != nil {
				return err
			}

			u := ui.FromContext(ctx)
			switch {
			case dryRun && summary.Failed == 0:
				u.Info("[DRY-RUN] %d %s are valid; nothing was created", summary.Total, plural)
				return nil
			case summary.Failed == 0:
				u.Success("Imported %d %s", summary.Succeeded, plural)
				return nil
			case !dryRun:
				u.Warning("Imported %d of %d %s", summary.Succeeded, summary.Total, plural)
			}

			if svc != nil && svc.sessionExpired() {
				return clierrors.SessionExpiredError(fmt.Errorf("session ended during %s import", entity))
			}
			return clierrors.NewUserError(
				fmt.Sprintf("%d of %d %s failed to import", summary.Failed, summary.Total, plural),
				"Check the error column, fix those items and import them again",
			)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", batch.DefaultConcurrency, "Maximum number of create requests in flight")
	cmd.Flags().StringVar(&resultsPath, "results", "", "Also write per-item results as JSON to this file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate every item without creating anything")
	flagAlias(cmd.Flags(), "dry-run", "dr")
	return cmd
}

func newPetsImportCmd() *cobra.Command {
	return newImportCmd("pet", "pets", validatePetInput,
		func(ctx context.Context, api *petapi.Client, in petapi.PetInput) (int64, error) {
			pet, err := api.CreatePet(ctx, in)
			if err != nil {
				return 0, err
			}
			return pet.ID, nil
		})
}

func newTutoresImportCmd() *cobra.Command {
	return newImportCmd("owner", "tutores", validateTutorInput,
		func(ctx context.Context, api *petapi.Client, in petapi.TutorInput) (int64, error) {
			tutor, err := api.CreateTutor(ctx, in)
			if err != nil {
				return 0, err
			}
			return tutor.ID, nil
		})
}
