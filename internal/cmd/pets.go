package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/petadm/internal/cmdutil"
	"github.com/salmonumbrella/petadm/internal/petapi"
	"github.com/salmonumbrella/petadm/internal/ui"
	"github.com/salmonumbrella/petadm/internal/validate"
)

func newPetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pets",
		Aliases: []string{"pet"},
		Short:   "Manage pets",
	}

	cmd.AddCommand(newPetsListCmd())
	cmd.AddCommand(newPetsGetCmd())
	cmd.AddCommand(newPetsCreateCmd())
	cmd.AddCommand(newPetsUpdateCmd())
	cmd.AddCommand(newPetsDeleteCmd())
	cmd.AddCommand(newPetsUploadPhotoCmd())
	cmd.AddCommand(newPetsDeletePhotoCmd())
	cmd.AddCommand(newPetsImportCmd())

	return cmd
}

func newPetsListCmd() *cobra.Command {
	var opts petapi.ListOptions

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List pets",
		Long: `List pets, optionally filtered by name and breed.

Pages are zero-based.

Example:
  petadm pets list --nome rex --page 0 --size 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := validateListOptions(opts); err != nil {
				return err
			}
			svc, err := servicesFromContext(ctx)
			if err != nil {
				return err
			}

			page, err := svc.api.ListPets(ctx, opts)
			if err != nil {
				return wrapAPIError(svc, err, "list pets", "", 0)
			}
			return printerForContext(ctx).Print(ctx, page)
		},
	}

	cmd.Flags().StringVar(&opts.Nome, "nome", "", "Filter by name")
	cmd.Flags().StringVar(&opts.Raca, "raca", "", "Filter by breed")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "Page number (zero-based)")
	cmd.Flags().IntVar(&opts.Size, "size", 0, "Page size (server default when 0)")
	return cmd
}

func newPetsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a pet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := cmdutil.ParseID("id", args[0])
			if err != nil {
				return err
			}
			svc, err := servicesFromContext(ctx)
			if err != nil {
				return err
			}

			pet, err := svc.api.GetPet(ctx, id)
			if err != nil {
				return wrapAPIError(svc, err, "get pet", "pet", id)
			}
			return printerForContext(ctx).Print(ctx, pet)
		},
	}
}

// petFlags are the editable pet fields.
type petFlags struct {
	nome  string
	raca  string
	idade int
	data  string
}

func (f *petFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.nome, "nome", "", "Name")
	cmd.Flags().StringVar(&f.raca, "raca", "", "Breed")
	cmd.Flags().IntVar(&f.idade, "idade", 0, "Age in years")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "Pet as JSON (inline, @file, or - for stdin)")
}

// apply overlays --data, then every flag set on the command line, onto in.
func (f *petFlags) apply(cmd *cobra.Command, in *petapi.PetInput) error {
	if f.data != "" {
		if err := cmdutil.UnmarshalJSONInput(f.data, stdinFromContext(cmd.Context()), in); err != nil {
			return err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("nome") {
		in.Nome = f.nome
	}
	if flags.Changed("raca") {
		in.Raca = f.raca
	}
	if flags.Changed("idade") {
		in.Idade = f.idade
	}
	return validatePetInput(in)
}

func validatePetInput(in *petapi.PetInput) error {
	in.Nome = strings.TrimSpace(in.Nome)
	in.Raca = strings.TrimSpace(in.Raca)
	if err := validate.NonEmpty("nome", in.Nome); err != nil {
		return err
	}
	return validate.NonNegative("idade", in.Idade)
}

func newPetsCreateCmd() *cobra.Command {
	var f petFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pet",
		Long: `Create a pet from flags or a JSON body.

Example:
  petadm pets create --nome Rex --raca Labrador --idade 3
  petadm pets create --data @rex.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var in petapi.PetInput
			if err := f.apply(cmd, &in); err != nil {
				return err
			}
			svc, err := servicesFromContext(ctx)
			if err != nil {
				return err
			}

			pet, err := svc.api.CreatePet(ctx, in)
			if err != nil {
				return wrapAPIError(svc, err, "create pet", "", 0)
			}
			ui.FromContext(ctx).Success("Created pet %d", pet.ID)
			return printerForContext(ctx).Print(ctx, pet)
		},
	}

	f.register(cmd)
	return cmd
}

func newPetsUpdateCmd() *cobra.Command {
	var f petFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a pet",
		Long: `Update a pet. Fields not given keep their current value.

Example:
  petadm pets update 12 --idade 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := cmdutil.ParseID("id", args[0])
			if err != nil {
				return err
			}
			svc, err := servicesFromContext(ctx)
			if err != nil {
				return err
			}

			current, err := svc.api.GetPet(ctx, id)
			if err != nil {
				return wrapAPIError(svc, err, "get pet", "pet", id)
			}
			in := petapi.PetInput{Nome: current.Nome, Raca: current.Raca, Idade: current.Idade}
			if err := f.apply(cmd, &in); err != nil {
				return err
			}

			pet, err := svc.api.UpdatePet(ctx, id, in)
			if err != nil {
				return wrapAPIError(svc, err, "update pet", "pet", id)
			}
			ui.FromContext(ctx).Success("Updated pet %d", id)
			return printerForContext(ctx).Print(ctx, pet)
		},
	}

	f.register(cmd)
	return cmd
}

func newPetsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a pet",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := cmdutil.ParseID("id", args[0])
			if err != nil {
				return err
			}
			svc, err := servicesFromContext(ctx)
			if err != nil {
				return err
			}

			if err := svc.api.DeletePet(ctx, id); err != nil {
				return wrapAPIError(svc, err, "delete pet", "pet", id)
			}
			return printerForContext(ctx).Print(ctx, deletedResult("pet", id))
		},
	}
}

func newPetsUploadPhotoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload-photo <id> <file>",
		Short: "Attach a photo to a pet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := cmdutil.ParseID("id", args[0])
			if err != nil {
				return err
			}
			photo, err := openPhoto(args[1])
			if err != nil {
				return err
			}
			defer func() { _ = photo.Close() }()

			svc, err := servicesFromContext(ctx)
			if err != nil {
				return err
			}

			foto, err := svc.api.UploadPetPhoto(ctx, id, photo, photo.name, photo.contentType)
			if err != nil {
				return wrapAPIError(svc, err, "upload pet photo", "pet", id)
			}
			ui.FromContext(ctx).Success("Uploaded %s", photo.name)
			return printerForContext(ctx).Print(ctx, foto)
		},
	}
}

func newPetsDeletePhotoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-photo <id> <photo-id>",
		Short: "Remove a photo from a pet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := cmdutil.ParseID("id", args[0])
			if err != nil {
				return err
			}
			fotoID, err := cmdutil.ParseID("photo-id", args[1])
			if err != nil {
				return err
			}
			svc, err := servicesFromContext(ctx)
			if err != nil {
				return err
			}

			if err := svc.api.DeletePetPhoto(ctx, id, fotoID); err != nil {
				return wrapAPIError(svc, err, "delete pet photo", "pet", id)
			}
			return printerForContext(ctx).Print(ctx, deletedResult("foto", fotoID))
		},
	}
}
