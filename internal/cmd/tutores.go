package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/petadm/internal/cmdutil"
	"github.com/salmonumbrella/petadm/internal/petapi"
	"github.com/salmonumbrella/petadm/internal/ui"
	"github.com/salmonumbrella/petadm/internal/validate"
)

func newTutoresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tutores",
		Aliases: []string{"tutor", "owners"},
		Short:   "Manage owners (tutores)",
	}

	cmd.AddCommand(newTutoresListCmd())
	cmd.AddCommand(newTutoresGetCmd())
	cmd.AddCommand(newTutoresCreateCmd())
	cmd.AddCommand(newTutoresUpdateCmd())
	cmd.AddCommand(newTutoresDeleteCmd())
	cmd.AddCommand(newTutoresUploadPhotoCmd())
	cmd.AddCommand(newTutoresLinkCmd())
	cmd.AddCommand(newTutoresUnlinkCmd())
	cmd.AddCommand(newTutoresImportCmd())

	return cmd
}

func newTutoresListCmd() *cobra.Command {
	var opts petapi.ListOptions

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List owners",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := validateListOptions(opts); err != nil {
				return err
			}
			svc, err := servicesFromContext(ctx)
			if err != nil {
				return err
			}

			page, err := svc.api.ListTutores(ctx, opts)
			if err != nil {
				return wrapAPIError(svc, err, "list owners", "", 0)
			}
			return printerForContext(ctx).Print(ctx, page)
		},
	}

	cmd.Flags().StringVar(&opts.Nome, "nome", "", "Filter by name")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "Page number (zero-based)")
	cmd.Flags().IntVar(&opts.Size, "size", 0, "Page size (server default when 0)")
	return cmd
}

func newTutoresGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an owner and their pets",
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

			tutor, err := svc.api.GetTutor(ctx, id)
			if err != nil {
				return wrapAPIError(svc, err, "get owner", "tutor", id)
			}
			return printerForContext(ctx).Print(ctx, tutor)
		},
	}
}

type tutorFlags struct {
	nome     string
	email    string
	telefone string
	endereco string
	cpf      string
	data     string
}

func (f *tutorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.nome, "nome", "", "Full name")
	cmd.Flags().StringVar(&f.email, "email", "", "Email address")
	cmd.Flags().StringVar(&f.telefone, "telefone", "", "Phone number")
	cmd.Flags().StringVar(&f.endereco, "endereco", "", "Postal address")
	cmd.Flags().StringVar(&f.cpf, "cpf", "", "CPF (taxpayer id)")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "Owner as JSON (inline, @file, or - for stdin)")
}

func (f *tutorFlags) apply(cmd *cobra.Command, in *petapi.TutorInput) error {
	if f.data != "" {
		if err := cmdutil.UnmarshalJSONInput(f.data, stdinFromContext(cmd.Context()), in); err != nil {
			return err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("nome") {
		in.Nome = f.nome
	}
	if flags.Changed("email") {
		in.Email = f.email
	}
	if flags.Changed("telefone") {
		in.Telefone = f.telefone
	}
	if flags.Changed("endereco") {
		in.Endereco = f.endereco
	}
	if flags.Changed("cpf") {
		in.CPF = f.cpf
	}

	return validateTutorInput(in)
}

func validateTutorInput(in *petapi.TutorInput) error {
	in.Nome = strings.TrimSpace(in.Nome)
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.NonEmpty("nome", in.Nome); err != nil {
		return err
	}
	if err := validate.Email("email", in.Email); err != nil {
		return err
	}
	return validate.CPF("cpf", in.CPF)
}

func newTutoresCreateCmd() *cobra.Command {
	var f tutorFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an owner",
		Long: `Create an owner from flags or a JSON body.

Example:
  petadm tutores create --nome "Ana Souza" --telefone "(65) 99999-0000"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var in petapi.TutorInput
			if err := f.apply(cmd, &in); err != nil {
				return err
			}
			svc, err := servicesFromContext(ctx)
			if err != nil {
				return err
			}

			tutor, err := svc.api.CreateTutor(ctx, in)
			if err != nil {
				return wrapAPIError(svc, err, "create owner", "", 0)
			}
			ui.FromContext(ctx).Success("Created owner %d", tutor.ID)
			return printerForContext(ctx).Print(ctx, tutor)
		},
	}

	f.register(cmd)
	return cmd
}

func newTutoresUpdateCmd() *cobra.Command {
	var f tutorFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an owner",
		Long:  `Update an owner. Fields not given keep their current value.`,
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

			current, err := svc.api.GetTutor(ctx, id)
			if err != nil {
				return wrapAPIError(svc, err, "get owner", "tutor", id)
			}
			in := petapi.TutorInput{
				Nome:     current.Nome,
				Email:    current.Email,
				Telefone: current.Telefone,
				Endereco: current.Endereco,
				CPF:      current.CPF,
			}
			if err := f.apply(cmd, &in); err != nil {
				return err
			}

			tutor, err := svc.api.UpdateTutor(ctx, id, in)
			if err != nil {
				return wrapAPIError(svc, err, "update owner", "tutor", id)
			}
			ui.FromContext(ctx).Success("Updated owner %d", id)
			return printerForContext(ctx).Print(ctx, tutor)
		},
	}

	f.register(cmd)
	return cmd
}

func newTutoresDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an owner",
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

			if err := svc.api.DeleteTutor(ctx, id); err != nil {
				return wrapAPIError(svc, err, "delete owner", "tutor", id)
			}
			return printerForContext(ctx).Print(ctx, deletedResult("tutor", id))
		},
	}
}

func newTutoresUploadPhotoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload-photo <id> <file>",
		Short: "Attach a photo to an owner",
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

			foto, err := svc.api.UploadTutorPhoto(ctx, id, photo, photo.name, photo.contentType)
			if err != nil {
				return wrapAPIError(svc, err, "upload owner photo", "tutor", id)
			}
			ui.FromContext(ctx).Success("Uploaded %s", photo.name)
			return printerForContext(ctx).Print(ctx, foto)
		},
	}
}

func newTutoresLinkCmd() *cobra.Command {
	return newTutorPetLinkCmd("link", "Link a pet to an owner", true)
}

func newTutoresUnlinkCmd() *cobra.Command {
	return newTutorPetLinkCmd("unlink", "Unlink a pet from an owner", false)
}

func newTutorPetLinkCmd(use, short string, link bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id> <pet-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := cmdutil.ParseID("id", args[0])
			if err != nil {
				return err
			}
			petID, err := cmdutil.ParseID("pet-id", args[1])
			if err != nil {
				return err
			}
			svc, err := servicesFromContext(ctx)
			if err != nil {
				return err
			}

			status := "linked"
			if link {
				err = svc.api.LinkPet(ctx, id, petID)
			} else {
				status = "unlinked"
				err = svc.api.UnlinkPet(ctx, id, petID)
			}
			if err != nil {
				return wrapAPIError(svc, err, use+" pet", "tutor", id)
			}
			return printerForContext(ctx).Print(ctx, map[string]interface{}{
				"status":   status,
				"tutor_id": id,
				"pet_id":   petID,
			})
		},
	}
}
