package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/core/ports"
)

func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the reviewer profile printed on reports",
	}

	cmd.AddCommand(newProfileShowCommand(rootOpts))
	cmd.AddCommand(newProfileSetCommand(rootOpts))
	cmd.AddCommand(newProfileUpgradeCommand(rootOpts))

	return cmd
}

func newProfileShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the reviewer profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(session ports.Session) error {
				return printProfile(cmd, rootOpts, session.Profile())
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newProfileSetCommand(rootOpts *RootOptions) *cobra.Command {
	var name, title, organization, signature string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update reviewer fields; omitted flags keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var update domain.ProfileUpdate
			if flags.Changed("name") {
				update.Name = &name
			}
			if flags.Changed("title") {
				update.Title = &title
			}
			if flags.Changed("organization") {
				update.Organization = &organization
			}
			if flags.Changed("signature") {
				update.SignatureText = &signature
			}
			if update == (domain.ProfileUpdate{}) {
				return NewExitError(ExitCommandError, "nothing to update: pass at least one of --name, --title, --organization, --signature")
			}

			return withSession(cmd, rootOpts, func(session ports.Session) error {
				profile, err := session.UpdateProfile(cmd.Context(), update)
				if err != nil {
					return sessionError("update profile", err)
				}
				return printProfile(cmd, rootOpts, profile)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&name, "name", "", "reviewer name")
	cmd.Flags().StringVar(&title, "title", "", "reviewer title")
	cmd.Flags().StringVar(&organization, "organization", "", "organization printed in the stamp")
	cmd.Flags().StringVar(&signature, "signature", "", "signature text")

	return cmd
}

func newProfileUpgradeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Switch to the premium upload limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(session ports.Session) error {
				profile, err := session.UpgradeToPremium(cmd.Context())
				if err != nil {
					return sessionError("upgrade", err)
				}
				return printProfile(cmd, rootOpts, profile)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func printProfile(cmd *cobra.Command, rootOpts *RootOptions, profile domain.ReviewerProfile) error {
	return newFormatter(cmd, rootOpts).print(profile, func(w io.Writer) {
		fmt.Fprintf(w, "ID:           %s\n", profile.ID)
		fmt.Fprintf(w, "Name:         %s\n", profile.Name)
		fmt.Fprintf(w, "Title:        %s\n", profile.Title)
		fmt.Fprintf(w, "Organization: %s\n", profile.Organization)
		fmt.Fprintf(w, "Signature:    %s\n", profile.SignatureText)
		fmt.Fprintf(w, "Tier:         %s\n", profile.Tier())
	})
}

func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the local profile and history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(session ports.Session) error {
				if err := session.Logout(cmd.Context(), yes); err != nil {
					return sessionError("logout", err)
				}
				return newFormatter(cmd, rootOpts).print(map[string]bool{"logged_out": true}, func(w io.Writer) {
					fmt.Fprintln(w, "Local profile and history removed.")
				})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the logout")

	return cmd
}
