package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"todopro/internal/service"
)

const superuserPasswordEnv = "TODOPRO_SUPERUSER_PASSWORD"

var superuserFlags service.SuperuserInput

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create an administrator account",
	Long: `Create an administrator account together with its profile.

The password may be given with --password or through ` + superuserPasswordEnv + `.`,
	RunE: runCreateSuperuser,
}

func init() {
	createSuperuserCmd.Flags().StringVar(&superuserFlags.Username, "username", "", "administrator username")
	createSuperuserCmd.Flags().StringVar(&superuserFlags.Email, "email", "", "administrator email")
	createSuperuserCmd.Flags().StringVar(&superuserFlags.Password, "password", "", "administrator password")
	_ = createSuperuserCmd.MarkFlagRequired("username")
}

func runCreateSuperuser(cmd *cobra.Command, args []string) error {
	input := superuserFlags
	if input.Password == "" {
		input.Password = os.Getenv(superuserPasswordEnv)
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	user, err := app.accounts.CreateSuperuser(cmd.Context(), input)
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		for field, msg := range verr.Fields {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, msg)
		}
		return errors.New("superuser not created")
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Superuser %q created (id %d).\n", user.Username, user.ID)
	return nil
}
