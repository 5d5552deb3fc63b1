package main

import (
	"errors"

	auth "storefront/internal/usecase/auth_usecase"

	"github.com/spf13/cobra"
)

var (
	seedAdminName     string
	seedAdminEmail    string
	seedAdminPassword string
)

// 最初の管理者を作る（APIからはADMINを作れない）
var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedAdminEmail == "" || seedAdminPassword == "" {
			return errors.New("--email and --password are required")
		}

		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		uc := auth.NewRegisterUserUsecase(a.repos.Users, auth.NewBcryptPasswordHasher(12), &uuidGenerator{}, &realClock{})
		out, err := uc.ExecuteAdmin(cmd.Context(), auth.RegisterUserInput{
			Name:     seedAdminName,
			Email:    seedAdminEmail,
			Password: seedAdminPassword,
		})
		if err != nil {
			return err
		}
		cmd.Printf("admin created: id=%s email=%s\n", out.User.ID, out.User.Email)
		return nil
	},
}

func init() {
	seedAdminCmd.Flags().StringVar(&seedAdminName, "name", "admin", "Display name")
	seedAdminCmd.Flags().StringVar(&seedAdminEmail, "email", "", "Login email")
	seedAdminCmd.Flags().StringVar(&seedAdminPassword, "password", "", "Login password (min 8 chars)")
}
