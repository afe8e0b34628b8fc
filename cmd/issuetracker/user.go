package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"issue-tracker/internal/models"
	"issue-tracker/internal/repositories"
	"issue-tracker/internal/services"
	"issue-tracker/internal/validation"
	"issue-tracker/internal/views"
)

var (
	userName     string
	userEmail    string
	userPassword string

	green = color.New(color.FgHiGreen).SprintFunc()
	cyan  = color.New(color.FgHiCyan).SprintFunc()
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, pool, err := setup(cmd)
		if err != nil {
			return err
		}
		defer pool.Close()

		auth := services.NewAuthService(repositories.NewUserRepository(pool.DB), services.AuthConfig{
			Secret:     []byte(cfg.Auth.JWTSecret),
			SessionTTL: cfg.Auth.SessionTTL,
			BCryptCost: cfg.Auth.BCryptCost,
		})
		return userCreateRun(cmd.Context(), os.Stdout, auth, flagsInput())
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, pool, err := setup(cmd)
		if err != nil {
			return err
		}
		defer pool.Close()

		users, err := services.NewUserService(repositories.NewUserRepository(pool.DB)).ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		return printUsers(os.Stdout, users)
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userName, "name", "", "Display name")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Email address used to log in")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Password (at least 8 characters)")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd, userListCmd)
	rootCmd.AddCommand(userCmd)
}

type registerInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func flagsInput() registerInput {
	return registerInput{Name: userName, Email: userEmail, Password: userPassword}
}

// userCreateRun validates the flags with the same rules as the register
// endpoint and creates the account.
func userCreateRun(ctx context.Context, w io.Writer, auth services.AuthService, input registerInput) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return err
	}

	var register validation.Register
	if verr := validation.Validate(raw, &register); verr != nil {
		msgs := make([]string, 0, len(verr.Issues()))
		for _, issue := range verr.Issues() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", strings.Join(issue.Path, "."), issue.Message))
		}
		return fmt.Errorf("invalid user: %s", strings.Join(msgs, "; "))
	}

	user, err := auth.Register(ctx, register)
	if errors.Is(err, services.ErrEmailTaken) {
		return fmt.Errorf("a user with email %s already exists", services.NormalizeEmail(input.Email))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s Created user %s (%s)\n", green("✓"), cyan(user.Email), user.ID)
	return nil
}

func printUsers(w io.Writer, users []models.User) error {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users. Use 'issuetracker user create' to add one.")
		return nil
	}

	table := tablewriter.NewTable(w, tablewriter.WithHeaderAlignment(tw.AlignLeft))
	table.Header("ID", "Name", "Email", "Created")
	for _, u := range users {
		if err := table.Append([]string{u.ID, u.Name, u.Email, u.CreatedAt.Format(views.DateLayout)}); err != nil {
			return err
		}
	}
	return table.Render()
}
