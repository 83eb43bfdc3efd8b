package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eventsphere/api/internal/app"
	"github.com/eventsphere/api/internal/config"
	"github.com/eventsphere/api/internal/model"
	"github.com/eventsphere/api/internal/service"
)

// Roles are scoped to events, so the first administrator is attached to a
// draft bootstrap event that can be renamed or rescheduled later.
const bootstrapEventTitle = "Bootstrap Event"

// bootstrapActor is recorded as the actor of cleanup deletes
const bootstrapActor = "bootstrap-admin"

// bootstrap creates the administrator, then the bootstrap event, then grants
// the admin role. A failure after the user exists removes what was created so
// a rerun starts clean.
func bootstrap(ctx context.Context, events *service.EventService, users *service.UserService, req *model.CreateUserRequest, now time.Time) (*model.User, *model.Event, error) {
	user, err := users.CreateUser(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	event, err := events.CreateEvent(ctx, &model.CreateEventRequest{
		Title:     bootstrapEventTitle,
		StartDate: now.Add(24 * time.Hour),
		EndDate:   now.Add(7 * 24 * time.Hour),
		Status:    model.EventStatusDraft,
	})
	if err != nil {
		_, _ = users.DeleteUser(ctx, bootstrapActor, user.ID)
		return nil, nil, fmt.Errorf("create bootstrap event: %w", err)
	}

	if _, err := events.AddMember(ctx, event.ID, &model.AddMemberRequest{
		UserID: user.ID,
		Role:   model.RoleAdmin,
	}, user.ID); err != nil {
		_, _ = events.DeleteEvent(ctx, event.ID, bootstrapActor)
		_, _ = users.DeleteUser(ctx, bootstrapActor, user.ID)
		return nil, nil, fmt.Errorf("grant admin role: %w", err)
	}

	return user, event, nil
}

func main() {
	var (
		email      string
		name       string
		password   string
		issueToken bool
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:          "bootstrap-admin",
		Short:        "Create the first administrator account",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger, logFile, err := app.NewLogger("warn", "", time.Now())
			if err != nil {
				return err
			}
			defer func() { _ = logFile.Close() }()

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			user, event, err := bootstrap(ctx, a.Events, a.Users, &model.CreateUserRequest{
				Name:     name,
				Email:    email,
				Password: password,
			}, time.Now())
			if err != nil {
				return err
			}

			var token string
			if issueToken {
				token, err = a.Tokens.Issue(user.ID, user.Email)
				if err != nil {
					return fmt.Errorf("sign token: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				output := map[string]any{
					"user_id":  user.ID,
					"email":    user.Email,
					"event_id": event.ID,
					"role":     model.RoleAdmin,
				}
				if token != "" {
					output["access_token"] = token
					output["token_type"] = "Bearer"
					output["expires_in"] = int(a.Tokens.GetExpiration().Seconds())
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(output)
			}

			fmt.Fprintln(out, "Administrator Created")
			fmt.Fprintln(out, "=====================")
			fmt.Fprintf(out, "User ID:  %s\n", user.ID)
			fmt.Fprintf(out, "Email:    %s\n", user.Email)
			fmt.Fprintf(out, "Event ID: %s\n", event.ID)
			fmt.Fprintf(out, "Role:     %s\n", model.RoleAdmin)
			if token != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Token:")
				fmt.Fprintln(out, token)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "administrator email")
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().BoolVar(&issueToken, "token", false, "also print a signed access token")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
