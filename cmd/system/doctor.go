package system

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/internal/service/doctor"
	"github.com/Alijeyrad/teleclinic_backend/pkg/authorize"
	"github.com/Alijeyrad/teleclinic_backend/pkg/database"
	"github.com/Alijeyrad/teleclinic_backend/pkg/reqctx"
)

func NewDoctorAddCommand() *cobra.Command {
	var (
		id        string
		name      string
		specialty string
		hours     string
		duration  int
	)

	cmd := &cobra.Command{
		Use:   "doctor-add",
		Short: "Register a doctor and grant the doctor role",
		Example: `  teleclinic system doctor-add --name "Dr. Rahimi" --specialty cardiology \
    --hours '{"saturday":{"enabled":true,"start":"09:00","end":"13:00"}}' --duration 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			req := doctor.CreateRequest{
				Name:                name,
				Specialty:           specialty,
				AppointmentDuration: duration,
			}
			if id != "" {
				if req.ID, err = uuid.Parse(id); err != nil {
					return fmt.Errorf("invalid --id: %w", err)
				}
			}
			if hours != "" {
				var wh repo.WorkingHours
				if err := json.Unmarshal([]byte(hours), &wh); err != nil {
					return fmt.Errorf("invalid --hours: %w", err)
				}
				req.WorkingHours = wh
			}

			client, _, err := database.NewRepoClient(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer client.Close()

			d, err := doctor.New(client).Create(ctx, req)
			if err != nil {
				return err
			}

			authCfg := authorize.FromCentralConfig(cfg.Authorization)
			authCfg.PolicySyncEnabled = false
			auth, cleanup, err := authorize.Open(authCfg, database.NewDSN(cfg.CasbinDatabase))
			if err != nil {
				return fmt.Errorf("failed to open authorization: %w", err)
			}
			defer cleanup(context.Background())
			role, _ := authorize.RoleFor(reqctx.RoleDoctor)
			if err := authorize.AssignRole(ctx, auth, d.ID.String(), role); err != nil {
				return fmt.Errorf("failed to assign doctor role: %w", err)
			}

			fmt.Printf("Doctor %s created with id %s\n", d.Name, d.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "doctor id (defaults to a new uuid)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&specialty, "specialty", "", "medical specialty")
	cmd.Flags().StringVar(&hours, "hours", "", "weekly working hours as JSON")
	cmd.Flags().IntVar(&duration, "duration", 0, "appointment duration in minutes")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
