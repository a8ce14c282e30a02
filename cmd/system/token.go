package system

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	pasetotoken "github.com/Alijeyrad/teleclinic_backend/pkg/paseto"
	"github.com/Alijeyrad/teleclinic_backend/pkg/redis"
	"github.com/Alijeyrad/teleclinic_backend/pkg/reqctx"
)

// NewIssueTokenCommand mints an access token backed by a live session. Sign-in
// is handled outside this service; the command exists for operators and tests.
func NewIssueTokenCommand() *cobra.Command {
	var (
		userID string
		role   string
		name   string
		locale string
	)

	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Issue an access token for a user and register its session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			uid, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			r, err := reqctx.ParseRole(role)
			if err != nil {
				return err
			}

			mgr, err := pasetotoken.NewPasetoManager(cfg)
			if err != nil {
				return err
			}

			rdb, err := redis.NewRedisFromCentral(cfg.Redis)
			if err != nil {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			defer rdb.Close()

			sid := uuid.New()
			if err := redis.NewSessionStore(rdb).Put(cmd.Context(), sid, uid, mgr.AccessTTL()); err != nil {
				return err
			}

			tok, err := mgr.IssueAccess(pasetotoken.Subject{
				UserID:    uid,
				Role:      r.String(),
				Name:      name,
				Locale:    locale,
				SessionID: &sid,
			})
			if err != nil {
				return err
			}

			fmt.Println(tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&role, "role", string(reqctx.RolePatient), "patient, doctor or admin")
	cmd.Flags().StringVar(&name, "name", "", "display name carried in the token")
	cmd.Flags().StringVar(&locale, "locale", "", "preferred locale, fa or en")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
