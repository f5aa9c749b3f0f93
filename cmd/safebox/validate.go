package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"safeboxAdapter/internal/plan"
)

type validateOutput struct {
	Vault     string `json:"vault"`
	Kind      string `json:"kind"`
	Valid     bool   `json:"valid"`
	RateToken string `json:"rate_token,omitempty"`
}

func runValidate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out := validateOutput{
		Vault: s.vault.Hex(),
		Kind:  s.adapter.Classify(s.vault).Kind.String(),
		Valid: s.adapter.IsValidTarget(ctx, s.params),
	}
	if out.Valid {
		if rateToken, err := s.adapter.RateToken(ctx, s.vault); err == nil {
			out.RateToken = rateToken.Hex()
		}
	}

	s.logger.Info("validate complete",
		zap.String("vault", out.Vault),
		zap.String("kind", out.Kind),
		zap.Bool("valid", out.Valid),
	)

	if err := printJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if !out.Valid {
		return fmt.Errorf("%w: %s", plan.ErrTargetRejected, out.Vault)
	}
	return nil
}
