package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"safeboxAdapter/internal/config"
	"safeboxAdapter/internal/plan"
)

func runPlan(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	amount, err := config.ParseAmount(s.cfg.Amount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}

	planner := plan.NewPlanner(s.adapter, s.logger)

	var result plan.Result
	switch s.cfg.Op {
	case "enter":
		result, err = planner.Enter(ctx, s.params, amount)
	case "exit":
		result, err = planner.Exit(ctx, s.params, amount)
	default:
		return fmt.Errorf("unsupported op: %s", s.cfg.Op)
	}
	if err != nil {
		return err
	}

	s.logger.Info("plan complete",
		zap.String("vault", result.Vault),
		zap.String("op", result.Op),
		zap.String("kind", result.Kind),
		zap.Int("calls", len(result.Calls)),
	)

	return printJSON(cmd.OutOrStdout(), result)
}
