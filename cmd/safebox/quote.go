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
	"safeboxAdapter/internal/model"
	"safeboxAdapter/internal/plan"
	"safeboxAdapter/internal/safebox"
	"safeboxAdapter/internal/token"
)

type quoteOutput struct {
	Vault       string              `json:"vault"`
	Kind        string              `json:"kind"`
	Spender     string              `json:"spender"`
	ResultToken string              `json:"result_token"`
	Inputs      []model.QuoteRecord `json:"inputs"`
	Outputs     []model.QuoteRecord `json:"outputs,omitempty"`
	SharePrice  *model.QuoteRecord  `json:"share_price,omitempty"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if !s.adapter.IsValidTarget(ctx, s.params) {
		return fmt.Errorf("%w: %s", plan.ErrTargetRejected, s.vault.Hex())
	}

	resolver := token.NewResolver(s.chain, nil, s.logger)
	spender, err := s.adapter.GetSpender(s.params, safebox.OpEnter)
	if err != nil {
		return err
	}
	out := quoteOutput{
		Vault:       s.vault.Hex(),
		Kind:        s.adapter.Classify(s.vault).Kind.String(),
		Spender:     spender.Hex(),
		ResultToken: s.adapter.GetResultToken(s.vault).Hex(),
	}

	tokens, weights, err := s.adapter.GetInputTokensAndWeights(ctx, s.params)
	if err != nil {
		return fmt.Errorf("input tokens: %w", err)
	}
	for i, tok := range tokens {
		meta := resolver.Meta(ctx, tok)
		out.Inputs = append(out.Inputs, model.QuoteRecord{
			Token:  tok.Hex(),
			Symbol: meta.Symbol,
			Weight: weights[i].String(),
		})
	}

	if s.cfg.Shares != "" {
		shares, err := config.ParseAmount(s.cfg.Shares)
		if err != nil {
			return fmt.Errorf("shares: %w", err)
		}
		tokens, amounts, err := s.adapter.GetOutputTokensAndMinAmount(ctx, s.params, shares)
		if err != nil {
			return fmt.Errorf("output quote: %w", err)
		}
		for i, tok := range tokens {
			display, meta := resolver.Format(ctx, tok, amounts[i])
			out.Outputs = append(out.Outputs, model.QuoteRecord{
				Token:   tok.Hex(),
				Symbol:  meta.Symbol,
				Amount:  amounts[i].String(),
				Display: display,
			})
		}
	}

	if s.cfg.Denominator != "" {
		denominator, err := config.ParseAddress(s.cfg.Denominator)
		if err != nil {
			return fmt.Errorf("denominator: %w", err)
		}
		price, err := s.adapter.GetResultTokenPrice(ctx, s.params, denominator)
		if err != nil {
			return fmt.Errorf("share price: %w", err)
		}
		meta := resolver.Meta(ctx, denominator)
		out.SharePrice = &model.QuoteRecord{
			Token:   denominator.Hex(),
			Symbol:  meta.Symbol,
			Amount:  price.String(),
			Display: token.FormatAmount(price, 18),
		}
	}

	s.logger.Info("quote complete",
		zap.String("vault", out.Vault),
		zap.Int("outputs", len(out.Outputs)),
		zap.Bool("priced", out.SharePrice != nil),
	)

	return printJSON(cmd.OutOrStdout(), out)
}
