package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Amund211/numberclassifier/internal/adapters/cache"
	"github.com/Amund211/numberclassifier/internal/adapters/factprovider"
	"github.com/Amund211/numberclassifier/internal/domain"
	"github.com/Amund211/numberclassifier/internal/logging"
	"github.com/Amund211/numberclassifier/internal/ports"
	"github.com/Amund211/numberclassifier/internal/ratelimiting"
	"github.com/spf13/cobra"
)

type result struct {
	Number     int64    `json:"number"`
	IsPrime    bool     `json:"is_prime"`
	IsPerfect  bool     `json:"is_perfect"`
	Properties []string `json:"properties"`
	DigitSum   int      `json:"digit_sum"`
	FunFact    string   `json:"fun_fact,omitempty"`
}

type factSource interface {
	GetOrFetchWait(ctx context.Context, number int64) (string, domain.FactOrigin)
}

func rootCmd() *cobra.Command {
	var (
		fetch   bool
		source  string
		timeout time.Duration
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "classify [numbers...]",
		Short: "Classify integers",
		Long:  "Print primality, perfection, armstrong/parity properties and digit sum for each number, optionally with a fun fact",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelInfo
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			ctx := logging.AddToContext(cmd.Context(), logger)

			var facts factSource
			if fetch {
				provider, err := factprovider.NewNumbersAPI(
					&http.Client{},
					ratelimiting.NewUnlimitedRequestLimiter(),
					source,
					timeout,
					time.Now,
				)
				if err != nil {
					return fmt.Errorf("create fact provider: %w", err)
				}
				factCache := cache.NewFactCache(provider, cache.WithUnboundedStore())
				defer factCache.Close()
				facts = factCache
			}

			return classifyAll(ctx, cmd.OutOrStdout(), facts, args)
		},
	}

	cmd.Flags().BoolVar(&fetch, "fetch", false, "Fetch a fun fact for each number")
	cmd.Flags().StringVar(&source, "source", "http://numbersapi.com", "Base URL of the fact source")
	cmd.Flags().DurationVar(&timeout, "timeout", 300*time.Millisecond, "Timeout for each fact request")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log fact requests")

	return cmd
}

// classifyAll writes one JSON line per argument. facts may be nil.
func classifyAll(ctx context.Context, w io.Writer, facts factSource, args []string) error {
	numbers := make([]int64, 0, len(args))
	for _, arg := range args {
		number, ok := ports.ParseNumber(arg)
		if !ok {
			return fmt.Errorf("invalid number %q", arg)
		}
		numbers = append(numbers, number)
	}

	encoder := json.NewEncoder(w)
	for _, number := range numbers {
		classification := domain.Classify(number)
		out := result{
			Number:     classification.Number,
			IsPrime:    classification.IsPrime,
			IsPerfect:  classification.IsPerfect,
			Properties: classification.Properties,
			DigitSum:   classification.DigitSum,
		}
		if facts != nil {
			out.FunFact, _ = facts.GetOrFetchWait(ctx, number)
		}
		if err := encoder.Encode(out); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}
