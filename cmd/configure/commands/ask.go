package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/benvon/twin-insights/internal/config"
	"github.com/benvon/twin-insights/internal/database"
	"github.com/benvon/twin-insights/internal/insights"
	"github.com/benvon/twin-insights/internal/logger"
	"github.com/benvon/twin-insights/internal/models"
	"github.com/benvon/twin-insights/internal/services/ai"
	"github.com/benvon/twin-insights/internal/session"
)

const chartWidth = 30

// NewAskCmd creates the ask command: an interactive question session in the terminal
func NewAskCmd() *cobra.Command {
	var (
		product string
		debug   bool
	)
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Run an interactive question session against the twin profiles",
		Long: "Select a product and ask questions as the web demo does, with the same quota. " +
			"Type /reset to start over and /quit to exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.New(true, debug || cfg.ServerDebugMode)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = logger.Sync(log) }()

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer func() { _ = db.Close() }()

			provider, err := ai.NewDefaultRegistry(cmd.Context(), log, debug).GetProvider(cfg.AIProvider, map[string]string{
				"api_key":  cfg.APIKey(),
				"model":    cfg.AIModel,
				"base_url": cfg.AIBaseURL,
			})
			if err != nil {
				return fmt.Errorf("create %s provider: %w", cfg.AIProvider, err)
			}
			if closer, ok := provider.(io.Closer); ok {
				defer func() { _ = closer.Close() }()
			}

			repo := database.NewProfileRepository(db,
				database.WithRelevanceFields(database.ParseRelevanceFields(cfg.ProfileRelevanceFields)),
				database.WithScanWindow(cfg.ProfileScanWindow),
				database.WithFallbackToAnyActive(cfg.ProfileFallbackAnyActive),
			)
			gen := insights.NewGenerator(repo, provider, log,
				insights.WithProfileLimit(cfg.ProfileLimit),
				insights.WithMaxTokens(cfg.AIMaxTokens),
			)
			ctrl := session.NewController(uuid.New(), gen, cfg.SessionQuota, log)
			return runSession(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), ctrl, product)
		},
	}
	cmd.Flags().StringVar(&product, "product", "", "Product to research (prompted when empty)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Log LLM requests and responses")
	return cmd
}

// runSession drives ctrl from line-oriented input until EOF or /quit
func runSession(ctx context.Context, in io.Reader, out io.Writer, ctrl *session.Controller, product string) error {
	scanner := bufio.NewScanner(in)
	printed := 0

	flush := func(st session.State) {
		for _, m := range st.Messages[min(printed, len(st.Messages)):] {
			printMessage(out, m)
		}
		printed = len(st.Messages)
	}

	selectProduct := func(raw string) bool {
		if _, err := ctrl.Select(raw); err != nil {
			fmt.Fprintf(out, "Unknown product %q.\n", raw)
			return false
		}
		st, err := ctrl.Confirm()
		if err != nil {
			return false
		}
		printed = 0
		flush(st)
		printSuggestions(out, st.Product)
		return true
	}

	promptProduct := func() {
		fmt.Fprint(out, "Choose a product (")
		for i, p := range models.Products() {
			if i > 0 {
				fmt.Fprint(out, ", ")
			}
			fmt.Fprint(out, p.ID)
		}
		fmt.Fprintln(out, "):")
	}

	if product == "" || !selectProduct(product) {
		promptProduct()
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/reset":
			ctrl.Reset()
			printed = 0
			promptProduct()
			continue
		}

		st := ctrl.State()
		if st.Phase == session.PhaseIdle {
			if !selectProduct(line) {
				promptProduct()
			}
			continue
		}

		st, err := ctrl.Submit(ctx, line)
		if err != nil {
			if st.Phase == session.PhaseQuotaExhausted {
				fmt.Fprintln(out, "Question quota reached. Type /reset to start over.")
			} else {
				fmt.Fprintln(out, "That question was not accepted.")
			}
			continue
		}
		// the user's own line is already on screen
		printed++
		flush(st)
		fmt.Fprintf(out, "[%d/%d questions used]\n", st.Count, st.Quota)
		if st.Phase == session.PhaseQuotaExhausted {
			fmt.Fprintln(out, "Question quota reached. Type /reset to start over.")
		}
	}
	return scanner.Err()
}

func printMessage(w io.Writer, m models.Message) {
	switch {
	case m.Role == models.RoleUser:
		fmt.Fprintf(w, "> %s\n", m.Content)
	case m.Survey != nil:
		fmt.Fprintln(w)
		_ = insights.RenderText(w, *m.Survey, chartWidth)
		fmt.Fprintln(w)
	default:
		fmt.Fprintf(w, "\n%s\n\n", m.Content)
	}
}

func printSuggestions(w io.Writer, p models.Product) {
	fmt.Fprintln(w, "Suggested questions:")
	for _, q := range p.SuggestedQuestions() {
		fmt.Fprintf(w, "  - %s\n", q)
	}
}
