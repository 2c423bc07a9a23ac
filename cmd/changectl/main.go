package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"change-intake-service/internal/dto"
	"change-intake-service/internal/formrules"
	"change-intake-service/internal/metrics"
	"change-intake-service/internal/ruleset"
	"change-intake-service/internal/service"
)

// errBlocking is returned by validate when the values cannot be submitted.
var errBlocking = errors.New("blocking validation issues")

// cli carries the state shared by all commands.
type cli struct {
	verbose   bool
	rulesPath string

	logger *zap.Logger
	store  *ruleset.Store
	forms  service.FormService
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errBlocking) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "changectl",
		Short: "Classify, inspect and validate change intake forms",
		Long: `changectl runs the change intake rule engine offline.

Every command prints JSON. validate exits with status 1 when the values
contain blocking issues.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log engine decisions to stderr")
	root.PersistentFlags().StringVar(&c.rulesPath, "rules", os.Getenv("RULES_TABLE_PATH"), "Rule table file overriding the built-in table")

	root.AddCommand(
		c.questionnaireCmd(),
		c.classifyCmd(),
		c.catalogCmd(),
		c.validateCmd(),
		c.payloadCmd(),
	)
	return root
}

func (c *cli) init() error {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if c.verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = logger

	engine := formrules.DefaultEngine()
	if c.rulesPath != "" {
		engine, err = ruleset.LoadEngine(c.rulesPath)
		if err != nil {
			return err
		}
	}
	c.store = ruleset.NewStore(engine)

	m := metrics.NewWithRegistry(prometheus.NewRegistry(), logger)
	c.forms = service.NewFormService(c.store, m, logger)
	return nil
}

func (c *cli) questionnaireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "questionnaire",
		Short: "Print the four classification questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), c.forms.Questionnaire())
		},
	}
}

func (c *cli) classifyCmd() *cobra.Command {
	req := &dto.ClassifyRequest{}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a project from its questionnaire answers",
		Example: `  changectl classify --duration 1_to_3_months --scope 2_to_3_teams \
    --relevance medium --risk low`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.forms.Classify(req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	bindAnswerFlags(cmd, req)
	for _, name := range []string{"duration", "scope", "relevance", "risk"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (c *cli) catalogCmd() *cobra.Command {
	var (
		tier          string
		includeHidden bool
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the form sections of a tier with field statuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.forms.Catalog(tier, includeHidden)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&tier, "tier", "", "Project tier (mini, standard, strategic)")
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "Also list hidden fields")
	_ = cmd.MarkFlagRequired("tier")
	return cmd
}

func (c *cli) validateCmd() *cobra.Command {
	var tier, valuesPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate form values against the rules of a tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := readValues(valuesPath)
			if err != nil {
				return err
			}
			resp, err := c.forms.Validate(&dto.ValidateRequest{Tier: tier, Values: values})
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if resp.Blocking {
				return errBlocking
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tier, "tier", "", "Project tier (mini, standard, strategic)")
	cmd.Flags().StringVar(&valuesPath, "values", "", "JSON file with form values keyed by field id, - for stdin")
	_ = cmd.MarkFlagRequired("tier")
	_ = cmd.MarkFlagRequired("values")
	return cmd
}

func (c *cli) payloadCmd() *cobra.Command {
	var tier, valuesPath string
	answers := &dto.ClassifyRequest{}
	cmd := &cobra.Command{
		Use:   "payload",
		Short: "Print the workflow engine submission payload for form values",
		Long: `payload maps form values to the workflow engine's field names and
prints the formData object a submission would carry. When all four
classification answers are given, the classified tier overrides --tier.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := readValues(valuesPath)
			if err != nil {
				return err
			}
			resolved, ok := formrules.ParseTier(tier)
			if a := answers.Answers(); a.Complete() {
				resolved, ok = formrules.Classify(a), true
			}
			if !ok {
				return fmt.Errorf("tier must be one of mini, standard, strategic, got %q", tier)
			}
			c.logger.Debug("Building submission payload", zap.String("tier", string(resolved)))
			payload := c.store.Engine().SubmissionPayload(values, resolved, answers.Answers())
			return printJSON(cmd.OutOrStdout(), payload)
		},
	}
	cmd.Flags().StringVar(&tier, "tier", "", "Project tier (mini, standard, strategic)")
	cmd.Flags().StringVar(&valuesPath, "values", "", "JSON file with form values keyed by field id, - for stdin")
	bindAnswerFlags(cmd, answers)
	_ = cmd.MarkFlagRequired("values")
	return cmd
}

func bindAnswerFlags(cmd *cobra.Command, req *dto.ClassifyRequest) {
	cmd.Flags().StringVar(&req.Duration, "duration", "", "Expected duration (up_to_2_weeks, 1_to_3_months, 3_to_12_months, over_1_year)")
	cmd.Flags().StringVar(&req.Scope, "scope", "", "Affected organisation (single_team, 2_to_3_teams, multiple_departments, company_wide)")
	cmd.Flags().StringVar(&req.Relevance, "relevance", "", "Strategic relevance (low, medium, high)")
	cmd.Flags().StringVar(&req.Risk, "risk", "", "Risk (low, medium, high)")
}

// readValues decodes a flat JSON object of field id to text.
func readValues(path string) (formrules.FormValues, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}

	values := formrules.FormValues{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode values %s: %w", path, err)
	}
	return values, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
