package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Project      ProjectConfig      `yaml:"project" mapstructure:"project"`
	Paths        PathsConfig        `yaml:"paths" mapstructure:"paths"`
	Simulation   SimulationConfig   `yaml:"simulation" mapstructure:"simulation"`
	Fetch        FetchConfig        `yaml:"fetch" mapstructure:"fetch"`
	RAG          RAGConfig          `yaml:"rag_thresholds" mapstructure:"rag_thresholds"`
	Report       ReportConfig       `yaml:"report" mapstructure:"report"`
	Distribution DistributionConfig `yaml:"distribution" mapstructure:"distribution"`
	Scheduler    SchedulerConfig    `yaml:"scheduler" mapstructure:"scheduler"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// ProjectConfig identifies the reporting entity and its fiscal calendar.
type ProjectConfig struct {
	CompanyName          string `yaml:"company_name" mapstructure:"company_name"`
	FiscalYearStartMonth int    `yaml:"fiscal_year_start_month" mapstructure:"fiscal_year_start_month"`
}

// PathsConfig names every file location the pipeline reads or writes.
type PathsConfig struct {
	RawDataDir     string `yaml:"raw_data_dir" mapstructure:"raw_data_dir"`
	OutputDir      string `yaml:"output_dir" mapstructure:"output_dir"`
	TemplatesDir   string `yaml:"templates_dir" mapstructure:"templates_dir"`
	FinancialsFile string `yaml:"financials_file" mapstructure:"financials_file"`
	PipelineFile   string `yaml:"pipeline_file" mapstructure:"pipeline_file"`
	HeadcountFile  string `yaml:"headcount_file" mapstructure:"headcount_file"`
	CustomersFile  string `yaml:"customers_file" mapstructure:"customers_file"`
}

// SimulationConfig parameterizes the synthetic ERP extract generator.
type SimulationConfig struct {
	Seed                    int64              `yaml:"seed" mapstructure:"seed"`
	MonthsHistory           int                `yaml:"months_history" mapstructure:"months_history"`
	AnnualRevenueBudget     float64            `yaml:"annual_revenue_budget" mapstructure:"annual_revenue_budget"`
	AnnualRevenueGrowthRate float64            `yaml:"annual_revenue_growth_rate" mapstructure:"annual_revenue_growth_rate"`
	RevenueMix              map[string]float64 `yaml:"revenue_mix" mapstructure:"revenue_mix"`
	COGSRates               map[string]float64 `yaml:"cogs_rates" mapstructure:"cogs_rates"`
	OpexBudgetPct           map[string]float64 `yaml:"opex_budget_pct" mapstructure:"opex_budget_pct"`
	Seasonality             []float64          `yaml:"seasonality" mapstructure:"seasonality"`
	WeeklyNewPipelineBudget float64            `yaml:"weekly_new_pipeline_budget" mapstructure:"weekly_new_pipeline_budget"`
	PipelineWinRateBudget   float64            `yaml:"pipeline_win_rate_budget" mapstructure:"pipeline_win_rate_budget"`
	AvgDealSizeBudget       float64            `yaml:"avg_deal_size_budget" mapstructure:"avg_deal_size_budget"`
	HeadcountBudget         map[string]int     `yaml:"headcount_budget" mapstructure:"headcount_budget"`
	AvgSalaryByDept         map[string]float64 `yaml:"avg_salary_by_dept" mapstructure:"avg_salary_by_dept"`
	StartingARR             float64            `yaml:"starting_arr" mapstructure:"starting_arr"`
	MonthlyChurnRateBudget  float64            `yaml:"monthly_churn_rate_budget" mapstructure:"monthly_churn_rate_budget"`
	MonthlyNewARRBudget     float64            `yaml:"monthly_new_arr_budget" mapstructure:"monthly_new_arr_budget"`
	NPSTarget               int                `yaml:"nps_target" mapstructure:"nps_target"`
}

// FetchConfig configures the FTP pull of ERP CSV extracts.
type FetchConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Band holds the green and amber cutoffs for one KPI.
type Band struct {
	Green float64 `yaml:"green" mapstructure:"green"`
	Amber float64 `yaml:"amber" mapstructure:"amber"`
}

// RAGConfig maps KPI names to their RAG threshold bands.
// All eight dashboard KPIs must be present; Validate enforces this.
type RAGConfig struct {
	// Thresholds is rebuilt from the raw viper table in Load so that
	// user-supplied KPI names survive unmarshalling.
	Thresholds map[string]Band `yaml:"-" mapstructure:"-"`
}

// DashboardKPIs lists the eight KPI names the RAG dashboard requires.
var DashboardKPIs = []string{
	"revenue",
	"gross_margin",
	"ebitda_margin",
	"pipeline_coverage",
	"win_rate",
	"churn_rate",
	"nps",
	"headcount",
}

// Band returns the threshold band for the named KPI.
func (c RAGConfig) Band(kpi string) (Band, bool) {
	b, ok := c.Thresholds[kpi]
	return b, ok
}

// Validate checks that every dashboard KPI has a configured band.
func (c RAGConfig) Validate() error {
	for _, kpi := range DashboardKPIs {
		if _, ok := c.Thresholds[kpi]; !ok {
			return eris.Errorf("config: rag_thresholds missing band for %q", kpi)
		}
	}
	return nil
}

// ReportConfig holds presentation settings shared by all renderers.
type ReportConfig struct {
	Brand BrandConfig `yaml:"brand" mapstructure:"brand"`
}

// BrandConfig holds the hex colour palette (without leading #).
type BrandConfig struct {
	Primary   string `yaml:"primary" mapstructure:"primary"`
	Secondary string `yaml:"secondary" mapstructure:"secondary"`
	Accent    string `yaml:"accent" mapstructure:"accent"`
	Light     string `yaml:"light" mapstructure:"light"`
	Green     string `yaml:"green" mapstructure:"green"`
	Amber     string `yaml:"amber" mapstructure:"amber"`
	Red       string `yaml:"red" mapstructure:"red"`
}

// DistributionConfig configures report delivery channels.
// Credentials (SendGrid key, Slack webhook, Notion token) come from the
// environment only, never from config.yaml.
type DistributionConfig struct {
	EmailRecipients []string `yaml:"email_recipients" mapstructure:"email_recipients"`
	EmailSubject    string   `yaml:"email_subject" mapstructure:"email_subject"`
	EmailFrom       string   `yaml:"email_from" mapstructure:"email_from"`
	EmailFromName   string   `yaml:"email_from_name" mapstructure:"email_from_name"`
	SendGridKey     string   `yaml:"-" mapstructure:"sendgrid_key"`
	SlackWebhookURL string   `yaml:"-" mapstructure:"slack_webhook_url"`
	SlackChannel    string   `yaml:"slack_channel" mapstructure:"slack_channel"`
	SlackUsername   string   `yaml:"slack_username" mapstructure:"slack_username"`
	SlackIconEmoji  string   `yaml:"slack_icon_emoji" mapstructure:"slack_icon_emoji"`
	NotionToken     string   `yaml:"-" mapstructure:"notion_token"`
	NotionParentID  string   `yaml:"notion_parent_id" mapstructure:"notion_parent_id"`
}

// SchedulerConfig configures the weekly report daemon.
type SchedulerConfig struct {
	RunDayOfWeek      string `yaml:"run_day_of_week" mapstructure:"run_day_of_week"`
	RunTime           string `yaml:"run_time" mapstructure:"run_time"`
	Timezone          string `yaml:"timezone" mapstructure:"timezone"`
	MaxRetries        int    `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelaySeconds int    `yaml:"retry_delay_seconds" mapstructure:"retry_delay_seconds"`
}

// ServerConfig configures the health/trigger HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// StoreConfig configures the run-history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BOARDPACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("project.company_name", "Meridian Software Group Ltd")
	v.SetDefault("project.fiscal_year_start_month", 1)

	v.SetDefault("paths.raw_data_dir", "data/raw")
	v.SetDefault("paths.output_dir", "data/output")
	v.SetDefault("paths.templates_dir", "templates")
	v.SetDefault("paths.financials_file", "data/raw/financials.csv")
	v.SetDefault("paths.pipeline_file", "data/raw/pipeline.csv")
	v.SetDefault("paths.headcount_file", "data/raw/headcount.csv")
	v.SetDefault("paths.customers_file", "data/raw/customers.csv")

	v.SetDefault("simulation.seed", 42)
	v.SetDefault("simulation.months_history", 24)
	v.SetDefault("simulation.annual_revenue_budget", 24_000_000)
	v.SetDefault("simulation.annual_revenue_growth_rate", 0.14)
	v.SetDefault("simulation.revenue_mix", map[string]float64{
		"SaaS Subscriptions":    0.58,
		"Professional Services": 0.24,
		"Support & Maintenance": 0.18,
	})
	v.SetDefault("simulation.cogs_rates", map[string]float64{
		"SaaS Subscriptions":    0.22,
		"Professional Services": 0.58,
		"Support & Maintenance": 0.30,
	})
	v.SetDefault("simulation.opex_budget_pct", map[string]float64{
		"Engineering":       0.22,
		"Sales & Marketing": 0.19,
		"Customer Success":  0.07,
		"General & Admin":   0.11,
	})
	v.SetDefault("simulation.seasonality", []float64{
		0.92, 0.95, 1.05, 0.98, 1.00, 1.04, 0.94, 0.90, 1.06, 1.08, 1.02, 1.06,
	})
	v.SetDefault("simulation.weekly_new_pipeline_budget", 1_400_000)
	v.SetDefault("simulation.pipeline_win_rate_budget", 0.24)
	v.SetDefault("simulation.avg_deal_size_budget", 65_000)
	v.SetDefault("simulation.headcount_budget", map[string]int{
		"Engineering":       58,
		"Sales & Marketing": 34,
		"Customer Success":  18,
		"Professional Svcs": 22,
		"General & Admin":   14,
	})
	v.SetDefault("simulation.avg_salary_by_dept", map[string]float64{
		"Engineering":       78_000,
		"Sales & Marketing": 62_000,
		"Customer Success":  48_000,
		"Professional Svcs": 56_000,
		"General & Admin":   54_000,
	})
	v.SetDefault("simulation.starting_arr", 18_500_000)
	v.SetDefault("simulation.monthly_churn_rate_budget", 0.012)
	v.SetDefault("simulation.monthly_new_arr_budget", 420_000)
	v.SetDefault("simulation.nps_target", 42)

	v.SetDefault("fetch.base_url", "")
	v.SetDefault("fetch.timeout_secs", 30)

	v.SetDefault("rag_thresholds.revenue", map[string]float64{"green": -0.02, "amber": -0.08})
	v.SetDefault("rag_thresholds.gross_margin", map[string]float64{"green": 0.62, "amber": 0.55})
	v.SetDefault("rag_thresholds.ebitda_margin", map[string]float64{"green": 0.12, "amber": 0.06})
	v.SetDefault("rag_thresholds.pipeline_coverage", map[string]float64{"green": 3.0, "amber": 2.0})
	v.SetDefault("rag_thresholds.win_rate", map[string]float64{"green": 0.22, "amber": 0.16})
	v.SetDefault("rag_thresholds.churn_rate", map[string]float64{"green": 0.015, "amber": 0.022})
	v.SetDefault("rag_thresholds.nps", map[string]float64{"green": 35, "amber": 20})
	v.SetDefault("rag_thresholds.headcount", map[string]float64{"green": 0.05, "amber": 0.12})

	v.SetDefault("report.brand.primary", "1B3A5C")
	v.SetDefault("report.brand.secondary", "7A94AD")
	v.SetDefault("report.brand.accent", "C8A95B")
	v.SetDefault("report.brand.light", "F4F7FA")
	v.SetDefault("report.brand.green", "2E8B57")
	v.SetDefault("report.brand.amber", "D98E04")
	v.SetDefault("report.brand.red", "B02E2E")

	v.SetDefault("distribution.email_recipients", []string{})
	v.SetDefault("distribution.email_subject", "Board Performance Report — {period} | {company}")
	v.SetDefault("distribution.email_from", "reporting@example.com")
	v.SetDefault("distribution.email_from_name", "Board Report Generator")
	v.SetDefault("distribution.sendgrid_key", "")
	v.SetDefault("distribution.slack_webhook_url", "")
	v.SetDefault("distribution.slack_channel", "#board-reports")
	v.SetDefault("distribution.slack_username", "Board Report Bot")
	v.SetDefault("distribution.slack_icon_emoji", ":bar_chart:")
	v.SetDefault("distribution.notion_token", "")
	v.SetDefault("distribution.notion_parent_id", "")

	v.SetDefault("scheduler.run_day_of_week", "mon")
	v.SetDefault("scheduler.run_time", "06:00")
	v.SetDefault("scheduler.timezone", "Europe/London")
	v.SetDefault("scheduler.max_retries", 3)
	v.SetDefault("scheduler.retry_delay_seconds", 300)

	v.SetDefault("server.port", 8080)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "data/boardpack.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Viper flattens the rag_thresholds table; rebuild the band map so the
	// KPI-name keyed contract survives arbitrary user-supplied KPI names.
	cfg.RAG.Thresholds = make(map[string]Band)
	for kpi, raw := range v.GetStringMap("rag_thresholds") {
		// Bands read from yaml arrive as map[string]any; bands left at
		// their SetDefault value keep the map[string]float64 shape.
		switch band := raw.(type) {
		case map[string]any:
			cfg.RAG.Thresholds[kpi] = Band{
				Green: toFloat(band["green"]),
				Amber: toFloat(band["amber"]),
			}
		case map[string]float64:
			cfg.RAG.Thresholds[kpi] = Band{
				Green: band["green"],
				Amber: band["amber"],
			}
		default:
			return nil, eris.Errorf("config: rag_thresholds.%s must be a map with green/amber keys", kpi)
		}
	}

	if err := cfg.RAG.Validate(); err != nil {
		return nil, err
	}
	if cfg.Project.FiscalYearStartMonth < 1 || cfg.Project.FiscalYearStartMonth > 12 {
		return nil, eris.Errorf("config: fiscal_year_start_month must be 1-12 (got %d)",
			cfg.Project.FiscalYearStartMonth)
	}

	return &cfg, nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
