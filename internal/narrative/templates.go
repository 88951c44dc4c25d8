package narrative

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed narrative.yaml
var defaultTemplates []byte

// Risk is one entry of the outlook section's risk register.
type Risk struct {
	Risk       string `yaml:"risk" json:"risk"`
	Likelihood string `yaml:"likelihood" json:"likelihood"`
	Impact     string `yaml:"impact" json:"impact"`
	Mitigation string `yaml:"mitigation" json:"mitigation"`
}

// Templates holds the narrative template variants per report section.
type Templates struct {
	ExecutiveSummary struct {
		GreenAboveBudget string `yaml:"green_above_budget"`
		AmberSlightMiss  string `yaml:"amber_slight_miss"`
		RedMaterialMiss  string `yaml:"red_material_miss"`
	} `yaml:"executive_summary"`

	FinancialPerformance struct {
		RevenueNarrative struct {
			AboveBudget string `yaml:"above_budget"`
			OnBudget    string `yaml:"on_budget"`
			BelowBudget string `yaml:"below_budget"`
		} `yaml:"revenue_narrative"`
		EBITDANarrative struct {
			HealthyMargin    string `yaml:"healthy_margin"`
			CompressedMargin string `yaml:"compressed_margin"`
		} `yaml:"ebitda_narrative"`
		YTDComment string `yaml:"ytd_comment"`
	} `yaml:"financial_performance"`

	CommercialPerformance struct {
		PipelineNarrative struct {
			StrongPipeline string `yaml:"strong_pipeline"`
			WeakPipeline   string `yaml:"weak_pipeline"`
		} `yaml:"pipeline_narrative"`
	} `yaml:"commercial_performance"`

	CustomerMetrics struct {
		ARRNarrative struct {
			GrowingARR   string `yaml:"growing_arr"`
			DecliningARR string `yaml:"declining_arr"`
		} `yaml:"arr_narrative"`
	} `yaml:"customer_metrics"`

	OperationalMetrics struct {
		HeadcountNarrative struct {
			InBudget string `yaml:"in_budget"`
		} `yaml:"headcount_narrative"`
	} `yaml:"operational_metrics"`

	OutlookAndRisks struct {
		Standard     string `yaml:"standard"`
		RiskRegister []Risk `yaml:"risk_register"`
	} `yaml:"outlook_and_risks"`
}

// LoadTemplates reads narrative.yaml from templatesDir, falling back to the
// embedded defaults when the directory has no such file.
func LoadTemplates(templatesDir string) (*Templates, error) {
	data := defaultTemplates
	if templatesDir != "" {
		path := filepath.Join(templatesDir, "narrative.yaml")
		if b, err := os.ReadFile(path); err == nil {
			data = b
			zap.L().Debug("loaded narrative templates", zap.String("path", path))
		} else if !os.IsNotExist(err) {
			return nil, eris.Wrapf(err, "narrative: read %s", path)
		}
	}

	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "narrative: parse templates")
	}
	return &t, nil
}

// resolve substitutes every {token} in tmpl with its value and trims the
// result to a single block of prose.
func resolve(tmpl string, tokens map[string]string) string {
	pairs := make([]string, 0, len(tokens)*2)
	for k, v := range tokens {
		pairs = append(pairs, "{"+k+"}", v)
	}
	out := strings.NewReplacer(pairs...).Replace(tmpl)
	return strings.TrimSpace(strings.Join(strings.Fields(out), " "))
}
