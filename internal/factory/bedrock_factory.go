package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/mikey/phish-triage/internal/adapters/llm"
	"github.com/mikey/phish-triage/internal/adapters/llm/bedrock"
)

func (f *AnalyzerFactory) createBedrock() (*bedrock.Analyzer, error) {
	bedrockCfg := f.cfg.GetBedrock()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(bedrockCfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return bedrock.NewAnalyzer(
		bedrockruntime.NewFromConfig(awsCfg),
		llm.Settings{
			ModelName:   bedrockCfg.ModelID,
			MaxTokens:   bedrockCfg.MaxTokens,
			Temperature: bedrockCfg.Temperature,
			TopP:        bedrockCfg.TopP,
			MaxBodySize: bedrockCfg.MaxBodySize,
		},
		f.logger,
		f.textProcessor,
	), nil
}
