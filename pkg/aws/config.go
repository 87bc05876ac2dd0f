package aws

import (
	"context"
	"fmt"

	"clockwise.service/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog/log"
)

// LocalStack accepts any key pair.
const localStackKey = "test"

// NewAWSConfig loads the configuration shared by the SQS and SES clients. In
// local development every client talks to AWS_ENDPOINT with static credentials.
func NewAWSConfig(ctx context.Context, appConfig config.Config) (aws.Config, error) {
	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(appConfig.AWSRegion),
	}
	logger := log.Ctx(ctx).With().Str("region", appConfig.AWSRegion).Logger()

	if appConfig.IsLocalDev {
		if appConfig.AWSEndpoint != "" {
			opts = append(opts, awsConfig.WithBaseEndpoint(appConfig.AWSEndpoint))
		}
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(localStackKey, localStackKey, ""),
		))
		logger.Info().Str("endpoint", appConfig.AWSEndpoint).Msg("Local development mode detected. Routing AWS calls to LocalStack.")
	} else {
		// IAM role for service accounts in EKS.
		logger.Info().Msg("Production mode detected. Using standard AWS credential chain.")
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}
