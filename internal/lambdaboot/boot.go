// Package lambdaboot provides shared Lambda cold-start bootstrap logic.
//
// The API Lambda needs AWS config, S3, DynamoDB, and an SSM secret fetch.
// This package extracts the common init patterns so the Lambda's init() is
// a short composition of helpers.
package lambdaboot

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/snapgrade/internal/store"
)

// AWSClients holds the core AWS SDK clients used across binaries.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// S3Clients holds S3 client, presigner, and bucket name.
type S3Clients struct {
	Client    *s3.Client
	Presigner *s3.PresignClient
	Bucket    string
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// InitS3 creates an S3 client, presigner, and reads the bucket name from the
// given environment variable. Fatals if the env var is empty.
func InitS3(cfg aws.Config, bucketEnvVar string) S3Clients {
	client := s3.NewFromConfig(cfg)
	bucket := os.Getenv(bucketEnvVar)
	if bucket == "" {
		log.Fatal().Str("envVar", bucketEnvVar).Msg("Bucket environment variable is required")
	}
	return S3Clients{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
	}
}

// InitDynamo creates a DynamoDB store from the given config and table name
// environment variable. Fatals if the env var is empty.
func InitDynamo(cfg aws.Config, tableEnvVar string) *store.DynamoStore {
	tableName := os.Getenv(tableEnvVar)
	if tableName == "" {
		log.Fatal().Str("envVar", tableEnvVar).Msg("DynamoDB table environment variable is required")
	}
	ddbClient := dynamodb.NewFromConfig(cfg)
	return store.NewDynamoStore(ddbClient, tableName)
}

// LoadAuthSecret returns the token signing secret, preferring the
// SNAPGRADE_AUTH_SECRET env var and falling back to SSM Parameter Store.
// Fatals if neither source yields a secret.
func LoadAuthSecret(ssmClient *ssm.Client) string {
	if secret := os.Getenv("SNAPGRADE_AUTH_SECRET"); secret != "" {
		return secret
	}
	paramName := os.Getenv("SSM_AUTH_SECRET_PARAM")
	if paramName == "" {
		paramName = "/snapgrade/prod/auth-secret"
	}
	ssmStart := time.Now()
	result, err := ssmClient.GetParameter(context.Background(), &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		log.Fatal().Err(err).Str("param", paramName).Msg("Failed to read auth secret from SSM")
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("Auth secret loaded from SSM")
	return *result.Parameter.Value
}
