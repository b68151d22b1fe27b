package storage

import "os"

// DynamoMode represents the DynamoDB connection mode
type DynamoMode string

const (
	DynamoModeLocal DynamoMode = "local"
	DynamoModeAWS   DynamoMode = "aws"
)

// DynamoConfig holds DynamoDB configuration
type DynamoConfig struct {
	Mode      DynamoMode
	Endpoint  string // for local mode
	Region    string
	CallTable string
}

// LoadDynamoConfig loads DynamoDB config from environment
func LoadDynamoConfig() DynamoConfig {
	mode := DynamoMode(getEnv("DYNAMO_MODE", "local"))
	if mode != DynamoModeLocal && mode != DynamoModeAWS {
		mode = DynamoModeLocal
	}

	return DynamoConfig{
		Mode:      mode,
		Endpoint:  getEnv("DYNAMO_ENDPOINT", "http://localhost:8000"),
		Region:    getEnv("DYNAMO_REGION", "eu-central-1"),
		CallTable: getEnv("DYNAMO_CALL_TABLE", "callpulse-day-cache"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
