package internal

import "time"

// This file contains functions to get the values of the various environment
// variables the pipeline reads. This catalogs the environment variables that
// are used throughout the codebase.

// ETL_VERSION_SHA_SHORT
func EtlVersionShaShort() string {
	return GetEnvString("ETL_VERSION_SHA_SHORT", "unknown")
}

// BLOCKCHAIR_BASE_URL
func BlockchairBaseURL() string {
	return GetEnvString("BLOCKCHAIR_BASE_URL", "https://gz.blockchair.com")
}

// ETL_DATA_DIR, root of the local dump tree: <dir>/<coin>/<dataset>/<file>
func EtlDataDir() string {
	return GetEnvString("ETL_DATA_DIR", "data")
}

// ETL_DDL_DIR, where generated CREATE TABLE statements are written
func EtlDdlDir() string {
	return GetEnvString("ETL_DDL_DIR", "sql/ddl")
}

// ETL_DOWNLOAD_MAX_ATTEMPTS
func EtlDownloadMaxAttempts() int {
	return getEnvInt("ETL_DOWNLOAD_MAX_ATTEMPTS", 4)
}

// ETL_DOWNLOAD_RETRY_DELAY_SECONDS
func EtlDownloadRetryDelay() time.Duration {
	return getEnvSeconds("ETL_DOWNLOAD_RETRY_DELAY_SECONDS", 2*time.Second)
}

// ETL_S3_BUCKET, optional S3 mirror backing an external stage
func EtlS3Bucket() string {
	return GetEnvString("ETL_S3_BUCKET", "")
}

// ETL_S3_PREFIX
func EtlS3Prefix() string {
	return GetEnvString("ETL_S3_PREFIX", "blockchair")
}

// ETL_S3_REGION
func EtlS3Region() string {
	return GetEnvString("ETL_S3_REGION", "")
}

// AWS_ACCESS_KEY_ID, also honored by the SDK default chain
func AwsAccessKeyID() string {
	return GetEnvString("AWS_ACCESS_KEY_ID", "")
}

// AWS_SECRET_ACCESS_KEY
func AwsSecretAccessKey() string {
	return GetEnvString("AWS_SECRET_ACCESS_KEY", "")
}

// SNOWFLAKE_ACCOUNT
func SnowflakeAccount() string {
	return GetEnvString("SNOWFLAKE_ACCOUNT", "")
}

// SNOWFLAKE_USER
func SnowflakeUser() string {
	return GetEnvString("SNOWFLAKE_USER", "")
}

// SNOWFLAKE_PASSWORD
func SnowflakePassword() string {
	return GetEnvString("SNOWFLAKE_PASSWORD", "")
}

// SNOWFLAKE_ROLE
func SnowflakeRole() string {
	return GetEnvString("SNOWFLAKE_ROLE", "ACCOUNTADMIN")
}

// SNOWFLAKE_WAREHOUSE
func SnowflakeWarehouse() string {
	return GetEnvString("SNOWFLAKE_WAREHOUSE", "")
}

// SNOWFLAKE_DATABASE
func SnowflakeDatabase() string {
	return GetEnvString("SNOWFLAKE_DATABASE", "")
}

// SNOWFLAKE_SCHEMA
func SnowflakeSchema() string {
	return GetEnvString("SNOWFLAKE_SCHEMA", "PUBLIC")
}

// SNOWFLAKE_QUERY_TIMEOUT_SECONDS
func SnowflakeQueryTimeout() time.Duration {
	return getEnvSeconds("SNOWFLAKE_QUERY_TIMEOUT_SECONDS", 300*time.Second)
}
