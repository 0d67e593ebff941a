package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/aws/smithy-go"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/systmms/secretconf/pkg/configuration"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// ProviderError enhances secret store errors with context
func ProviderError(store string, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s error during %s", store, operation),
		Details:    err.Error(),
		Suggestion: getProviderSuggestion(store, err),
		Err:        err,
	}
}

// getProviderSuggestion returns helpful suggestions based on store and error
func getProviderSuggestion(store string, err error) string {
	switch store {
	case "aws.secretsmanager", "aws.ssm", "aws":
		if s := awsSuggestion(store, err); s != "" {
			return s
		}
	case "gcp.secretmanager":
		switch status.Code(err) {
		case codes.PermissionDenied:
			return "Grant roles/secretmanager.secretAccessor on the secret to the calling identity"
		case codes.Unauthenticated:
			return "Run 'gcloud auth application-default login' or set GOOGLE_APPLICATION_CREDENTIALS"
		case codes.ResourceExhausted:
			return "GCP quota exceeded. Wait a moment and try again"
		}
	case "azure.keyvault":
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) {
			switch respErr.StatusCode {
			case http.StatusUnauthorized:
				return "Run 'az login' or configure a service principal"
			case http.StatusForbidden:
				return "Grant the 'Key Vault Secrets User' role or a get-secret access policy"
			case http.StatusTooManyRequests:
				return "Key Vault throttled the request. Wait a moment and try again"
			}
		}
	}

	// Generic suggestions
	errStr := err.Error()
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and store configuration"
	}

	return ""
}

func awsSuggestion(store string, err error) string {
	permission := "secretsmanager:GetSecretValue"
	if store == "aws.ssm" {
		permission = "ssm:GetParameter"
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDeniedException", "AccessDenied":
			return "Check IAM permissions for " + permission
		case "ThrottlingException", "TooManyUpdates":
			return "AWS rate limit exceeded. Wait a moment and try again"
		case "DecryptionFailure", "KMSAccessDeniedException":
			return "Check that the calling identity may use the secret's KMS key (kms:Decrypt)"
		case "UnrecognizedClientException", "InvalidClientTokenId", "ExpiredTokenException", "ExpiredToken":
			return "Refresh AWS credentials: 'aws sso login' or check AWS_PROFILE"
		}
	}

	errStr := err.Error()
	if strings.Contains(errStr, "credentials") || strings.Contains(errStr, "authorization") {
		return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
	}
	if strings.Contains(errStr, "region") {
		return "Set a region with AWS_REGION or the aws.region setting"
	}
	return ""
}

// BuildError converts a configuration build failure into a UserError
func BuildError(err error) error {
	if err == nil {
		return nil
	}

	var notFound *configuration.FileNotFoundError
	if errors.As(err, &notFound) {
		return UserError{
			Message:    fmt.Sprintf("Required configuration source %q was not found", notFound.Path),
			Suggestion: "Check the name and region, or mark the source optional: true",
			Err:        err,
		}
	}

	var parseErr *configuration.ParseError
	if errors.As(err, &parseErr) {
		return UserError{
			Message:    fmt.Sprintf("Configuration source %q is not a valid JSON object", parseErr.Path),
			Details:    parseErr.Err.Error(),
			Suggestion: "The value must be a JSON object such as {\"key\": \"value\"}",
			Err:        err,
		}
	}

	if errors.Is(err, configuration.ErrInvalidArgument) {
		return ConfigError{
			Message:    err.Error(),
			Suggestion: "Check the sources section of your configuration file",
		}
	}

	return SimplifyError(err)
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorFault() == smithy.FaultServer {
		return true
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && (respErr.StatusCode == http.StatusTooManyRequests || respErr.StatusCode >= 500) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"temporary failure",
		"connection reset",
		"broken pipe",
		"rate limit",
		"throttling",
		"too many requests",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	var userErr UserError
	if errors.As(err, &userErr) {
		return err
	}
	var configErr ConfigError
	if errors.As(err, &configErr) {
		return err
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
