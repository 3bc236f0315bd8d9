package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *EngineError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *EngineError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *EngineError {
	return New(CategoryValidation, SeverityWarning, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// ValidationError creates a new validation error (400 Bad Request)
func ValidationError(message string) *EngineError {
	return New(CategoryValidation, SeverityWarning, message)
}

// Engine errors

func ZoneNotFound(zoneID int) *EngineError {
	return New(CategoryNotFound, SeverityWarning, "Zone not found").
		WithContext("zone_id", zoneID)
}

func ScheduleNotFound(id string) *EngineError {
	return New(CategoryNotFound, SeverityWarning, "Schedule not found").
		WithContext("schedule_id", id)
}

// RainDelayActive reports the policy gate blocking a zone start.
func RainDelayActive() *EngineError {
	return New(CategoryPolicy, SeverityInfo, "Rain delay active")
}

// Hardware errors

func RelayActivateError(zoneID int, cause error) *EngineError {
	return Wrap(cause, CategoryHardware, SeverityError, "relay activation failed").
		WithContext("zone_id", zoneID)
}

func RelayDeactivateError(zoneID int, cause error) *EngineError {
	return Wrap(cause, CategoryHardware, SeverityError, "relay deactivation failed").
		WithContext("zone_id", zoneID)
}

func RelayNetworkError(url string, cause error) *EngineError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "relay controller unreachable").
		WithContext("url", url)
}

// Persistence errors

func StateSaveError(cause error) *EngineError {
	return WrapRetryable(cause, CategoryPersistence, SeverityWarning, "state snapshot write failed")
}

func RunLogError(operation string, cause error) *EngineError {
	return WrapRetryable(cause, CategoryPersistence, SeverityWarning, "run log operation failed").
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *EngineError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
